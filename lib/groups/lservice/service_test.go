package lservice

import (
	"testing"

	"github.com/ltessmer/credd/lib/groups"
	groupstesting "github.com/ltessmer/credd/lib/groups/testing"
	"github.com/ltessmer/credd/lib/idmap"
)

func Test(t *testing.T) {
	groupstesting.RunGroupServiceTests(t, "LocalService", func() groups.IGroupService {
		return NewLocalService(nil)
	})
}

func Benchmark(b *testing.B) {
	groupstesting.RunGroupServiceBenchmarks(b, "LocalService", func() groups.IGroupService {
		return NewLocalService(nil)
	})
}

// The conformance suite runs with the identity mapper; the translation and
// munging paths need a real range mapping.

func rangeService() groups.IGroupService {
	return NewLocalService(&ServiceOptions{
		// External 1000..1999 map to internal 0..999.
		Mapper: idmap.NewRange(1000, 0, 1000),
	})
}

func TestMappedRegister(t *testing.T) {
	svc := rangeService()

	err := svc.RegisterPrincipal("alice", groups.PrincipalSpec{
		GID: 1100, EGID: 1100, FSGID: 1100,
		Groups: []uint32{1010, 1020},
	})
	if err != nil {
		t.Fatalf("RegisterPrincipal failed: %v", err)
	}

	got, err := svc.GetGroups("alice", 2)
	if err != nil {
		t.Fatalf("GetGroups failed: %v", err)
	}
	if len(got) != 2 || got[0] != 1010 || got[1] != 1020 {
		t.Errorf("groups = %v, want [1010 1020]", got)
	}
}

func TestMappedRejectsUntranslatable(t *testing.T) {
	svc := rangeService()

	// 999 is below the mapped range.
	err := svc.RegisterPrincipal("alice", groups.PrincipalSpec{
		GID: 1100, EGID: 1100, FSGID: 1100,
		Groups: []uint32{1010, 999},
	})
	if groups.CodeOf(err) != groups.RetCInvalidArgument {
		t.Errorf("RegisterPrincipal = %v, want InvalidArgument", err)
	}

	// Same for the scalar identifiers.
	err = svc.RegisterPrincipal("bob", groups.PrincipalSpec{
		GID: 2, EGID: 1100, FSGID: 1100,
	})
	if groups.CodeOf(err) != groups.RetCInvalidArgument {
		t.Errorf("RegisterPrincipal = %v, want InvalidArgument", err)
	}
}

func TestMappedMembershipOutsideNamespace(t *testing.T) {
	svc := rangeService()

	if err := svc.RegisterPrincipal("alice", groups.PrincipalSpec{
		GID: 1100, EGID: 1100, FSGID: 1100,
		Groups: []uint32{1010},
	}); err != nil {
		t.Fatalf("RegisterPrincipal failed: %v", err)
	}

	// An identifier outside the namespace is simply not a member, it is
	// not an error.
	ok, err := svc.InGroup("alice", 42)
	if err != nil || ok {
		t.Errorf("InGroup(alice, 42) = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestMaxGroupsOption(t *testing.T) {
	svc := NewLocalService(&ServiceOptions{MaxGroups: 2})

	err := svc.RegisterPrincipal("alice", groups.PrincipalSpec{
		GID: 100, EGID: 100, FSGID: 100,
		Groups: []uint32{1, 2, 3},
	})
	if groups.CodeOf(err) != groups.RetCInvalidArgument {
		t.Errorf("RegisterPrincipal over limit = %v, want InvalidArgument", err)
	}

	if err := svc.RegisterPrincipal("bob", groups.PrincipalSpec{
		GID: 100, EGID: 100, FSGID: 100,
		Groups: []uint32{1, 2},
	}); err != nil {
		t.Fatalf("RegisterPrincipal at limit failed: %v", err)
	}
}
