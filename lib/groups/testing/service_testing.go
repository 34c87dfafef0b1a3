package testing

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ltessmer/credd/lib/groups"
)

// ServiceFactory is a function that creates a new instance of an
// IGroupService implementation
type ServiceFactory func() groups.IGroupService

// RunGroupServiceTests runs a comprehensive conformance suite for a
// groups.IGroupService implementation.
func RunGroupServiceTests(t *testing.T, name string, factory ServiceFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Register", func(t *testing.T) {
			testRegister(t, factory())
		})

		t.Run("GetGroups", func(t *testing.T) {
			testGetGroups(t, factory())
		})

		t.Run("SetGroupsPrivileged", func(t *testing.T) {
			testSetGroupsPrivileged(t, factory())
		})

		t.Run("SetGroupsSubsetRule", func(t *testing.T) {
			testSetGroupsSubsetRule(t, factory())
		})

		t.Run("SetGroupsValidation", func(t *testing.T) {
			testSetGroupsValidation(t, factory())
		})

		t.Run("MaySetGroups", func(t *testing.T) {
			testMaySetGroups(t, factory())
		})

		t.Run("Membership", func(t *testing.T) {
			testMembership(t, factory())
		})

		t.Run("UnknownPrincipal", func(t *testing.T) {
			testUnknownPrincipal(t, factory())
		})

		t.Run("EndToEnd", func(t *testing.T) {
			testEndToEnd(t, factory())
		})

		t.Run("ConcurrentQueries", func(t *testing.T) {
			testConcurrentQueries(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func mustRegister(t testing.TB, svc groups.IGroupService, name string, spec groups.PrincipalSpec) {
	t.Helper()
	if err := svc.RegisterPrincipal(name, spec); err != nil {
		t.Fatalf("RegisterPrincipal(%s) failed: %v", name, err)
	}
}

func wantCode(t *testing.T, err error, code groups.RetCode) {
	t.Helper()
	if got := groups.CodeOf(err); got != code {
		t.Errorf("error code = %s (err: %v), want %s", got, err, code)
	}
}

func wantGroups(t *testing.T, svc groups.IGroupService, principal string, want []uint32) {
	t.Helper()
	got, err := svc.GetGroups(principal, len(want)+1)
	if err != nil {
		t.Fatalf("GetGroups(%s) failed: %v", principal, err)
	}
	if len(got) != len(want) {
		t.Fatalf("groups of %s = %v, want %v", principal, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("groups of %s = %v, want %v", principal, got, want)
		}
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testRegister(t *testing.T, svc groups.IGroupService) {
	mustRegister(t, svc, "alice", groups.PrincipalSpec{
		GID: 100, EGID: 100, FSGID: 100,
		Groups: []uint32{30, 10, 20},
	})

	// Registration canonicalizes the initial set.
	wantGroups(t, svc, "alice", []uint32{10, 20, 30})

	// Duplicate names are rejected.
	err := svc.RegisterPrincipal("alice", groups.PrincipalSpec{})
	wantCode(t, err, groups.RetCInvalidArgument)
}

func testGetGroups(t *testing.T, svc groups.IGroupService) {
	mustRegister(t, svc, "alice", groups.PrincipalSpec{
		GID: 100, EGID: 100, FSGID: 100,
		Groups: []uint32{10, 20, 30},
	})

	// Negative capacity is malformed.
	_, err := svc.GetGroups("alice", -1)
	wantCode(t, err, groups.RetCInvalidArgument)

	// Too-small capacity fails without partial output.
	_, err = svc.GetGroups("alice", 2)
	wantCode(t, err, groups.RetCBufferTooSmall)

	// Zero capacity is a probe.
	got, err := svc.GetGroups("alice", 0)
	if err != nil || len(got) != 0 {
		t.Errorf("GetGroups(alice, 0) = (%v, %v), want empty success", got, err)
	}

	// Exact capacity succeeds.
	got, err = svc.GetGroups("alice", 3)
	if err != nil || len(got) != 3 {
		t.Errorf("GetGroups(alice, 3) = (%v, %v)", got, err)
	}

	n, err := svc.CountGroups("alice")
	if err != nil || n != 3 {
		t.Errorf("CountGroups(alice) = (%d, %v), want 3", n, err)
	}
}

func testSetGroupsPrivileged(t *testing.T, svc groups.IGroupService) {
	mustRegister(t, svc, "root", groups.PrincipalSpec{Privileged: true})
	mustRegister(t, svc, "alice", groups.PrincipalSpec{
		GID: 100, EGID: 100, FSGID: 100,
		Groups: []uint32{10, 20, 30},
	})

	// A privileged caller may install anything, on itself or others.
	if err := svc.SetGroups("root", "alice", []uint32{99, 1}); err != nil {
		t.Fatalf("privileged SetGroups failed: %v", err)
	}
	wantGroups(t, svc, "alice", []uint32{1, 99})

	if err := svc.SetGroups("root", "root", []uint32{7}); err != nil {
		t.Fatalf("privileged self SetGroups failed: %v", err)
	}
	wantGroups(t, svc, "root", []uint32{7})
}

func testSetGroupsSubsetRule(t *testing.T, svc groups.IGroupService) {
	mustRegister(t, svc, "alice", groups.PrincipalSpec{
		GID: 100, EGID: 100, FSGID: 100,
		Groups: []uint32{10, 20, 30},
	})
	mustRegister(t, svc, "bob", groups.PrincipalSpec{
		GID: 200, EGID: 200, FSGID: 200,
		Groups: []uint32{10},
	})

	// Narrowing the own set is allowed, input order does not matter.
	if err := svc.SetGroups("alice", "alice", []uint32{20, 10}); err != nil {
		t.Fatalf("subset SetGroups failed: %v", err)
	}
	wantGroups(t, svc, "alice", []uint32{10, 20})

	// Broadening is denied and leaves the set unchanged.
	err := svc.SetGroups("alice", "alice", []uint32{10, 40})
	wantCode(t, err, groups.RetCPermissionDenied)
	wantGroups(t, svc, "alice", []uint32{10, 20})

	// An unprivileged caller may not touch another principal, not even
	// with a subset of the target's groups.
	err = svc.SetGroups("bob", "alice", []uint32{10})
	wantCode(t, err, groups.RetCPermissionDenied)
	wantGroups(t, svc, "alice", []uint32{10, 20})
}

func testSetGroupsValidation(t *testing.T, svc groups.IGroupService) {
	mustRegister(t, svc, "root", groups.PrincipalSpec{Privileged: true})

	// Oversized requests are malformed, not a permission problem.
	huge := make([]uint32, 1<<17)
	err := svc.SetGroups("root", "root", huge)
	wantCode(t, err, groups.RetCInvalidArgument)
	wantGroups(t, svc, "root", []uint32{})
}

func testMaySetGroups(t *testing.T, svc groups.IGroupService) {
	mustRegister(t, svc, "root", groups.PrincipalSpec{Privileged: true})
	mustRegister(t, svc, "alice", groups.PrincipalSpec{GID: 100, EGID: 100, FSGID: 100})

	if ok, err := svc.MaySetGroups("root"); err != nil || !ok {
		t.Errorf("MaySetGroups(root) = (%v, %v), want true", ok, err)
	}
	if ok, err := svc.MaySetGroups("alice"); err != nil || ok {
		t.Errorf("MaySetGroups(alice) = (%v, %v), want false", ok, err)
	}
}

func testMembership(t *testing.T, svc groups.IGroupService) {
	mustRegister(t, svc, "alice", groups.PrincipalSpec{
		GID: 100, EGID: 101, FSGID: 102,
		Groups: []uint32{10, 20},
	})

	cases := []struct {
		group         uint32
		in, effective bool
	}{
		{10, true, true},    // supplementary
		{20, true, true},    // supplementary
		{101, false, true},  // effective group fast path only
		{102, true, false},  // filesystem group fast path only
		{100, false, false}, // real group is neither fast path
		{999, false, false},
	}

	for _, tc := range cases {
		if ok, err := svc.InGroup("alice", tc.group); err != nil || ok != tc.in {
			t.Errorf("InGroup(alice, %d) = (%v, %v), want %v", tc.group, ok, err, tc.in)
		}
		if ok, err := svc.InEffectiveGroup("alice", tc.group); err != nil || ok != tc.effective {
			t.Errorf("InEffectiveGroup(alice, %d) = (%v, %v), want %v", tc.group, ok, err, tc.effective)
		}
	}
}

func testUnknownPrincipal(t *testing.T, svc groups.IGroupService) {
	_, err := svc.GetGroups("nobody", 10)
	wantCode(t, err, groups.RetCUnknownPrincipal)

	err = svc.SetGroups("nobody", "nobody", []uint32{1})
	wantCode(t, err, groups.RetCUnknownPrincipal)

	_, err = svc.MaySetGroups("nobody")
	wantCode(t, err, groups.RetCUnknownPrincipal)

	_, err = svc.InGroup("nobody", 1)
	wantCode(t, err, groups.RetCUnknownPrincipal)
}

// testEndToEnd is the full scenario: subset narrowing, denial, privileged
// replacement with duplicates, membership and buffer checks.
func testEndToEnd(t *testing.T, svc groups.IGroupService) {
	mustRegister(t, svc, "root", groups.PrincipalSpec{Privileged: true})
	mustRegister(t, svc, "alice", groups.PrincipalSpec{
		GID: 100, EGID: 100, FSGID: 100,
		Groups: []uint32{10, 20, 30},
	})

	// Unprivileged narrowing with reordered input canonicalizes.
	if err := svc.SetGroups("alice", "alice", []uint32{20, 10}); err != nil {
		t.Fatalf("SetGroups([20 10]) failed: %v", err)
	}
	wantGroups(t, svc, "alice", []uint32{10, 20})

	// Reset, then verify a non-subset is denied without effect.
	if err := svc.SetGroups("root", "alice", []uint32{10, 20, 30}); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	err := svc.SetGroups("alice", "alice", []uint32{10, 40})
	wantCode(t, err, groups.RetCPermissionDenied)
	wantGroups(t, svc, "alice", []uint32{10, 20, 30})

	// Privileged install of a duplicate-bearing, non-subset set.
	if err := svc.SetGroups("root", "alice", []uint32{5, 5, 7}); err != nil {
		t.Fatalf("SetGroups([5 5 7]) failed: %v", err)
	}

	if ok, _ := svc.InGroup("alice", 5); !ok {
		t.Error("InGroup(alice, 5) = false after install")
	}
	if ok, _ := svc.InGroup("alice", 20); ok {
		t.Error("InGroup(alice, 20) = true after replacement")
	}

	// count=3 does not fit into capacity 2, and nothing is returned.
	if _, err := svc.GetGroups("alice", 2); groups.CodeOf(err) != groups.RetCBufferTooSmall {
		t.Errorf("GetGroups(alice, 2) = %v, want BufferTooSmall", err)
	}
}

// testConcurrentQueries verifies that queries racing a set replacement on
// the same principal observe the old or the new set, never a mix.
func testConcurrentQueries(t *testing.T, svc groups.IGroupService) {
	mustRegister(t, svc, "root", groups.PrincipalSpec{Privileged: true})
	mustRegister(t, svc, "alice", groups.PrincipalSpec{
		GID: 100, EGID: 100, FSGID: 100,
		Groups: []uint32{10, 20},
	})

	var stop atomic.Bool
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; !stop.Load(); i++ {
			groupsAB := []uint32{10, 20}
			if i%2 == 1 {
				groupsAB = []uint32{30, 40}
			}
			if err := svc.SetGroups("root", "alice", groupsAB); err != nil {
				t.Errorf("SetGroups failed: %v", err)
				return
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				got, err := svc.GetGroups("alice", 4)
				if err != nil {
					t.Errorf("GetGroups failed: %v", err)
					return
				}
				if len(got) != 2 {
					t.Errorf("torn read: %v", got)
					return
				}
				old := got[0] == 10 && got[1] == 20
				new_ := got[0] == 30 && got[1] == 40
				if !old && !new_ {
					t.Errorf("torn read: %v", got)
					return
				}

				in10, _ := svc.InGroup("alice", 10)
				in30, _ := svc.InGroup("alice", 30)
				_ = in10
				_ = in30
			}
		}()
	}

	for i := 0; i < 2000; i++ {
		if _, err := svc.InEffectiveGroup("alice", 100); err != nil {
			t.Fatalf("InEffectiveGroup failed: %v", err)
		}
	}
	stop.Store(true)
	wg.Wait()
}
