package cred

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ltessmer/credd/lib/groupset"
)

// newTestPrincipal registers a principal with the given groups (unsorted
// input allowed) in a fresh registry.
func newTestPrincipal(t testing.TB, caps Capability, groups ...groupset.GID) *Principal {
	t.Helper()

	s, err := groupset.Alloc(len(groups))
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	s.Fill(groups)

	r := NewRegistry()
	p, err := r.Register("test", Credential{
		GID:    100,
		EGID:   100,
		FSGID:  100,
		Caps:   caps,
		Groups: s,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return p
}

func newGroupSet(t testing.TB, groups ...groupset.GID) *groupset.Set {
	t.Helper()
	s, err := groupset.Alloc(len(groups))
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	s.Fill(groups)
	return s
}

func currentGroups(p *Principal) []groupset.GID {
	c := p.Current()
	defer c.Release()
	return c.Groups.AppendTo(nil)
}

func TestRegisterSortsInitialGroups(t *testing.T) {
	p := newTestPrincipal(t, 0, 30, 10, 20)

	got := currentGroups(p)
	want := []groupset.GID{10, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("initial groups = %v, want %v", got, want)
		}
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register("a", Credential{}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if _, err := r.Register("a", Credential{}); err != ErrExists {
		t.Errorf("second Register = %v, want ErrExists", err)
	}
}

func TestSetGroupsPrivileged(t *testing.T) {
	p := newTestPrincipal(t, CapSetGroups, 10, 20, 30)

	// Not a subset of the current groups, duplicates included.
	s := newGroupSet(t, 5, 5, 7)
	defer s.Release()

	if err := p.SetGroups(s, true); err != nil {
		t.Fatalf("privileged SetGroups failed: %v", err)
	}

	got := currentGroups(p)
	want := []groupset.GID{5, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("groups after install = %v, want %v", got, want)
		}
	}

	if !p.InGroup(5) {
		t.Error("InGroup(5) = false after install")
	}
	if p.InGroup(20) {
		t.Error("InGroup(20) = true after replacement")
	}
}

func TestSetGroupsUnprivilegedSubset(t *testing.T) {
	p := newTestPrincipal(t, 0, 10, 20, 30)

	// Reordered subset must succeed and canonicalize.
	s := newGroupSet(t, 20, 10)
	defer s.Release()

	if err := p.SetGroups(s, false); err != nil {
		t.Fatalf("subset SetGroups failed: %v", err)
	}

	got := currentGroups(p)
	want := []groupset.GID{10, 20}
	if len(got) != len(want) {
		t.Fatalf("groups = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("groups = %v, want %v", got, want)
		}
	}
}

func TestSetGroupsUnprivilegedDenied(t *testing.T) {
	p := newTestPrincipal(t, 0, 10, 20, 30)

	s := newGroupSet(t, 10, 40)
	defer s.Release()

	if err := p.SetGroups(s, false); err != ErrPermissionDenied {
		t.Fatalf("non-subset SetGroups = %v, want ErrPermissionDenied", err)
	}

	// The active set must be unchanged.
	got := currentGroups(p)
	want := []groupset.GID{10, 20, 30}
	if len(got) != len(want) {
		t.Fatalf("groups after denial = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("groups after denial = %v, want %v", got, want)
		}
	}
}

func TestUpdateAbortKeepsState(t *testing.T) {
	p := newTestPrincipal(t, 0, 1, 2)

	u := p.BeginUpdate()
	u.Working().EGID = 999
	u.Abort()

	c := p.Current()
	defer c.Release()
	if c.EGID != 100 {
		t.Errorf("EGID after abort = %d, want 100", c.EGID)
	}
}

func TestUpdateCommitPublishesScalars(t *testing.T) {
	p := newTestPrincipal(t, 0, 1, 2)

	u := p.BeginUpdate()
	u.Working().FSGID = 777
	u.Commit()

	c := p.Current()
	defer c.Release()
	if c.FSGID != 777 {
		t.Errorf("FSGID after commit = %d, want 777", c.FSGID)
	}
}

func TestGroupSetSharingAcrossSnapshots(t *testing.T) {
	p := newTestPrincipal(t, CapSetGroups, 1, 2, 3)

	// The snapshot keeps the old set alive across a replacement.
	old := p.Current()
	defer old.Release()

	s := newGroupSet(t, 9)
	if err := p.SetGroups(s, true); err != nil {
		t.Fatalf("SetGroups failed: %v", err)
	}
	s.Release()

	if !old.Groups.Search(2) {
		t.Error("snapshot lost its contents after replacement")
	}
	if old.Groups.Search(9) {
		t.Error("snapshot observes the new set")
	}
}

func TestMembershipFastPath(t *testing.T) {
	p := newTestPrincipal(t, 0) // empty supplementary set

	// 100 is EGID and FSGID but not in the (empty) set.
	if !p.InGroup(100) {
		t.Error("InGroup(FSGID) = false")
	}
	if !p.InEffectiveGroup(100) {
		t.Error("InEffectiveGroup(EGID) = false")
	}
	if p.InGroup(200) {
		t.Error("InGroup(200) = true for empty set")
	}
}

func TestMembershipOverride(t *testing.T) {
	s := newGroupSet(t, 10)

	r := NewRegistry(WithMembershipOverride(func(principal string, g groupset.GID) (bool, bool) {
		if g == 4242 {
			return true, true
		}
		return false, false
	}))
	p, err := r.Register("diag", Credential{Groups: s})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if !p.InGroup(4242) {
		t.Error("override did not grant membership")
	}
	if !p.InGroup(10) {
		t.Error("override broke normal membership")
	}
	if p.InGroup(11) {
		t.Error("deferred override granted membership")
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register("gone", Credential{}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if !r.Unregister("gone") {
		t.Error("Unregister returned false for registered name")
	}
	if r.Unregister("gone") {
		t.Error("Unregister returned true for removed name")
	}
	if _, ok := r.Lookup("gone"); ok {
		t.Error("Lookup found unregistered principal")
	}
}

// TestConcurrentQueriesDuringUpdates is the torn-read property: membership
// queries racing group-set replacement observe the old or the new set in
// full, never a mix.
func TestConcurrentQueriesDuringUpdates(t *testing.T) {
	// The two sets are disjoint; any mixed observation shows up as a state
	// where neither invariant holds.
	oldGroups := []groupset.GID{10, 20, 30, 40}
	newGroups := []groupset.GID{50, 60, 70, 80}

	p := newTestPrincipal(t, CapSetGroups, oldGroups...)

	var stop atomic.Bool
	var wg sync.WaitGroup

	// Writer: flip between the two sets.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; !stop.Load(); i++ {
			groups := oldGroups
			if i%2 == 1 {
				groups = newGroups
			}
			s := newGroupSet(t, groups...)
			if err := p.SetGroups(s, true); err != nil {
				t.Errorf("SetGroups failed: %v", err)
			}
			s.Release()
		}
	}()

	// Readers: every observed snapshot must be entirely one of the sets.
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				c := p.Current()
				got := c.Groups.AppendTo(nil)
				c.Release()

				if len(got) != 4 {
					t.Errorf("torn read: %v", got)
					return
				}
				isOld := got[0] == oldGroups[0]
				for i := range got {
					want := oldGroups[i]
					if !isOld {
						want = newGroups[i]
					}
					if got[i] != want {
						t.Errorf("torn read: %v", got)
						return
					}
				}
			}
		}()
	}

	// Also hammer point queries; they must never panic or misbehave.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for !stop.Load() {
			p.InGroup(30)
			p.InEffectiveGroup(70)
		}
	}()

	for i := 0; i < 50000; i++ {
		p.InGroup(10)
	}
	stop.Store(true)
	wg.Wait()
}

func BenchmarkInGroup(b *testing.B) {
	groups := make([]groupset.GID, 1000)
	for i := range groups {
		groups[i] = groupset.GID(i * 2)
	}
	p := newTestPrincipal(b, 0, groups...)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			p.InGroup(groupset.GID(i % 2000))
			i++
		}
	})
}
