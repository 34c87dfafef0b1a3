package groupset

import (
	"math/rand"
	"sort"
	"testing"
)

// newSet allocates a set holding exactly the given identifiers, unsorted.
func newSet(t testing.TB, ids ...GID) *Set {
	t.Helper()
	s, err := Alloc(len(ids))
	if err != nil {
		t.Fatalf("Alloc(%d) failed: %v", len(ids), err)
	}
	s.Fill(ids)
	return s
}

// sortedSet allocates a set holding the given identifiers in sorted order.
func sortedSet(t testing.TB, ids ...GID) *Set {
	t.Helper()
	s := newSet(t, ids...)
	s.Sort()
	return s
}

func assertAscending(t *testing.T, s *Set) {
	t.Helper()
	for i := 1; i < s.Count(); i++ {
		if s.At(i-1) > s.At(i) {
			t.Fatalf("not sorted at %d: %d > %d", i, s.At(i-1), s.At(i))
		}
	}
}

func TestSort(t *testing.T) {
	cases := map[string][]GID{
		"empty":          {},
		"single":         {7},
		"sorted":         {1, 2, 3, 4, 5},
		"reversed":       {9, 7, 5, 3, 1},
		"duplicateHeavy": {5, 1, 5, 5, 2, 5, 1, 5},
		"allEqual":       {3, 3, 3, 3},
	}

	for name, ids := range cases {
		t.Run(name, func(t *testing.T) {
			s := newSet(t, ids...)
			defer s.Release()

			// Reference multiset.
			want := append([]GID(nil), ids...)
			sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

			s.Sort()
			assertAscending(t, s)

			got := s.AppendTo(nil)
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("Sort changed the multiset: got %v, want %v", got, want)
				}
			}

			// Idempotence: sorting again must not change anything.
			s.Sort()
			again := s.AppendTo(nil)
			for i := range got {
				if again[i] != got[i] {
					t.Fatalf("Sort not idempotent: %v then %v", got, again)
				}
			}
		})
	}
}

// TestSortLargeRandom crosses the block boundary so the gap sequence runs
// over multi-block index arithmetic
func TestSortLargeRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	size := 2*GroupsPerBlock + 100
	ids := make([]GID, size)
	for i := range ids {
		ids[i] = GID(rng.Uint32() % 10000)
	}

	s := newSet(t, ids...)
	defer s.Release()

	s.Sort()
	assertAscending(t, s)
}

// TestSearchOracle verifies Search against a brute-force linear scan
func TestSearchOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	ids := make([]GID, 513)
	for i := range ids {
		ids[i] = GID(rng.Uint32() % 1000)
	}

	s := sortedSet(t, ids...)
	defer s.Release()

	linear := func(g GID) bool {
		for _, id := range ids {
			if id == g {
				return true
			}
		}
		return false
	}

	for probe := GID(0); probe < 1000; probe++ {
		if got, want := s.Search(probe), linear(probe); got != want {
			t.Fatalf("Search(%d) = %v, linear scan says %v", probe, got, want)
		}
	}
}

func TestSearchEmpty(t *testing.T) {
	s := sortedSet(t)
	defer s.Release()

	if s.Search(1) {
		t.Error("Search on empty set = true")
	}
}

func TestIsSubset(t *testing.T) {
	cases := []struct {
		name string
		a, b []GID
		want bool
	}{
		{"emptyInEmpty", nil, nil, true},
		{"emptyInAny", nil, []GID{1, 2}, true},
		{"anyInEmpty", []GID{1}, nil, false},
		{"equal", []GID{1, 2, 3}, []GID{1, 2, 3}, true},
		{"proper", []GID{20, 10}, []GID{10, 20, 30}, true},
		{"notContained", []GID{10, 40}, []GID{10, 20, 30}, false},
		{"superset", []GID{1, 2, 3}, []GID{2, 3}, false},
		{"duplicatesInA", []GID{5, 5}, []GID{5, 7}, true},
		{"duplicatesInB", []GID{5, 7}, []GID{5, 5, 7, 7}, true},
		{"interleaved", []GID{2, 4, 6}, []GID{1, 2, 3, 4, 5, 6, 7}, true},
		{"lastMissing", []GID{2, 4, 8}, []GID{1, 2, 3, 4, 5, 6, 7}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := sortedSet(t, tc.a...)
			defer a.Release()
			b := sortedSet(t, tc.b...)
			defer b.Release()

			if got := a.IsSubset(b); got != tc.want {
				t.Errorf("IsSubset(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

// TestIsSubsetOracle cross-checks the forward scan against distinct-value
// containment on random inputs
func TestIsSubsetOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for round := 0; round < 200; round++ {
		na, nb := rng.Intn(20), rng.Intn(20)
		a := make([]GID, na)
		b := make([]GID, nb)
		for i := range a {
			a[i] = GID(rng.Uint32() % 30)
		}
		for i := range b {
			b[i] = GID(rng.Uint32() % 30)
		}

		sa := sortedSet(t, a...)
		sb := sortedSet(t, b...)

		want := true
		for _, g := range a {
			found := false
			for _, h := range b {
				if g == h {
					found = true
					break
				}
			}
			if !found {
				want = false
				break
			}
		}

		if got := sa.IsSubset(sb); got != want {
			t.Fatalf("round %d: IsSubset(%v, %v) = %v, want %v", round, a, b, got, want)
		}

		sa.Release()
		sb.Release()
	}
}

func BenchmarkSort(b *testing.B) {
	rng := rand.New(rand.NewSource(4))
	ids := make([]GID, 4096)
	for i := range ids {
		ids[i] = GID(rng.Uint32())
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		s := newSet(b, ids...)
		b.StartTimer()
		s.Sort()
		b.StopTimer()
		s.Release()
	}
}

func BenchmarkSearch(b *testing.B) {
	ids := make([]GID, 4096)
	for i := range ids {
		ids[i] = GID(i * 3)
	}
	s := sortedSet(b, ids...)
	defer s.Release()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Search(GID(i % (4096 * 3)))
	}
}
