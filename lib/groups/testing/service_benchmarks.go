package testing

import (
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ltessmer/credd/lib/groups"
)

// RunGroupServiceBenchmarks runs all benchmarks for a group service
// implementation
func RunGroupServiceBenchmarks(b *testing.B, name string, factory ServiceFactory) {

	b.Run("InGroup", func(b *testing.B) {
		benchmarkInGroup(b, factory())
	})

	b.Run("InGroup(miss)", func(b *testing.B) {
		benchmarkInGroupMiss(b, factory())
	})

	b.Run("InEffectiveGroup", func(b *testing.B) {
		benchmarkInEffectiveGroup(b, factory())
	})

	b.Run("GetGroups", func(b *testing.B) {
		benchmarkGetGroups(b, factory())
	})

	b.Run("SetGroups", func(b *testing.B) {
		benchmarkSetGroups(b, factory())
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory())
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// seedPrincipal registers a privileged root and one principal with the given
// number of supplementary groups (2, 4, 6, ...).
func seedPrincipal(b *testing.B, svc groups.IGroupService, name string, numGroups int) {
	b.Helper()

	if err := svc.RegisterPrincipal("root", groups.PrincipalSpec{Privileged: true}); err != nil {
		b.Fatalf("RegisterPrincipal(root) failed: %v", err)
	}

	ids := make([]uint32, numGroups)
	for i := range ids {
		ids[i] = uint32(2 * (i + 1))
	}
	spec := groups.PrincipalSpec{GID: 1, EGID: 1, FSGID: 1, Groups: ids}
	if err := svc.RegisterPrincipal(name, spec); err != nil {
		b.Fatalf("RegisterPrincipal(%s) failed: %v", name, err)
	}
}

// Parallel benchmarking for the supplementary membership query (hit)
func benchmarkInGroup(b *testing.B, svc groups.IGroupService) {
	numGroups := 64
	seedPrincipal(b, svc, "bench", numGroups)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			group := uint32(2 * (counter%numGroups + 1))
			svc.InGroup("bench", group)
			counter++
		}
	})
}

// Parallel benchmarking for the supplementary membership query (miss)
func benchmarkInGroupMiss(b *testing.B, svc groups.IGroupService) {
	numGroups := 64
	seedPrincipal(b, svc, "bench", numGroups)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			// Odd identifiers are never members.
			group := uint32(2*(counter%numGroups) + 1)
			svc.InGroup("bench", group)
			counter++
		}
	})
}

// Parallel benchmarking for the effective-group fast path
func benchmarkInEffectiveGroup(b *testing.B, svc groups.IGroupService) {
	seedPrincipal(b, svc, "bench", 64)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			svc.InEffectiveGroup("bench", 1)
		}
	})
}

// Parallel benchmarking for exporting the full set
func benchmarkGetGroups(b *testing.B, svc groups.IGroupService) {
	numGroups := 64
	seedPrincipal(b, svc, "bench", numGroups)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			svc.GetGroups("bench", numGroups)
		}
	})
}

// Benchmark for replacing the set; writers are serialized per principal so
// parallelization is not meaningful here
func benchmarkSetGroups(b *testing.B, svc groups.IGroupService) {
	numGroups := 64
	seedPrincipal(b, svc, "bench", numGroups)

	ids := make([]uint32, numGroups)
	for i := range ids {
		ids[i] = uint32(2 * (i + 1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := svc.SetGroups("root", "bench", ids); err != nil {
			b.Fatalf("SetGroups failed: %v", err)
		}
	}
}

// Benchmark for mixed usage patterns: mostly queries, occasional replacement
func benchmarkMixedUsage(b *testing.B, svc groups.IGroupService) {
	numGroups := 64
	seedPrincipal(b, svc, "bench", numGroups)

	ids := make([]uint32, numGroups)
	for i := range ids {
		ids[i] = uint32(2 * (i + 1))
	}

	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

		for pb.Next() {
			n := atomic.AddInt64(&counter, 1)
			group := uint32(2 * (int(n)%numGroups + 1))

			// 90% point queries, 8% full exports, 2% replacements
			switch f := rnd.Float32(); {
			case f < .9:
				svc.InGroup("bench", group)
			case f < .98:
				svc.GetGroups("bench", numGroups)
			default:
				if err := svc.SetGroups("root", "bench", ids); err != nil {
					b.Errorf("SetGroups failed: %v", err)
					return
				}
			}
		}
	})
}
