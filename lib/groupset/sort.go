package groupset

// --------------------------------------------------------------------------
// Ordering & Search Algorithms
// --------------------------------------------------------------------------

// Sort arranges the identifiers in ascending order, in place and without
// extra allocation. Duplicates are preserved. Sorting an already-sorted set
// is a no-op permutation, so Sort is idempotent.
//
// A shell sort with the 3h+1 gap sequence keeps the average case at
// O(n log n) while degrading gracefully on nearly-sorted and duplicate-heavy
// inputs.
//
// Thread-safety: Must only be called before the set is published, while the
// caller exclusively owns it.
func (s *Set) Sort() {
	n := s.Count()

	gap := 1
	for gap < n {
		gap = 3*gap + 1
	}
	gap /= 3

	for gap > 0 {
		max := n - gap
		for base := 0; base < max; base++ {
			left := base
			right := left + gap
			tmp := s.At(right)

			for left >= 0 && s.At(left) > tmp {
				s.SetAt(right, s.At(left))
				right = left
				left -= gap
			}
			s.SetAt(right, tmp)
		}
		gap /= 3
	}
}

// Search reports whether g is present in the sorted set via binary search.
// A nil or empty set yields false.
//
// Thread-safety: Safe on published sets; contents never change.
func (s *Set) Search(g GID) bool {
	if s == nil {
		return false
	}

	left, right := 0, s.count
	for left < right {
		mid := (left + right) / 2
		switch v := s.At(mid); {
		case g > v:
			left = mid + 1
		case g < v:
			right = mid
		default:
			return true
		}
	}
	return false
}

// IsSubset reports whether every identifier in s also appears in other.
// Both sets must already be sorted. The comparison is a single forward
// co-scan of both sequences: for each element of s the cursor in other
// advances to the first element greater than or equal to it and subset
// holds only on exact equality there. The cursor never moves backward, so
// the scan is O(|s|+|other|).
//
// An empty s is a subset of anything; an empty other contains only the
// empty set.
//
// Thread-safety: Safe on published sets; contents never change.
func (s *Set) IsSubset(other *Set) bool {
	n, m := s.Count(), other.Count()

	j := 0
	for i := 0; i < n; i++ {
		g := s.At(i)
		for j < m && other.At(j) < g {
			j++
		}
		if j >= m || other.At(j) != g {
			return false
		}
		// The cursor stays on the match so that repeated identifiers in s
		// are satisfied by a single occurrence in other.
	}
	return true
}
