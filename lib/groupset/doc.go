// Package groupset implements the core storage container for supplementary
// group identifiers: a block-allocated, reference-counted set that is sorted
// into canonical order before publication and immutable afterwards.
//
// The package focuses on:
//   - Block-based allocation that scales from empty sets to MaxGroups entries
//     without a single large contiguous allocation
//   - An inline fast path for small sets (at or below SmallSetMax) that avoids
//     any per-block allocation
//   - Atomic reference counting for safe cross-owner sharing
//   - A sort/search/subset algorithm suite operating on the canonical order
//
// Key Components:
//
//   - Set: The container itself. A Set is created with Alloc, filled with
//     SetAt or Fill, sorted once with Sort and then published by attaching it
//     to a credential record. After publication the contents must never be
//     mutated; any change produces a new Set.
//
//   - Reference Counting: Retain and Release manage shared ownership. A Set
//     starts with one reference. When the last reference is released, all
//     backing blocks are returned to an internal block pool (the inline block
//     is part of the container and is not pooled).
//
//   - Block Budget: SetBlockBudget bounds the number of blocks the package
//     may hand out at any one time. Alloc fails with ErrOutOfMemory when the
//     budget is exhausted, releasing every block it already took for the
//     failed call. Partial allocations are never observable.
//
// Concurrency Model:
//
//	A Set is exclusively owned between Alloc and publication; Sort, SetAt and
//	Fill must only be called during this window and need no synchronization.
//	Once published, any number of goroutines may call Count, At, Search and
//	IsSubset concurrently without locking because the contents never change.
//	Retain and Release are safe from any goroutine at any time.
//
// Ordering:
//
//	Sort arranges identifiers in ascending order. Duplicates are preserved;
//	Search and IsSubset only require a total order, not distinct elements.
//	Search runs in O(log n), IsSubset in O(|a|+|b|) via a single forward scan
//	of both sequences.
package groupset
