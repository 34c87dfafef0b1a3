package groupset

import (
	"errors"
	"sync"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Constants and Errors
// --------------------------------------------------------------------------

// GID is an internal group identifier. It is an opaque comparable value;
// translation from external identifiers is the job of the idmap package.
type GID uint32

const (
	// GroupsPerBlock is the fixed capacity of one backing block.
	GroupsPerBlock = 1024

	// SmallSetMax is the largest count stored in the inline block.
	SmallSetMax = 32

	// MaxGroups is the largest supported set size.
	MaxGroups = 65536
)

var (
	// ErrInvalidArgument is returned for a negative or over-limit size.
	ErrInvalidArgument = errors.New("groupset: invalid size")

	// ErrOutOfMemory is returned when the block budget is exhausted.
	// No blocks of the failed allocation are retained.
	ErrOutOfMemory = errors.New("groupset: out of memory")
)

// --------------------------------------------------------------------------
// Block Pool and Budget
// --------------------------------------------------------------------------

// blockPool recycles backing blocks between sets. Pooled blocks always have
// capacity GroupsPerBlock.
var blockPool = sync.Pool{
	New: func() interface{} {
		return make([]GID, GroupsPerBlock)
	},
}

// blocksInUse tracks the number of blocks currently handed out; blockBudget
// is the maximum allowed (negative = unlimited).
var (
	blocksInUse atomic.Int64
	blockBudget atomic.Int64
)

func init() {
	blockBudget.Store(-1)
}

// SetBlockBudget bounds the number of blocks the package may hand out at any
// one time. A negative value removes the bound. Returns the previous budget.
//
// Thread-safety: This function is thread-safe, but changing the budget while
// allocations are in flight only affects subsequent block requests.
func SetBlockBudget(n int64) int64 {
	return blockBudget.Swap(n)
}

// takeBlock acquires one block, honoring the budget.
func takeBlock() ([]GID, error) {
	budget := blockBudget.Load()
	if budget >= 0 && blocksInUse.Add(1) > budget {
		blocksInUse.Add(-1)
		return nil, ErrOutOfMemory
	} else if budget < 0 {
		blocksInUse.Add(1)
	}
	return blockPool.Get().([]GID), nil
}

// putBlock returns a block to the pool.
func putBlock(b []GID) {
	blocksInUse.Add(-1)
	blockPool.Put(b) //nolint:staticcheck // slice header allocation is amortized by reuse
}

// --------------------------------------------------------------------------
// Set Type
// --------------------------------------------------------------------------

// Set is a reference-counted container for group identifiers. See the
// package documentation for the ownership and publication rules.
type Set struct {
	count  int
	blocks [][]GID
	small  [SmallSetMax]GID
	usage  atomic.Int64
}

// Alloc creates a Set with room for size identifiers and one reference.
// All slots are zero-initialized. Fails with ErrInvalidArgument for a
// negative or over-MaxGroups size and with ErrOutOfMemory when the block
// budget is exhausted; in the latter case every block already taken for
// this call is returned first, so a failed Alloc has no observable effect.
func Alloc(size int) (*Set, error) {
	if size < 0 || size > MaxGroups {
		return nil, ErrInvalidArgument
	}

	// Always reserve at least one block slot, even for size 0.
	nblocks := (size + GroupsPerBlock - 1) / GroupsPerBlock
	if nblocks == 0 {
		nblocks = 1
	}

	s := &Set{
		count:  size,
		blocks: make([][]GID, nblocks),
	}
	s.usage.Store(1)

	if size <= SmallSetMax {
		// Inline fast path: the single block lives in the container.
		s.blocks[0] = s.small[:]
		return s, nil
	}

	for i := 0; i < nblocks; i++ {
		b, err := takeBlock()
		if err != nil {
			// Undo the partial allocation.
			for j := i - 1; j >= 0; j-- {
				putBlock(s.blocks[j])
				s.blocks[j] = nil
			}
			return nil, ErrOutOfMemory
		}
		// Reset recycled block contents.
		for j := range b {
			b[j] = 0
		}
		s.blocks[i] = b
	}
	return s, nil
}

// Retain increments the reference count and returns the same Set, giving
// the caller an additional owning handle to the shared data.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Set) Retain() *Set {
	s.usage.Add(1)
	return s
}

// Release drops one reference. When the last reference is released, the
// backing blocks are returned to the block pool (the inline block is part
// of the container and skipped) and the Set must not be used again.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Set) Release() {
	if s == nil {
		return
	}
	if s.usage.Add(-1) != 0 {
		return
	}
	if !s.inline() {
		for i, b := range s.blocks {
			putBlock(b)
			s.blocks[i] = nil
		}
	}
}

// inline reports whether the set uses the container-embedded block.
func (s *Set) inline() bool {
	return len(s.blocks) > 0 && &s.blocks[0][0] == &s.small[0]
}

// Count returns the number of identifiers in the set. A nil Set is empty.
func (s *Set) Count() int {
	if s == nil {
		return 0
	}
	return s.count
}

// Refs returns the current reference count. Intended for tests and
// introspection, not for synchronization decisions.
func (s *Set) Refs() int64 {
	return s.usage.Load()
}

// At returns the identifier at flat index i.
func (s *Set) At(i int) GID {
	return s.blocks[i/GroupsPerBlock][i%GroupsPerBlock]
}

// SetAt stores g at flat index i. Must only be called before the set is
// published; published sets are immutable.
func (s *Set) SetAt(i int, g GID) {
	s.blocks[i/GroupsPerBlock][i%GroupsPerBlock] = g
}

// Fill copies the given identifiers into the set starting at index 0.
// The slice must hold exactly Count identifiers. Must only be called
// before publication.
func (s *Set) Fill(ids []GID) {
	for i, g := range ids {
		s.SetAt(i, g)
	}
}

// AppendTo appends all identifiers in order to dst and returns the result.
//
// Thread-safety: Safe on published sets; contents never change.
func (s *Set) AppendTo(dst []GID) []GID {
	for i := 0; i < s.Count(); i++ {
		dst = append(dst, s.At(i))
	}
	return dst
}
