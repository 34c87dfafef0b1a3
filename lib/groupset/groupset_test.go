package groupset

import (
	"testing"
)

// TestAllocSizes tests allocation across the inline and block thresholds
func TestAllocSizes(t *testing.T) {
	sizes := []int{0, 1, SmallSetMax, SmallSetMax + 1, GroupsPerBlock, GroupsPerBlock + 1, 3*GroupsPerBlock + 7}

	for _, size := range sizes {
		s, err := Alloc(size)
		if err != nil {
			t.Fatalf("Alloc(%d) failed: %v", size, err)
		}

		if s.Count() != size {
			t.Errorf("Alloc(%d): Count() = %d", size, s.Count())
		}

		wantBlocks := (size + GroupsPerBlock - 1) / GroupsPerBlock
		if wantBlocks == 0 {
			wantBlocks = 1
		}
		if len(s.blocks) != wantBlocks {
			t.Errorf("Alloc(%d): %d blocks, want %d", size, len(s.blocks), wantBlocks)
		}

		// All slots must be readable and zero-initialized.
		for i := 0; i < size; i++ {
			if s.At(i) != 0 {
				t.Errorf("Alloc(%d): slot %d not zero", size, i)
				break
			}
		}

		if small := size <= SmallSetMax; small != s.inline() {
			t.Errorf("Alloc(%d): inline = %v, want %v", size, s.inline(), small)
		}

		s.Release()
	}
}

func TestAllocInvalidSize(t *testing.T) {
	if _, err := Alloc(-1); err != ErrInvalidArgument {
		t.Errorf("Alloc(-1) = %v, want ErrInvalidArgument", err)
	}
	if _, err := Alloc(MaxGroups + 1); err != ErrInvalidArgument {
		t.Errorf("Alloc(MaxGroups+1) = %v, want ErrInvalidArgument", err)
	}
}

// TestAllocBudgetRollback tests that a failed allocation releases every
// block it already took
func TestAllocBudgetRollback(t *testing.T) {
	// Three blocks needed, only two allowed.
	prev := SetBlockBudget(blocksInUse.Load() + 2)
	defer SetBlockBudget(prev)

	before := blocksInUse.Load()

	_, err := Alloc(3 * GroupsPerBlock)
	if err != ErrOutOfMemory {
		t.Fatalf("Alloc over budget = %v, want ErrOutOfMemory", err)
	}

	if after := blocksInUse.Load(); after != before {
		t.Errorf("blocks leaked by failed Alloc: before=%d after=%d", before, after)
	}

	// The inline path is not affected by the block budget.
	s, err := Alloc(SmallSetMax)
	if err != nil {
		t.Fatalf("inline Alloc under exhausted budget failed: %v", err)
	}
	s.Release()
}

func TestRetainRelease(t *testing.T) {
	s, err := Alloc(GroupsPerBlock + 1)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}

	if s.Refs() != 1 {
		t.Errorf("fresh set Refs() = %d, want 1", s.Refs())
	}

	s.Retain()
	if s.Refs() != 2 {
		t.Errorf("after Retain Refs() = %d, want 2", s.Refs())
	}

	before := blocksInUse.Load()
	s.Release()
	if blocksInUse.Load() != before {
		t.Error("Release with remaining references freed blocks")
	}

	s.Release()
	if got := blocksInUse.Load(); got != before-2 {
		t.Errorf("final Release did not free blocks: in use %d, want %d", got, before-2)
	}
}

func TestNilSetIsEmpty(t *testing.T) {
	var s *Set
	if s.Count() != 0 {
		t.Errorf("nil Count() = %d", s.Count())
	}
	if s.Search(42) {
		t.Error("nil Search() = true")
	}
	s.Release() // must not panic
}

func TestFillAndAppendTo(t *testing.T) {
	s, err := Alloc(4)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	defer s.Release()

	s.Fill([]GID{40, 10, 30, 20})

	got := s.AppendTo(nil)
	want := []GID{40, 10, 30, 20}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AppendTo = %v, want %v", got, want)
		}
	}
}

// TestIndexAddressing tests the flat-index to block/offset mapping across
// block boundaries
func TestIndexAddressing(t *testing.T) {
	size := 2*GroupsPerBlock + 5
	s, err := Alloc(size)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	defer s.Release()

	for i := 0; i < size; i++ {
		s.SetAt(i, GID(i*7))
	}
	for i := 0; i < size; i++ {
		if s.At(i) != GID(i*7) {
			t.Fatalf("At(%d) = %d, want %d", i, s.At(i), i*7)
		}
	}
}
