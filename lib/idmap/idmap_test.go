package idmap

import (
	"testing"

	"github.com/ltessmer/credd/lib/groupset"
)

func TestIdentity(t *testing.T) {
	m := Identity()

	for _, v := range []uint32{0, 1, 1000, 1<<32 - 1} {
		g, ok := m.ToInternal(v)
		if !ok || g != groupset.GID(v) {
			t.Errorf("ToInternal(%d) = (%d, %v)", v, g, ok)
		}
		e, ok := m.ToExternal(groupset.GID(v))
		if !ok || e != v {
			t.Errorf("ToExternal(%d) = (%d, %v)", v, e, ok)
		}
	}
}

func TestRange(t *testing.T) {
	// External 1000..1999 maps onto internal 100000..100999.
	m := NewRange(1000, 100000, 1000)

	g, ok := m.ToInternal(1000)
	if !ok || g != 100000 {
		t.Errorf("ToInternal(1000) = (%d, %v), want (100000, true)", g, ok)
	}

	g, ok = m.ToInternal(1999)
	if !ok || g != 100999 {
		t.Errorf("ToInternal(1999) = (%d, %v), want (100999, true)", g, ok)
	}

	if _, ok := m.ToInternal(999); ok {
		t.Error("ToInternal(999) should not translate")
	}
	if _, ok := m.ToInternal(2000); ok {
		t.Error("ToInternal(2000) should not translate")
	}

	e, ok := m.ToExternal(100500)
	if !ok || e != 1500 {
		t.Errorf("ToExternal(100500) = (%d, %v), want (1500, true)", e, ok)
	}

	if _, ok := m.ToExternal(99999); ok {
		t.Error("ToExternal(99999) should not translate")
	}
	if _, ok := m.ToExternal(101000); ok {
		t.Error("ToExternal(101000) should not translate")
	}
}

func TestRangeRoundTrip(t *testing.T) {
	m := NewRange(500, 0, 250)

	for ext := uint32(500); ext < 750; ext++ {
		g, ok := m.ToInternal(ext)
		if !ok {
			t.Fatalf("ToInternal(%d) failed", ext)
		}
		back, ok := m.ToExternal(g)
		if !ok || back != ext {
			t.Fatalf("round trip %d -> %d -> (%d, %v)", ext, g, back, ok)
		}
	}
}
