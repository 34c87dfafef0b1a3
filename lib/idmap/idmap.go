package idmap

import (
	"github.com/ltessmer/credd/lib/groupset"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Mapper translates between external and internal group identifiers.
// The boolean return reports whether the identifier translates at all;
// callers must treat false as an invalid-argument condition.
type Mapper interface {
	// ToInternal maps an external identifier to its internal representation.
	ToInternal(ext uint32) (groupset.GID, bool)
	// ToExternal maps an internal identifier back to its external form.
	ToExternal(g groupset.GID) (uint32, bool)
}

// --------------------------------------------------------------------------
// Identity Mapper
// --------------------------------------------------------------------------

type identityImpl struct{}

// Identity returns a Mapper under which every identifier maps to itself.
func Identity() Mapper {
	return identityImpl{}
}

func (identityImpl) ToInternal(ext uint32) (groupset.GID, bool) {
	return groupset.GID(ext), true
}

func (identityImpl) ToExternal(g groupset.GID) (uint32, bool) {
	return uint32(g), true
}

// --------------------------------------------------------------------------
// Range Mapper
// --------------------------------------------------------------------------

type rangeImpl struct {
	extBase uint32
	intBase uint32
	length  uint32
}

// NewRange returns a Mapper translating the contiguous external window
// [extBase, extBase+length) onto the internal window [intBase,
// intBase+length). Identifiers outside the window do not translate.
func NewRange(extBase, intBase, length uint32) Mapper {
	return &rangeImpl{
		extBase: extBase,
		intBase: intBase,
		length:  length,
	}
}

func (m *rangeImpl) ToInternal(ext uint32) (groupset.GID, bool) {
	if ext < m.extBase || ext-m.extBase >= m.length {
		return 0, false
	}
	return groupset.GID(m.intBase + (ext - m.extBase)), true
}

func (m *rangeImpl) ToExternal(g groupset.GID) (uint32, bool) {
	v := uint32(g)
	if v < m.intBase || v-m.intBase >= m.length {
		return 0, false
	}
	return m.extBase + (v - m.intBase), true
}
