package cred

import (
	"errors"

	"github.com/ltessmer/credd/lib/groupset"
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrPermissionDenied is returned when an unprivileged update attempts
	// to install a group set that is not a subset of the current one.
	ErrPermissionDenied = errors.New("cred: permission denied")

	// ErrExists is returned when registering a principal name twice.
	ErrExists = errors.New("cred: principal already registered")

	// ErrUnknownPrincipal is returned for lookups of unregistered names.
	ErrUnknownPrincipal = errors.New("cred: unknown principal")
)

// --------------------------------------------------------------------------
// Capabilities
// --------------------------------------------------------------------------

// Capability is a bitmask of privileges attached to a credential.
type Capability uint64

const (
	// CapSetGroups authorizes arbitrary group-set replacement, the
	// equivalent of the "modify groups" privilege. Without it a principal
	// may only narrow its own membership.
	CapSetGroups Capability = 1 << iota
)

// --------------------------------------------------------------------------
// Credential Record
// --------------------------------------------------------------------------

// Credential is a principal's identity record. Once published through a
// Principal it is immutable; every change is made on a clone that replaces
// the record wholesale. The Groups pointer is shared by reference counting.
type Credential struct {
	// GID is the real group, EGID the effective group and FSGID the group
	// used for filesystem-style access decisions. InGroup checks FSGID
	// first, InEffectiveGroup checks EGID first.
	GID   groupset.GID
	EGID  groupset.GID
	FSGID groupset.GID

	// Caps holds the credential's privileges.
	Caps Capability

	// Groups is the supplementary group set, always in canonical sorted
	// order for any published credential.
	Groups *groupset.Set
}

// Has reports whether the credential carries the given capability.
func (c Credential) Has(cap Capability) bool {
	return c.Caps&cap == cap
}

// retain takes an additional reference on the credential's group set and
// returns the (value) copy that owns it.
func (c Credential) retain() Credential {
	if c.Groups != nil {
		c.Groups.Retain()
	}
	return c
}

// Release drops the credential's reference on its group set. Only call on
// credentials obtained from Principal.Current or Update snapshots.
func (c Credential) Release() {
	c.Groups.Release()
}
