package groups

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// PrincipalSpec describes a principal at registration time. Identifiers are
// external values; the service translates them through its mapper.
type PrincipalSpec struct {
	// GID is the real group; EGID and FSGID default to GID when zero-valued
	// semantics are not wanted the caller sets them explicitly.
	GID   uint32 `json:"gid"`
	EGID  uint32 `json:"egid"`
	FSGID uint32 `json:"fsgid"`

	// Privileged grants the set-groups capability.
	Privileged bool `json:"privileged"`

	// Groups is the initial supplementary set, in any order.
	Groups []uint32 `json:"groups"`
}

// IGroupService is the interface for supplementary group membership
// management. All methods return a *Error (as error) on failure.
type IGroupService interface {
	// RegisterPrincipal creates a principal from the given spec.
	// Fails with RetCInvalidArgument if the name is taken, a group does not
	// translate or the initial set is oversized.
	RegisterPrincipal(name string, spec PrincipalSpec) (err error)

	// GetGroups returns the principal's current supplementary groups in
	// canonical order, as external identifiers. capacity is the caller's
	// output limit: negative fails with RetCInvalidArgument, zero returns
	// an empty slice (count-only probes use CountGroups), and a positive
	// capacity smaller than the actual count fails with RetCBufferTooSmall
	// without any partial output.
	GetGroups(principal string, capacity int) (groups []uint32, err error)

	// CountGroups returns the number of supplementary groups.
	CountGroups(principal string) (n int, err error)

	// SetGroups atomically replaces the target principal's supplementary
	// set with the requested identifiers (any order, duplicates allowed).
	// caller names the requesting principal. Fails with
	// RetCInvalidArgument for oversized sets or untranslatable
	// identifiers, RetCPermissionDenied when the caller is neither
	// privileged nor narrowing its own membership, and RetCOutOfMemory on
	// allocation failure. On any failure nothing is installed.
	SetGroups(caller, principal string, groups []uint32) (err error)

	// MaySetGroups reports whether the principal may install arbitrary
	// group sets. Pure predicate, no side effect.
	MaySetGroups(principal string) (ok bool, err error)

	// InGroup reports whether group is the principal's filesystem group or
	// a member of its supplementary set.
	InGroup(principal string, group uint32) (ok bool, err error)

	// InEffectiveGroup is InGroup with the effective group fast path.
	InEffectiveGroup(principal string, group uint32) (ok bool, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is the service error type wrapping a return code and a message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("GroupServiceError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// CodeOf extracts the return code from an error. Non-service errors map to
// RetCInternalError; nil maps to RetCSuccess.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return RetCInternalError
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess          RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                   // 1: Operation failed due to an internal error.
	RetCInvalidArgument                 // 2: Malformed size, oversized set or untranslatable identifier.
	RetCOutOfMemory                     // 3: Block allocation failed.
	RetCPermissionDenied                // 4: Caller not authorized for the requested change.
	RetCBufferTooSmall                  // 5: Caller capacity smaller than the result.
	RetCUnknownPrincipal                // 6: No principal registered under the given name.
	RetCTransferFault                   // 7: Boundary marshalling failure (RPC layer).
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCInvalidArgument:
		return "InvalidArgument"
	case RetCOutOfMemory:
		return "OutOfMemory"
	case RetCPermissionDenied:
		return "PermissionDenied"
	case RetCBufferTooSmall:
		return "BufferTooSmall"
	case RetCUnknownPrincipal:
		return "UnknownPrincipal"
	case RetCTransferFault:
		return "TransferFault"
	default:
		return "Unknown"
	}
}
