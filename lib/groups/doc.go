// Package groups defines the validated group membership service interface
// and its error model. It is the boundary the rest of the system calls to
// query and replace supplementary group sets; the concurrency-safe
// mechanics live underneath in the cred and groupset packages.
//
// Key Components:
//
//   - IGroupService: The service interface. Implementations exist for
//     in-process use (lservice) and for remote access over RPC (rpc/client).
//
//   - Error / RetCode: The typed error model. Every failure carries a
//     return code so callers - and the RPC layer - can distinguish invalid
//     arguments, permission denials, resource exhaustion, undersized output
//     buffers, unknown principals and transfer faults without string
//     matching.
//
// Semantics (identical across implementations):
//
//   - SetGroups is all-or-nothing. Identifier translation, size validation
//     and authorization all happen before anything becomes visible; on any
//     failure the principal's active group set is untouched.
//
//   - Authorization: a caller holding the set-groups capability may install
//     any set on the target principal. Otherwise the request must name the
//     caller itself and be a subset of the caller's current set.
//
//   - GetGroups never writes a partial result: if the caller's capacity is
//     smaller than the actual count it fails with RetCBufferTooSmall.
//
// The testing subpackage provides a reusable conformance suite; lservice
// provides the local implementation.
package groups
