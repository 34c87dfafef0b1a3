// Package lservice implements groups.IGroupService for in-process use. It
// composes a cred.Registry (principal records and the copy-on-write update
// protocol) with an idmap.Mapper (external/internal identifier translation)
// and enforces the service-level validation rules: size limits, whole-set
// translation, and the capability-or-subset authorization policy.
//
// Implementation Details:
//
//   - Translation happens before allocation, allocation before
//     authorization; a failure at any step leaves the target principal
//     untouched. The requested set is built privately, sorted by the
//     install path and only then swapped in.
//
//   - Exporting groups munges internal identifiers that no longer
//     translate (for example after the mapper changed) to OverflowGID
//     rather than failing the whole query.
//
//   - A zero capacity passed to GetGroups is a probe: it succeeds with an
//     empty result regardless of the actual count. CountGroups is the
//     explicit way to size a buffer.
//
// Thread Safety:
//
//	All methods are safe for concurrent use. The heavy lifting is done on
//	private or immutable data; see the cred package for the reader/writer
//	discipline.
package lservice
