// Package idmap translates between external group identifiers (the values a
// caller submits over the API boundary) and the internal identifiers stored
// in a groupset.Set.
//
// Translation is an external collaborator of the membership core: the group
// service maps every submitted identifier before building a set, and maps
// back when exporting one. A failed translation of any identifier rejects
// the whole operation; a partially translated set is never installed.
//
// Two mappers are provided:
//
//   - Identity: the internal value equals the external value. Suitable for
//     single-namespace deployments.
//
//   - Range: a contiguous window mapping [extBase, extBase+length) onto
//     [intBase, intBase+length), in the style of user-namespace ID ranges.
//     Identifiers outside the window do not translate.
//
// All mappers are immutable after construction and therefore safe for
// concurrent use without synchronization.
package idmap
