// Package cred manages per-principal credential records and the protocol
// for replacing a principal's supplementary group set without disturbing
// concurrent readers.
//
// The package focuses on:
//   - Immutable, copy-on-write credential records (Credential)
//   - Named principals whose published credential is replaced wholesale by
//     a single pointer swap (Principal)
//   - A prepare/validate/commit-or-abort update protocol (Update)
//   - Membership queries with the single-group fast path (InGroup,
//     InEffectiveGroup)
//   - A concurrent registry of principals backed by xsync.MapOf (Registry)
//
// Update Protocol:
//
//	An update moves through Prepared -> Committed or Prepared -> Aborted.
//	BeginUpdate clones the principal's current credential into a working
//	copy that is invisible to every other operation; the clone shares the
//	current group set by reference (retained, never copied). The caller
//	validates against the working copy - the same snapshot the clone was
//	built from, which closes the window where a concurrent mutation could
//	be approved against stale data - and then either commits, atomically
//	publishing the working copy, or aborts, discarding it. Neither path
//	ever exposes an intermediate state.
//
// Concurrency Model:
//
//	Group sets are immutable once published, so readers traverse them
//	without synchronization. Obtaining a retained snapshot of the published
//	credential is guarded by a read lock that a committing writer holds
//	only for the duration of the pointer swap; no lock is ever held across
//	sort, search or subset work. Writers to the same principal are
//	serialized by a per-principal update mutex held from BeginUpdate to
//	Commit or Abort. Queries against one principal are unaffected by
//	commits on any other.
//
// Membership Overrides:
//
//	Platform policy that grants or denies membership outside the group set
//	(the original system carried ad hoc special cases of this kind) plugs
//	in as a MembershipOverride on the Registry. The core never hard-codes
//	specific group identifiers.
package cred
