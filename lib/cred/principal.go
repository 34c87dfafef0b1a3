package cred

import (
	"fmt"
	"sync"

	"github.com/ltessmer/credd/lib/groupset"
)

// --------------------------------------------------------------------------
// Principal
// --------------------------------------------------------------------------

// Principal is a named security subject. Its published credential is only
// ever replaced wholesale: readers take retained snapshots, writers go
// through the Update protocol.
type Principal struct {
	name     string
	registry *Registry

	// updateMu serializes updates to this principal from BeginUpdate until
	// Commit or Abort.
	updateMu sync.Mutex

	// pubMu guards the published pointer. Writers hold it exclusively only
	// for the pointer swap; readers hold it shared only long enough to
	// retain a snapshot.
	pubMu sync.RWMutex
	cred  Credential
}

// Name returns the principal's registered name.
func (p *Principal) Name() string {
	return p.name
}

// Current returns a retained snapshot of the published credential. The
// caller must call Release on the returned value when done. The snapshot's
// group set never changes, so it may be read without synchronization.
//
// Thread-safety: This method is thread-safe; it blocks only for the
// duration of a concurrent commit's pointer swap.
func (p *Principal) Current() Credential {
	p.pubMu.RLock()
	defer p.pubMu.RUnlock()
	return p.cred.retain()
}

// --------------------------------------------------------------------------
// Update Protocol
// --------------------------------------------------------------------------

// UpdateState tracks the lifecycle of one update attempt.
type UpdateState int

const (
	UpdatePrepared UpdateState = iota
	UpdateCommitted
	UpdateAborted
)

func (s UpdateState) String() string {
	switch s {
	case UpdatePrepared:
		return "Prepared"
	case UpdateCommitted:
		return "Committed"
	case UpdateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Update is a not-yet-visible working copy of a principal's credential.
// Exactly one of Commit or Abort must be called on every Update.
type Update struct {
	p       *Principal
	working Credential
	state   UpdateState
}

// BeginUpdate clones the current credential into a working copy and enters
// the Prepared state. The working copy shares the current group set by
// reference; concurrent readers keep seeing the published record. The
// principal's update mutex is held until Commit or Abort, serializing
// writers without ever blocking readers.
func (p *Principal) BeginUpdate() *Update {
	p.updateMu.Lock()

	p.pubMu.RLock()
	working := p.cred.retain()
	p.pubMu.RUnlock()

	return &Update{
		p:       p,
		working: working,
		state:   UpdatePrepared,
	}
}

// Working exposes the working copy for validation and mutation of the
// scalar identity fields. The group set is replaced via SetGroupSet, never
// mutated through this pointer.
func (u *Update) Working() *Credential {
	return &u.working
}

// SetGroupSet installs s as the working copy's group set, taking its own
// reference on s and dropping the working copy's previous one. s must
// already be sorted.
func (u *Update) SetGroupSet(s *groupset.Set) {
	if u.state != UpdatePrepared {
		panic(fmt.Sprintf("cred: SetGroupSet in state %s", u.state))
	}
	old := u.working.Groups
	u.working.Groups = s.Retain()
	old.Release()
}

// Commit atomically publishes the working copy as the principal's active
// credential. Readers in flight keep their retained reference to the prior
// record's group set; no reader ever observes a half-updated record.
func (u *Update) Commit() {
	if u.state != UpdatePrepared {
		panic(fmt.Sprintf("cred: Commit in state %s", u.state))
	}
	u.state = UpdateCommitted

	u.p.pubMu.Lock()
	old := u.p.cred
	u.p.cred = u.working
	u.p.pubMu.Unlock()

	// The prior record is no longer reachable through the principal; its
	// reference can be dropped outside the critical section.
	old.Release()

	u.p.updateMu.Unlock()
}

// Abort discards the working copy. Nothing becomes visible.
func (u *Update) Abort() {
	if u.state != UpdatePrepared {
		panic(fmt.Sprintf("cred: Abort in state %s", u.state))
	}
	u.state = UpdateAborted

	u.working.Release()
	u.p.updateMu.Unlock()
}

// --------------------------------------------------------------------------
// Group-Set Installation
// --------------------------------------------------------------------------

// SetGroups installs set as the principal's supplementary groups. The set
// is sorted first, so canonical order is an invariant of every published
// credential; this is the single path privileged and self-service updates
// share. The caller's reference on set is not consumed.
//
// Unprivileged updates must narrow membership: set has to be a subset of
// the current groups, checked against the same snapshot the working copy
// was built from. On failure nothing is installed and ErrPermissionDenied
// is returned.
//
// Thread-safety: This method is thread-safe; updates to the same principal
// are serialized.
func (p *Principal) SetGroups(set *groupset.Set, privileged bool) error {
	set.Sort()

	u := p.BeginUpdate()
	if !privileged && !set.IsSubset(u.Working().Groups) {
		u.Abort()
		return ErrPermissionDenied
	}

	u.SetGroupSet(set)
	u.Commit()
	return nil
}

// MaySetGroups reports whether the principal holds the privilege to
// install arbitrary group sets. Pure predicate, no side effect.
func (p *Principal) MaySetGroups() bool {
	c := p.Current()
	defer c.Release()
	return c.Has(CapSetGroups)
}

// --------------------------------------------------------------------------
// Membership Queries
// --------------------------------------------------------------------------

// InGroup reports whether g is the principal's filesystem group or a
// member of its supplementary set.
//
// Thread-safety: Safe to call concurrently with updates on this or any
// other principal; the query observes either the pre-update or the
// post-update set, never a mix.
func (p *Principal) InGroup(g groupset.GID) bool {
	return p.inGroup(g, func(c Credential) groupset.GID { return c.FSGID })
}

// InEffectiveGroup is InGroup with the effective group as the fast path.
func (p *Principal) InEffectiveGroup(g groupset.GID) bool {
	return p.inGroup(g, func(c Credential) groupset.GID { return c.EGID })
}

// inGroup implements both membership variants; fast reads the single-group
// field checked before the set search.
func (p *Principal) inGroup(g groupset.GID, fast func(Credential) groupset.GID) bool {
	if p.registry != nil && p.registry.override != nil {
		if decision, ok := p.registry.override(p.name, g); ok {
			return decision
		}
	}

	c := p.Current()
	defer c.Release()

	if fast(c) == g {
		return true
	}
	return c.Groups.Search(g)
}
