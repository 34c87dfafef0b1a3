package cred

import (
	"github.com/ltessmer/credd/lib/groupset"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Membership Override Hook
// --------------------------------------------------------------------------

// MembershipOverride is a pluggable policy hook consulted before the group
// set is searched. Returning ok=false defers to the normal membership
// logic; ok=true makes decision the final answer for this query.
type MembershipOverride func(principal string, g groupset.GID) (decision bool, ok bool)

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// Registry is a concurrent collection of principals keyed by name.
type Registry struct {
	principals *xsync.MapOf[string, *Principal]
	override   MembershipOverride
}

// Option configures a Registry during construction.
type Option func(*Registry)

// WithMembershipOverride installs a policy hook consulted by every
// membership query on principals of this registry.
func WithMembershipOverride(f MembershipOverride) Option {
	return func(r *Registry) {
		r.override = f
	}
}

// NewRegistry creates an empty principal registry.
//
// Thread-safety: The returned registry is safe for concurrent use.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		principals: xsync.NewMapOf[string, *Principal](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates a principal with the given initial credential. The
// registry takes over the caller's reference on c.Groups; a nil Groups
// field is replaced by an empty set. The initial set is sorted so the
// canonical-order invariant holds from the first published record.
// Fails with ErrExists if the name is taken.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *Registry) Register(name string, c Credential) (*Principal, error) {
	if c.Groups == nil {
		s, err := groupset.Alloc(0)
		if err != nil {
			return nil, err
		}
		c.Groups = s
	}
	c.Groups.Sort()

	p := &Principal{
		name:     name,
		registry: r,
		cred:     c,
	}

	if _, loaded := r.principals.LoadOrStore(name, p); loaded {
		c.Release()
		return nil, ErrExists
	}
	return p, nil
}

// Lookup returns the principal registered under name.
func (r *Registry) Lookup(name string) (*Principal, bool) {
	return r.principals.Load(name)
}

// Unregister removes a principal and drops the registry's reference on its
// group set. Snapshots already taken stay valid until released.
func (r *Registry) Unregister(name string) bool {
	p, ok := r.principals.LoadAndDelete(name)
	if !ok {
		return false
	}

	p.pubMu.Lock()
	c := p.cred
	p.cred = Credential{}
	p.pubMu.Unlock()

	c.Release()
	return true
}

// Range calls f for every registered principal until f returns false.
func (r *Registry) Range(f func(name string, p *Principal) bool) {
	r.principals.Range(f)
}

// Size returns the number of registered principals.
func (r *Registry) Size() int {
	return r.principals.Size()
}
