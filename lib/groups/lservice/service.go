package lservice

import (
	"fmt"

	"github.com/ltessmer/credd/lib/cred"
	"github.com/ltessmer/credd/lib/groups"
	"github.com/ltessmer/credd/lib/groupset"
	"github.com/ltessmer/credd/lib/idmap"
)

// OverflowGID is the external identifier reported for internal identifiers
// that no longer translate under the active mapper.
const OverflowGID uint32 = 65534

// --------------------------------------------------------------------------
// Options and Construction
// --------------------------------------------------------------------------

// ServiceOptions configures the local service during initialization.
type ServiceOptions struct {
	// Mapper translates external identifiers (nil = identity).
	Mapper idmap.Mapper

	// MaxGroups caps the size of any installed set (0 = groupset.MaxGroups).
	MaxGroups int

	// RegistryOptions are passed through to the principal registry, e.g.
	// cred.WithMembershipOverride.
	RegistryOptions []cred.Option
}

// DefaultOptions returns the default local service options.
func DefaultOptions() *ServiceOptions {
	return &ServiceOptions{
		Mapper:    idmap.Identity(),
		MaxGroups: groupset.MaxGroups,
	}
}

type serviceImpl struct {
	registry  *cred.Registry
	mapper    idmap.Mapper
	maxGroups int
}

// NewLocalService creates a new in-process group service with the specified
// options (optional).
//
// Thread-safety: This function is not thread-safe and should only be called
// once during initialization; the returned service is fully concurrent.
func NewLocalService(opts *ServiceOptions) groups.IGroupService {
	if opts == nil {
		opts = DefaultOptions()
	}

	mapper := opts.Mapper
	if mapper == nil {
		mapper = idmap.Identity()
	}

	maxGroups := opts.MaxGroups
	if maxGroups <= 0 || maxGroups > groupset.MaxGroups {
		maxGroups = groupset.MaxGroups
	}

	return &serviceImpl{
		registry:  cred.NewRegistry(opts.RegistryOptions...),
		mapper:    mapper,
		maxGroups: maxGroups,
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// lookup resolves a principal name or fails with RetCUnknownPrincipal.
func (s *serviceImpl) lookup(name string) (*cred.Principal, error) {
	p, ok := s.registry.Lookup(name)
	if !ok {
		return nil, groups.NewError(groups.RetCUnknownPrincipal, fmt.Sprintf("no principal %q", name))
	}
	return p, nil
}

// buildSet translates and allocates the requested identifiers into a
// private, unsorted set. The caller owns the returned reference.
func (s *serviceImpl) buildSet(ids []uint32) (*groupset.Set, error) {
	if len(ids) > s.maxGroups {
		return nil, groups.NewError(groups.RetCInvalidArgument,
			fmt.Sprintf("%d groups exceed the configured maximum of %d", len(ids), s.maxGroups))
	}

	// Translate the whole request before allocating; any invalid
	// identifier rejects the operation.
	internal := make([]groupset.GID, len(ids))
	for i, ext := range ids {
		g, ok := s.mapper.ToInternal(ext)
		if !ok {
			return nil, groups.NewError(groups.RetCInvalidArgument,
				fmt.Sprintf("group %d does not translate", ext))
		}
		internal[i] = g
	}

	set, err := groupset.Alloc(len(ids))
	if err == groupset.ErrOutOfMemory {
		return nil, groups.NewError(groups.RetCOutOfMemory, "group set allocation failed")
	} else if err != nil {
		return nil, groups.NewError(groups.RetCInvalidArgument, err.Error())
	}

	set.Fill(internal)
	return set, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see groups/interface.go)
// --------------------------------------------------------------------------

func (s *serviceImpl) RegisterPrincipal(name string, spec groups.PrincipalSpec) error {
	set, err := s.buildSet(spec.Groups)
	if err != nil {
		return err
	}

	var caps cred.Capability
	if spec.Privileged {
		caps |= cred.CapSetGroups
	}

	translate := func(ext uint32) (groupset.GID, error) {
		g, ok := s.mapper.ToInternal(ext)
		if !ok {
			return 0, groups.NewError(groups.RetCInvalidArgument,
				fmt.Sprintf("group %d does not translate", ext))
		}
		return g, nil
	}

	c := cred.Credential{Caps: caps, Groups: set}
	if c.GID, err = translate(spec.GID); err == nil {
		if c.EGID, err = translate(spec.EGID); err == nil {
			c.FSGID, err = translate(spec.FSGID)
		}
	}
	if err != nil {
		set.Release()
		return err
	}

	if _, err := s.registry.Register(name, c); err != nil {
		// Register released the set on failure.
		return groups.NewError(groups.RetCInvalidArgument, err.Error())
	}
	return nil
}

func (s *serviceImpl) GetGroups(principal string, capacity int) ([]uint32, error) {
	if capacity < 0 {
		return nil, groups.NewError(groups.RetCInvalidArgument, "negative capacity")
	}

	p, err := s.lookup(principal)
	if err != nil {
		return nil, err
	}

	c := p.Current()
	defer c.Release()

	count := c.Groups.Count()

	// Zero capacity is a probe; CountGroups reports the size.
	if capacity == 0 {
		return []uint32{}, nil
	}
	if count > capacity {
		return nil, groups.NewError(groups.RetCBufferTooSmall,
			fmt.Sprintf("%d groups exceed caller capacity %d", count, capacity))
	}

	out := make([]uint32, count)
	for i := 0; i < count; i++ {
		ext, ok := s.mapper.ToExternal(c.Groups.At(i))
		if !ok {
			ext = OverflowGID
		}
		out[i] = ext
	}
	return out, nil
}

func (s *serviceImpl) CountGroups(principal string) (int, error) {
	p, err := s.lookup(principal)
	if err != nil {
		return 0, err
	}

	c := p.Current()
	defer c.Release()
	return c.Groups.Count(), nil
}

func (s *serviceImpl) SetGroups(caller, principal string, ids []uint32) error {
	callerP, err := s.lookup(caller)
	if err != nil {
		return err
	}

	target := callerP
	if principal != caller {
		if target, err = s.lookup(principal); err != nil {
			return err
		}
	}

	privileged := callerP.MaySetGroups()

	// Changing another principal's membership always needs the capability;
	// the subset rule only lets a principal narrow itself.
	if target != callerP && !privileged {
		return groups.NewError(groups.RetCPermissionDenied,
			fmt.Sprintf("%q may not modify groups of %q", caller, principal))
	}

	set, err := s.buildSet(ids)
	if err != nil {
		return err
	}
	defer set.Release()

	if err := target.SetGroups(set, privileged); err != nil {
		if err == cred.ErrPermissionDenied {
			return groups.NewError(groups.RetCPermissionDenied,
				"requested set is not a subset of the current groups")
		}
		return groups.NewError(groups.RetCInternalError, err.Error())
	}
	return nil
}

func (s *serviceImpl) MaySetGroups(principal string) (bool, error) {
	p, err := s.lookup(principal)
	if err != nil {
		return false, err
	}
	return p.MaySetGroups(), nil
}

func (s *serviceImpl) InGroup(principal string, group uint32) (bool, error) {
	p, err := s.lookup(principal)
	if err != nil {
		return false, err
	}

	g, ok := s.mapper.ToInternal(group)
	if !ok {
		// An identifier outside the namespace is a member of nothing.
		return false, nil
	}
	return p.InGroup(g), nil
}

func (s *serviceImpl) InEffectiveGroup(principal string, group uint32) (bool, error) {
	p, err := s.lookup(principal)
	if err != nil {
		return false, err
	}

	g, ok := s.mapper.ToInternal(group)
	if !ok {
		return false, nil
	}
	return p.InEffectiveGroup(g), nil
}
