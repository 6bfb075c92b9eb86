package registry

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/pkg/celx"
)

// ScopeKind classifies a scope name against the registry.
type ScopeKind int

const (
	ScopeUnknown ScopeKind = iota
	ScopeIdentity
	ScopeAPI
)

// Collision records a scope name defined both as an identity resource and
// as an API scope. The identity resource wins.
type Collision struct {
	Scope       string
	ApiResource string
}

// Snapshot is one complete, immutable generation of the registry. All
// accessors return copies.
type Snapshot struct {
	generation uint64
	loadedAt   time.Time

	clients           map[string]domain.Client
	apiResources      map[string]domain.ApiResource
	identityResources map[string]domain.IdentityResource

	apiScopeOwner map[string]string // api scope name -> ApiResource name
	conditions    map[string]*celx.Condition
	origins       map[string]struct{}
	collisions    []Collision
}

// Build validates the triple and returns a snapshot. All problems found are
// reported together; errors.Is matches each category.
func Build(
	clients []domain.Client,
	apiResources []domain.ApiResource,
	identityResources []domain.IdentityResource,
) (*Snapshot, error) {
	s := &Snapshot{
		clients:           make(map[string]domain.Client, len(clients)),
		apiResources:      make(map[string]domain.ApiResource, len(apiResources)),
		identityResources: make(map[string]domain.IdentityResource, len(identityResources)),
		apiScopeOwner:     make(map[string]string),
		conditions:        make(map[string]*celx.Condition),
		origins:           make(map[string]struct{}),
	}

	var errs []error

	for _, r := range identityResources {
		if msg := structErrors(r); msg != "" {
			errs = append(errs, fmt.Errorf("%w: identity resource %q: %s", ErrInvalidResource, r.Name, msg))
			continue
		}
		if _, dup := s.identityResources[r.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: identity resource %q", ErrDuplicateIdentifier, r.Name))
			continue
		}
		if r.Name == domain.ScopeOfflineAccess {
			errs = append(errs, fmt.Errorf("%w: %q is reserved", ErrInvalidResource, r.Name))
			continue
		}
		s.identityResources[r.Name] = r.Clone()
	}

	for _, r := range apiResources {
		if msg := structErrors(r); msg != "" {
			errs = append(errs, fmt.Errorf("%w: api resource %q: %s", ErrInvalidResource, r.Name, msg))
			continue
		}
		if _, dup := s.apiResources[r.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: api resource %q", ErrDuplicateIdentifier, r.Name))
			continue
		}
		s.apiResources[r.Name] = r.Clone()

		for _, scope := range r.ScopeNames() {
			if scope == domain.ScopeOfflineAccess {
				errs = append(errs, fmt.Errorf("%w: api resource %q: scope %q is reserved", ErrInvalidResource, r.Name, scope))
				continue
			}
			if owner, dup := s.apiScopeOwner[scope]; dup {
				errs = append(errs, fmt.Errorf("%w: api scope %q declared by %q and %q", ErrDuplicateIdentifier, scope, owner, r.Name))
				continue
			}
			s.apiScopeOwner[scope] = r.Name
			if _, clash := s.identityResources[scope]; clash {
				s.collisions = append(s.collisions, Collision{Scope: scope, ApiResource: r.Name})
			}
		}
	}

	for _, c := range clients {
		if _, dup := s.clients[c.ID]; dup && c.ID != "" {
			errs = append(errs, fmt.Errorf("%w: client %q", ErrDuplicateIdentifier, c.ID))
			continue
		}

		clientErrs := validateClient(c)
		for _, scope := range c.AllowedScopes {
			if s.Kind(scope) == ScopeUnknown {
				hint := ""
				if scope == domain.ScopeOfflineAccess {
					hint = " (use allow_offline_access instead)"
				}
				clientErrs = append(clientErrs, fmt.Errorf("%w: client %q references %q%s", ErrUnknownScopeReference, c.ID, scope, hint))
			}
		}

		if expr := strings.TrimSpace(c.AccessCondition); expr != "" {
			cond, err := celx.Compile(expr)
			if err != nil {
				clientErrs = append(clientErrs, fmt.Errorf("%w: client %q: access condition: %w", ErrInvalidClientConfiguration, c.ID, err))
			} else {
				s.conditions[c.ID] = cond
			}
		}

		if len(clientErrs) > 0 {
			errs = append(errs, clientErrs...)
			continue
		}

		s.clients[c.ID] = c.Clone()
		if c.Enabled {
			for _, o := range c.AllowedCORSOrigins {
				s.origins[normalizeOrigin(o)] = struct{}{}
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

func (s *Snapshot) Generation() uint64 { return s.generation }
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }
func (s *Snapshot) Collisions() []Collision { return slices.Clone(s.collisions) }

// Kind classifies a scope name. A name registered both as an identity
// resource and an API scope resolves to the identity resource.
func (s *Snapshot) Kind(scope string) ScopeKind {
	if _, ok := s.identityResources[scope]; ok {
		return ScopeIdentity
	}
	if _, ok := s.apiScopeOwner[scope]; ok {
		return ScopeAPI
	}
	return ScopeUnknown
}

func (s *Snapshot) Client(id string) (domain.Client, error) {
	c, ok := s.clients[id]
	if !ok {
		return domain.Client{}, fmt.Errorf("%w: client %q", ErrNotFound, id)
	}
	return c.Clone(), nil
}

func (s *Snapshot) ApiResource(name string) (domain.ApiResource, error) {
	r, ok := s.apiResources[name]
	if !ok {
		return domain.ApiResource{}, fmt.Errorf("%w: api resource %q", ErrNotFound, name)
	}
	return r.Clone(), nil
}

func (s *Snapshot) IdentityResource(name string) (domain.IdentityResource, error) {
	r, ok := s.identityResources[name]
	if !ok {
		return domain.IdentityResource{}, fmt.Errorf("%w: identity resource %q", ErrNotFound, name)
	}
	return r.Clone(), nil
}

// ApiResourceForScope returns the ApiResource owning an API scope name.
func (s *Snapshot) ApiResourceForScope(scope string) (domain.ApiResource, error) {
	owner, ok := s.apiScopeOwner[scope]
	if !ok {
		return domain.ApiResource{}, fmt.Errorf("%w: api scope %q", ErrNotFound, scope)
	}
	return s.ApiResource(owner)
}

// Condition returns the compiled access condition for a client, or nil.
func (s *Snapshot) Condition(clientID string) *celx.Condition {
	return s.conditions[clientID]
}

// Clients returns all clients ordered by id.
func (s *Snapshot) Clients() []domain.Client {
	out := make([]domain.Client, 0, len(s.clients))
	for _, id := range sortedKeys(s.clients) {
		out = append(out, s.clients[id].Clone())
	}
	return out
}

// ScopeNames returns every grantable scope name, identity and API.
func (s *Snapshot) ScopeNames() []string {
	names := make([]string, 0, len(s.identityResources)+len(s.apiScopeOwner))
	names = append(names, sortedKeys(s.identityResources)...)
	for _, name := range sortedKeys(s.apiScopeOwner) {
		if _, clash := s.identityResources[name]; !clash {
			names = append(names, name)
		}
	}
	return names
}

// IsOriginAllowed reports whether any enabled client lists origin as an
// allowed CORS origin. Scheme and host compare case-insensitively.
func (s *Snapshot) IsOriginAllowed(origin string) bool {
	_, ok := s.origins[normalizeOrigin(origin)]
	return ok
}

func normalizeOrigin(origin string) string {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSuffix(strings.TrimSpace(origin), "/")
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}
