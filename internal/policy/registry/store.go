package registry

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/pkg/cryptox"
)

// Store holds the active registry snapshot. Readers load the snapshot
// through an atomic pointer and never block; writers are serialised and
// replace the whole snapshot on success.
type Store struct {
	logger  *slog.Logger
	current atomic.Pointer[Snapshot]

	mu         sync.Mutex
	generation uint64
	now        func() time.Time
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger, now: time.Now}
}

// Register validates and atomically installs a new registry. On error the
// previously active snapshot stays in place.
func (s *Store) Register(
	clients []domain.Client,
	apiResources []domain.ApiResource,
	identityResources []domain.IdentityResource,
) (*Snapshot, error) {
	snap, err := Build(clients, apiResources, identityResources)
	if err != nil {
		s.logger.Warn("registry rejected", "error", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	snap.generation = s.generation
	snap.loadedAt = s.now()

	for _, c := range snap.collisions {
		s.logger.Warn("scope name defined as identity resource and api scope; identity resource wins",
			"scope", c.Scope,
			"api_resource", c.ApiResource,
			"generation", snap.generation,
		)
	}

	s.current.Store(snap)
	s.logger.Info("registry loaded",
		"generation", snap.generation,
		"clients", len(snap.clients),
		"api_resources", len(snap.apiResources),
		"identity_resources", len(snap.identityResources),
	)
	return snap, nil
}

// Snapshot returns the active snapshot. Callers should take it once per
// decision so that a concurrent reload never mixes generations.
func (s *Store) Snapshot() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Generation returns the active generation, or 0 before the first load.
func (s *Store) Generation() uint64 {
	if snap := s.current.Load(); snap != nil {
		return snap.generation
	}
	return 0
}

func (s *Store) LookupClient(id string) (domain.Client, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return domain.Client{}, err
	}
	return snap.Client(id)
}

func (s *Store) LookupApiResource(name string) (domain.ApiResource, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return domain.ApiResource{}, err
	}
	return snap.ApiResource(name)
}

func (s *Store) LookupIdentityResource(name string) (domain.IdentityResource, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return domain.IdentityResource{}, err
	}
	return snap.IdentityResource(name)
}

// IsOriginAllowed reports whether any enabled client allows origin for CORS.
func (s *Store) IsOriginAllowed(origin string) bool {
	snap := s.current.Load()
	return snap != nil && snap.IsOriginAllowed(origin)
}

// ValidatePostLogoutRedirect checks uri against the client's registered
// post-logout redirect URIs by exact string match.
func (s *Store) ValidatePostLogoutRedirect(clientID, uri string) (bool, error) {
	c, err := s.LookupClient(clientID)
	if err != nil {
		return false, err
	}
	if !c.Enabled {
		return false, fmt.Errorf("%w: client %q", ErrNotFound, clientID)
	}
	return slices.Contains(c.PostLogoutRedirectURIs, uri), nil
}

// AuthenticateApiResource verifies an API resource secret. Disabled
// resources and resources without secrets never authenticate.
func (s *Store) AuthenticateApiResource(name, secret string) (bool, error) {
	r, err := s.LookupApiResource(name)
	if err != nil {
		return false, err
	}
	if !r.Enabled {
		return false, nil
	}

	now := s.now()
	for _, sec := range r.Secrets {
		if sec.Expired(now) {
			continue
		}
		match, err := cryptox.MatchSecret(sec.Hash, secret)
		if err != nil {
			s.logger.Warn("malformed api resource secret", "api_resource", name, "error", err)
			continue
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}
