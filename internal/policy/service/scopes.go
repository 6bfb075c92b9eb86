package service

import (
	"slices"
	"sort"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
)

// ResolvedScopes is the scope resolver's output for one request.
type ResolvedScopes struct {
	// Scopes are the granted identity and API scopes in request order.
	Scopes         []string
	IdentityScopes []string
	Resources      []domain.ResourceGrant

	// OfflineAccessRequested is set when offline_access appeared in the
	// request. It is never part of Scopes here.
	OfflineAccessRequested bool
}

func (r ResolvedScopes) Empty() bool { return len(r.Scopes) == 0 }

// ResolveScopes intersects the requested scopes with what the client is
// allowed and the registry knows, partitioning the result into identity
// scopes and per-resource grants. An empty request means every scope the
// client is allowed.
func ResolveScopes(snap *registry.Snapshot, client domain.Client, requested []string) (ResolvedScopes, error) {
	var out ResolvedScopes

	if len(requested) == 0 {
		requested = client.AllowedScopes
	}

	seen := make(map[string]struct{}, len(requested))
	byResource := make(map[string][]string)

	for _, scope := range requested {
		if _, dup := seen[scope]; dup {
			continue
		}
		seen[scope] = struct{}{}

		if scope == domain.ScopeOfflineAccess {
			out.OfflineAccessRequested = true
			continue
		}
		if !slices.Contains(client.AllowedScopes, scope) {
			continue
		}

		switch snap.Kind(scope) {
		case registry.ScopeIdentity:
			ir, err := snap.IdentityResource(scope)
			if err != nil || !ir.Enabled {
				continue
			}
			out.IdentityScopes = append(out.IdentityScopes, scope)
		case registry.ScopeAPI:
			api, err := snap.ApiResourceForScope(scope)
			if err != nil || !api.Enabled {
				continue
			}
			byResource[api.Name] = append(byResource[api.Name], scope)
		default:
			continue
		}
		out.Scopes = append(out.Scopes, scope)
	}

	names := make([]string, 0, len(byResource))
	for name := range byResource {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out.Resources = append(out.Resources, domain.ResourceGrant{Resource: name, Scopes: byResource[name]})
	}

	if out.Empty() {
		return out, ErrNoScopesGranted
	}
	return out, nil
}

// withoutIdentity drops identity scopes, as client-only flows carry no user.
func (r ResolvedScopes) withoutIdentity() ResolvedScopes {
	out := r
	out.IdentityScopes = nil
	out.Scopes = slices.DeleteFunc(slices.Clone(r.Scopes), func(s string) bool {
		return slices.Contains(r.IdentityScopes, s)
	})
	return out
}

// withoutResources drops API scopes, for flows that issue no access token.
func (r ResolvedScopes) withoutResources() ResolvedScopes {
	out := r
	out.Resources = nil
	out.Scopes = slices.Clone(r.IdentityScopes)
	return out
}
