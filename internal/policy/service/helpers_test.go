package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
	"github.com/aussiebroadwan/idpolicy/internal/policy/registry/registrytest"
	"github.com/aussiebroadwan/idpolicy/internal/policy/store/drivers/sqlite"
	"github.com/aussiebroadwan/idpolicy/pkg/cryptox"
	"github.com/aussiebroadwan/idpolicy/pkg/slogx"
)

func ptr(s string) *string { return &s }

// extraClients extends the reference registry with clients exercising
// settings the reference set does not use.
func extraClients() []domain.Client {
	return []domain.Client{
		{
			ID:                "id-only",
			Enabled:           true,
			AllowedGrantTypes: domain.GrantTypesImplicit,
			RedirectURIs:      []string{"http://localhost:9000/cb"},
			AllowedScopes:     []string{domain.ScopeOpenID, domain.ScopeEmail, "api1"},
		},
		{
			ID:                 "spa",
			Enabled:            true,
			AllowedGrantTypes:  domain.GrantTypesCode,
			RedirectURIs:       []string{"http://localhost:5002/callback.html"},
			AllowedScopes:      []string{domain.ScopeOpenID, domain.ScopeProfile, "api1"},
			AllowOfflineAccess: true,
		},
		{
			ID:                  "admins-only",
			Enabled:             true,
			RequireClientSecret: true,
			AllowedGrantTypes:   domain.GrantTypesResourceOwnerPassword,
			Secrets:             []domain.Secret{{Hash: cryptox.Sha256("admins")}},
			AllowedScopes:       []string{domain.ScopeOpenID, "roles", "api1"},
			AccessCondition:     `"admin" in subject["role"]`,
		},
		{
			ID:                  "retired",
			Enabled:             false,
			RequireClientSecret: true,
			AllowedGrantTypes:   domain.GrantTypesClientCredentials,
			Secrets:             []domain.Secret{{Hash: cryptox.Sha256("retired")}},
			AllowedScopes:       []string{"api1"},
		},
	}
}

// registryContents is the registry every service test starts from.
func registryContents() ([]domain.Client, []domain.ApiResource, []domain.IdentityResource) {
	apis := registrytest.ApiResources()
	apis[0].UserClaims = []string{"role", "email"}
	return append(registrytest.Clients(), extraClients()...), apis, registrytest.IdentityResources()
}

func newRegistry(t *testing.T) *registry.Store {
	t.Helper()

	reg := registry.NewStore(slogx.Discard())
	_, err := reg.Register(registryContents())
	require.NoError(t, err)
	return reg
}

// reloadClient registers the starting registry again with client id
// changed by edit.
func reloadClient(t *testing.T, reg *registry.Store, id string, edit func(*domain.Client)) {
	t.Helper()

	clients, apis, ids := registryContents()
	for i := range clients {
		if clients[i].ID == id {
			edit(&clients[i])
		}
	}
	_, err := reg.Register(clients, apis, ids)
	require.NoError(t, err)
}

func newSQLiteStore(t *testing.T) *sqlite.Store {
	t.Helper()

	db, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "idpolicy.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.ApplyMigrations())
	return db
}

// newDecisionService wires the service with the real secret verifier and a
// temp-file consent store.
func newDecisionService(t *testing.T) *DecisionService {
	t.Helper()

	db := newSQLiteStore(t)
	return &DecisionService{
		Registry:        newRegistry(t),
		Secrets:         cryptox.SecretVerifier{},
		Consents:        db.Consents(),
		PendingConsents: db.PendingConsents(),
	}
}
