package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
	"github.com/aussiebroadwan/idpolicy/pkg/cryptox"
	"github.com/aussiebroadwan/idpolicy/pkg/slogx"
)

func TestLoadSample(t *testing.T) {
	t.Parallel()

	reg, err := Load("testdata/registry.yaml")
	require.NoError(t, err)
	require.Len(t, reg.IdentityResources, 7)
	require.Len(t, reg.ApiResources, 3)
	require.Len(t, reg.Clients, 8)

	t.Run("standard identity resources expand", func(t *testing.T) {
		require.Equal(t, domain.Profile(), reg.IdentityResources[1])
		require.Equal(t, domain.NewIdentityResource("roles", "Role", "role"), reg.IdentityResources[5])
	})

	t.Run("client defaults and conversions", func(t *testing.T) {
		mvc := reg.Clients[2]
		require.Equal(t, "mvc client", mvc.ID)
		require.True(t, mvc.Enabled)
		require.True(t, mvc.RequireClientSecret)
		require.Equal(t, domain.GrantTypesCodeAndClientCredentials, mvc.AllowedGrantTypes)
		require.Equal(t, domain.TokenTypeReference, mvc.AccessTokenType)
		require.Equal(t, 15*time.Second, mvc.AccessTokenLifetime)
		require.Len(t, mvc.Secrets, 1)
		require.Equal(t, time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), mvc.Secrets[0].Expiration.UTC())

		ok, err := cryptox.MatchSecret(mvc.Secrets[0].Hash, "mvc secret")
		require.NoError(t, err)
		require.True(t, ok)

		sales := reg.Clients[7]
		require.Equal(t, 30*24*time.Hour, sales.ConsentLifetime)
		require.NotEmpty(t, sales.AccessCondition)
	})

	t.Run("registers cleanly", func(t *testing.T) {
		store := registry.NewStore(slogx.Discard())
		_, err := store.Register(reg.Clients, reg.ApiResources, reg.IdentityResources)
		require.NoError(t, err)
		require.True(t, store.IsOriginAllowed("http://127.0.0.1:3000"))
	})
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "clients: [\n"},
		{"unknown top-level key", "tenants: []\n"},
		{"unknown client field", "clients:\n  - client_id: a\n    grant_types: [password]\n    colour: blue\n"},
		{"missing grant types", "clients:\n  - client_id: a\n"},
		{"unknown grant type", "clients:\n  - client_id: a\n    grant_types: [device_code]\n"},
		{"negative lifetime", "clients:\n  - client_id: a\n    grant_types: [password]\n    access_token_lifetime: -1\n"},
		{"bad token type", "clients:\n  - client_id: a\n    grant_types: [password]\n    access_token_type: opaque\n"},
		{"secret without hash", "api_resources:\n  - name: api\n    secrets:\n      - description: x\n"},
		{"blank name", "identity_resources:\n  - name: ' '\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.ErrorIs(t, err, ErrInvalidFile)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	reg, err := Parse(nil)
	require.NoError(t, err)
	require.Empty(t, reg.Clients)
}

func TestParseMultipleErrors(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("clients:\n  - client_name: a\n    grant_types: []\n"))
	require.ErrorIs(t, err, ErrInvalidFile)
	require.Contains(t, err.Error(), "schema errors")
}

func TestApply(t *testing.T) {
	t.Parallel()

	store := registry.NewStore(slogx.Discard())
	snap, err := Apply(store, "testdata/registry.yaml")
	require.NoError(t, err)
	require.Equal(t, uint64(1), snap.Generation())

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("clients:\n  - client_id: x\n    grant_types: [password]\n    allowed_scopes: [nope]\n"), 0o600))

	_, err = Apply(store, bad)
	require.ErrorIs(t, err, registry.ErrUnknownScopeReference)
	require.Equal(t, uint64(1), store.Generation())

	_, err = Apply(store, filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
