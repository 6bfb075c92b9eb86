package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/registry/registrytest"
)

func TestProjectClaims(t *testing.T) {
	t.Parallel()

	snap, err := newRegistry(t).Snapshot()
	require.NoError(t, err)
	hybrid, err := snap.Client("hybrid client")
	require.NoError(t, err)

	sub := domain.Claim{Type: "sub", Value: "818727"}
	roles := []domain.Claim{{Type: "role", Value: "admin"}, {Type: "role", Value: "sales"}}

	t.Run("identity scopes drive userinfo and id token", func(t *testing.T) {
		dec := &domain.AuthorizationDecision{
			GrantType:          domain.GrantHybrid,
			IdentityScopes:     []string{"openid", "roles", "phone"},
			IssueIdentityToken: true,
		}
		ProjectClaims(snap, hybrid, dec, registrytest.Alice())

		want := append([]domain.Claim{sub}, roles...)
		require.Equal(t, want, dec.Claims.UserInfo)
		require.Equal(t, want, dec.Claims.IdentityToken)
		require.Empty(t, dec.Claims.AccessToken)
	})

	t.Run("id token holds only sub unless always included", func(t *testing.T) {
		client := hybrid
		client.AlwaysIncludeUserClaimsInIDToken = false

		dec := &domain.AuthorizationDecision{
			GrantType:          domain.GrantHybrid,
			IdentityScopes:     []string{"openid", "roles"},
			IssueIdentityToken: true,
		}
		ProjectClaims(snap, client, dec, registrytest.Alice())
		require.Equal(t, []domain.Claim{sub}, dec.Claims.IdentityToken)
		require.Len(t, dec.Claims.UserInfo, 3)
	})

	t.Run("access token carries resource user claims once", func(t *testing.T) {
		dec := &domain.AuthorizationDecision{
			GrantType:        domain.GrantHybrid,
			Resources:        []domain.ResourceGrant{{Resource: "api1", Scopes: []string{"api1"}}, {Resource: "api2", Scopes: []string{"api2"}}},
			IssueAccessToken: true,
		}
		ProjectClaims(snap, hybrid, dec, registrytest.Alice())
		require.Equal(t, []domain.Claim{
			sub,
			roles[0],
			roles[1],
			{Type: "email", Value: "alice@example.com"},
		}, dec.Claims.AccessToken)
	})

	t.Run("always included id token is a superset", func(t *testing.T) {
		dec := &domain.AuthorizationDecision{
			GrantType:          domain.GrantHybrid,
			IdentityScopes:     []string{"openid", "roles"},
			Resources:          []domain.ResourceGrant{{Resource: "api1", Scopes: []string{"api1"}}},
			IssueIdentityToken: true,
			IssueAccessToken:   true,
		}
		ProjectClaims(snap, hybrid, dec, registrytest.Alice())

		email := domain.Claim{Type: "email", Value: "alice@example.com"}
		require.Equal(t, []domain.Claim{sub, roles[0], roles[1], email}, dec.Claims.IdentityToken)
		require.Subset(t, dec.Claims.IdentityToken, dec.Claims.AccessToken)
		require.Subset(t, dec.Claims.IdentityToken, dec.Claims.UserInfo)
	})

	t.Run("client credentials release nothing", func(t *testing.T) {
		dec := &domain.AuthorizationDecision{
			GrantType:          domain.GrantClientCredentials,
			IdentityScopes:     []string{"openid"},
			Resources:          []domain.ResourceGrant{{Resource: "api1", Scopes: []string{"api1"}}},
			IssueAccessToken:   true,
			IssueIdentityToken: true,
		}
		ProjectClaims(snap, hybrid, dec, registrytest.Alice())
		require.Equal(t, domain.ClaimsProjection{}, dec.Claims)
	})

	t.Run("missing claims are skipped", func(t *testing.T) {
		dec := &domain.AuthorizationDecision{
			GrantType:      domain.GrantHybrid,
			IdentityScopes: []string{"openid", "address", "phone"},
		}
		ProjectClaims(snap, hybrid, dec, &domain.Principal{SubjectID: "42"})
		require.Equal(t, []domain.Claim{{Type: "sub", Value: "42"}}, dec.Claims.UserInfo)
	})
}
