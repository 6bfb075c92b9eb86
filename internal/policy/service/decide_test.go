package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
	"github.com/aussiebroadwan/idpolicy/internal/policy/registry/registrytest"
	"github.com/aussiebroadwan/idpolicy/internal/policy/service/mocks"
	"github.com/aussiebroadwan/idpolicy/pkg/slogx"
)

type recordedDecision struct {
	grant  domain.GrantType
	reason string
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []recordedDecision
}

func (o *recordingObserver) DecisionMade(_ context.Context, grant domain.GrantType, reason string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, recordedDecision{grant, reason})
}

func consoleRequest(scopes ...string) domain.DecisionRequest {
	return domain.DecisionRequest{
		ClientID:  "console client",
		Secret:    ptr(registrytest.ConsoleSecret),
		GrantType: domain.GrantClientCredentials,
		Scopes:    scopes,
	}
}

func TestDecideClientCredentials(t *testing.T) {
	t.Parallel()
	svc := newDecisionService(t)

	req := consoleRequest("api1", "openid")
	req.Subject = registrytest.Alice()

	dec, err := svc.Decide(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, &domain.AuthorizationDecision{
		ClientID:            "console client",
		GrantType:           domain.GrantClientCredentials,
		Scopes:              []string{"api1"},
		Resources:           []domain.ResourceGrant{{Resource: "api1", Scopes: []string{"api1"}}},
		IssueAccessToken:    true,
		AccessTokenType:     domain.TokenTypeJWT,
		AccessTokenLifetime: time.Hour,
	}, dec)
}

func TestDecideClientAuthentication(t *testing.T) {
	t.Parallel()
	svc := newDecisionService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     domain.DecisionRequest
		wantErr error
	}{
		{
			name:    "unknown client",
			req:     domain.DecisionRequest{ClientID: "nobody", GrantType: domain.GrantClientCredentials},
			wantErr: ErrUnknownClient,
		},
		{
			name: "disabled client",
			req: domain.DecisionRequest{
				ClientID:  "retired",
				Secret:    ptr("retired"),
				GrantType: domain.GrantClientCredentials,
			},
			wantErr: ErrUnknownClient,
		},
		{
			name: "wrong secret",
			req: func() domain.DecisionRequest {
				r := consoleRequest("api1")
				r.Secret = ptr("guess")
				return r
			}(),
			wantErr: ErrInvalidClientSecret,
		},
		{
			name: "missing secret",
			req: func() domain.DecisionRequest {
				r := consoleRequest("api1")
				r.Secret = nil
				return r
			}(),
			wantErr: ErrInvalidClientSecret,
		},
		{
			name: "empty secret",
			req: func() domain.DecisionRequest {
				r := consoleRequest("api1")
				r.Secret = ptr("")
				return r
			}(),
			wantErr: ErrInvalidClientSecret,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := svc.Decide(ctx, tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, dec)
		})
	}
}

func TestDecideGrantTypeCheckedBeforeSecret(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	secrets := mocks.NewMockSecretVerifier(ctrl) // no calls expected

	svc := newDecisionService(t)
	svc.Secrets = secrets

	req := consoleRequest("api1")
	req.GrantType = domain.GrantPassword
	req.Subject = registrytest.Alice()

	_, err := svc.Decide(context.Background(), req)
	require.ErrorIs(t, err, ErrGrantTypeNotAllowed)
}

func TestDecideRedirectURI(t *testing.T) {
	t.Parallel()
	svc := newDecisionService(t)

	for _, uri := range []string{
		"http://evil.example/signin-oidc",
		"http://localhost:5002/signin-oidc/",
		"HTTP://localhost:5002/signin-oidc",
		"",
	} {
		_, err := svc.Decide(context.Background(), domain.DecisionRequest{
			ClientID:    "mvc client",
			Secret:      ptr(registrytest.MVCSecret),
			GrantType:   domain.GrantAuthorizationCode,
			RedirectURI: uri,
			Scopes:      []string{"openid"},
			Subject:     registrytest.Alice(),
		})
		require.ErrorIs(t, err, ErrRedirectURIMismatch, uri)
	}
}

func TestDecideCodeFlow(t *testing.T) {
	t.Parallel()
	svc := newDecisionService(t)

	dec, err := svc.Decide(context.Background(), domain.DecisionRequest{
		ClientID:    "mvc client",
		Secret:      ptr(registrytest.MVCSecret),
		GrantType:   domain.GrantAuthorizationCode,
		RedirectURI: "http://localhost:5002/signin-oidc",
		Scopes:      []string{"openid", "profile", "api1", "offline_access"},
		Subject:     registrytest.Alice(),
	})
	require.NoError(t, err)

	require.Equal(t, "818727", dec.SubjectID)
	require.Equal(t, []string{"openid", "profile", "api1", "offline_access"}, dec.Scopes)
	require.Equal(t, []string{"openid", "profile"}, dec.IdentityScopes)
	require.True(t, dec.OfflineAccess)
	require.True(t, dec.IssueIdentityToken)
	require.True(t, dec.IssueAccessToken)
	require.Equal(t, domain.TokenTypeReference, dec.AccessTokenType)
	require.Equal(t, 15*time.Second, dec.AccessTokenLifetime)
	require.Equal(t, domain.DefaultIdentityTokenLifetime, dec.IdentityTokenLifetime)

	profile := []domain.Claim{
		{Type: "name", Value: "Alice Smith"},
		{Type: "family_name", Value: "Smith"},
		{Type: "given_name", Value: "Alice"},
	}
	sub := domain.Claim{Type: "sub", Value: "818727"}

	apiClaims := []domain.Claim{
		{Type: "role", Value: "admin"},
		{Type: "role", Value: "sales"},
		{Type: "email", Value: "alice@example.com"},
	}

	require.Equal(t, append([]domain.Claim{sub}, profile...), dec.Claims.UserInfo)
	require.Equal(t, append([]domain.Claim{sub}, apiClaims...), dec.Claims.AccessToken)
	// The mvc client always includes user claims, so its id token covers both.
	require.Equal(t, append(append([]domain.Claim{sub}, profile...), apiClaims...), dec.Claims.IdentityToken)
}

func TestDecideOfflineAccess(t *testing.T) {
	t.Parallel()
	svc := newDecisionService(t)
	ctx := context.Background()

	t.Run("dropped when the client disallows it", func(t *testing.T) {
		dec, err := svc.Decide(ctx, domain.DecisionRequest{
			ClientID:  "wpf client",
			Secret:    ptr(registrytest.WPFSecret),
			GrantType: domain.GrantPassword,
			Scopes:    []string{"api1", "offline_access"},
			Subject:   registrytest.Alice(),
		})
		require.NoError(t, err)
		require.False(t, dec.OfflineAccess)
		require.Equal(t, []string{"api1"}, dec.Scopes)
	})

	t.Run("offline_access alone grants nothing", func(t *testing.T) {
		_, err := svc.Decide(ctx, domain.DecisionRequest{
			ClientID:    "spa",
			GrantType:   domain.GrantAuthorizationCode,
			RedirectURI: "http://localhost:5002/callback.html",
			Scopes:      []string{"offline_access"},
			Subject:     registrytest.Alice(),
		})
		require.ErrorIs(t, err, ErrNoScopesGranted)
	})

	t.Run("public client without a secret", func(t *testing.T) {
		dec, err := svc.Decide(ctx, domain.DecisionRequest{
			ClientID:    "spa",
			GrantType:   domain.GrantAuthorizationCode,
			RedirectURI: "http://localhost:5002/callback.html",
			Scopes:      []string{"openid", "offline_access"},
			Subject:     registrytest.Alice(),
		})
		require.NoError(t, err)
		require.True(t, dec.OfflineAccess)
		require.Equal(t, []string{"openid", "offline_access"}, dec.Scopes)
	})
}

func TestDecidePasswordGrantIssuesNoIdentityToken(t *testing.T) {
	t.Parallel()
	svc := newDecisionService(t)

	dec, err := svc.Decide(context.Background(), domain.DecisionRequest{
		ClientID:  "wpf client",
		Secret:    ptr(registrytest.WPFSecret),
		GrantType: domain.GrantPassword,
		Scopes:    []string{"openid", "email", "api1"},
		Subject:   registrytest.Alice(),
	})
	require.NoError(t, err)
	require.False(t, dec.IssueIdentityToken)
	require.Zero(t, dec.IdentityTokenLifetime)
	require.Empty(t, dec.Claims.IdentityToken)
	require.Equal(t, []domain.Claim{
		{Type: "sub", Value: "818727"},
		{Type: "email", Value: "alice@example.com"},
		{Type: "email_verified", Value: "true"},
	}, dec.Claims.UserInfo)
}

func TestDecideImplicitWithoutBrowserTokens(t *testing.T) {
	t.Parallel()
	svc := newDecisionService(t)
	ctx := context.Background()

	req := domain.DecisionRequest{
		ClientID:    "id-only",
		GrantType:   domain.GrantImplicit,
		RedirectURI: "http://localhost:9000/cb",
		Scopes:      []string{"openid", "email", "api1"},
		Subject:     registrytest.Alice(),
	}

	dec, err := svc.Decide(ctx, req)
	require.NoError(t, err)
	require.False(t, dec.IssueAccessToken)
	require.True(t, dec.IssueIdentityToken)
	require.Equal(t, []string{"openid", "email"}, dec.Scopes)
	require.Empty(t, dec.Resources)
	require.Empty(t, dec.Claims.AccessToken)

	req.Scopes = []string{"api1"}
	_, err = svc.Decide(ctx, req)
	require.ErrorIs(t, err, ErrNoScopesGranted)
}

func TestDecideScopeNormalisation(t *testing.T) {
	t.Parallel()
	svc := newDecisionService(t)
	ctx := context.Background()

	dec, err := svc.Decide(ctx, consoleRequest("api1", "api1", "bogus"))
	require.NoError(t, err)
	require.Equal(t, []string{"api1"}, dec.Scopes)

	dec, err = svc.Decide(ctx, consoleRequest())
	require.NoError(t, err)
	require.Equal(t, []string{"api1"}, dec.Scopes)

	_, err = svc.Decide(ctx, consoleRequest("bogus"))
	require.ErrorIs(t, err, ErrNoScopesGranted)
}

func TestDecideIsIdempotent(t *testing.T) {
	t.Parallel()
	svc := newDecisionService(t)

	req := domain.DecisionRequest{
		ClientID:    "hybrid client",
		Secret:      ptr(registrytest.HybridSecret),
		GrantType:   domain.GrantHybrid,
		RedirectURI: "http://localhost:7000/signin-oidc",
		Scopes:      []string{"openid", "roles", "locations", "api1", "offline_access"},
		Subject:     registrytest.Alice(),
	}

	first, err := svc.Decide(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Decide(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestDecideAccessCondition(t *testing.T) {
	t.Parallel()
	svc := newDecisionService(t)
	ctx := context.Background()

	req := domain.DecisionRequest{
		ClientID:  "admins-only",
		Secret:    ptr("admins"),
		GrantType: domain.GrantPassword,
		Scopes:    []string{"openid", "roles"},
		Subject:   registrytest.Alice(),
	}

	dec, err := svc.Decide(ctx, req)
	require.NoError(t, err)
	require.Equal(t, []string{"openid", "roles"}, dec.Scopes)

	req.Subject = &domain.Principal{
		SubjectID: "bob",
		Claims:    []domain.Claim{{Type: "role", Value: "sales"}},
	}
	_, err = svc.Decide(ctx, req)
	require.ErrorIs(t, err, ErrAccessDenied)

	req.Subject = &domain.Principal{SubjectID: "carol"}
	_, err = svc.Decide(ctx, req)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestDecideUpstreamTimeout(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	secrets := mocks.NewMockSecretVerifier(ctrl)
	secrets.EXPECT().
		VerifySecret(gomock.Any(), gomock.Any(), registrytest.ConsoleSecret).
		DoAndReturn(func(ctx context.Context, _, _ string) (bool, error) {
			<-ctx.Done()
			return false, ctx.Err()
		})

	svc := newDecisionService(t)
	svc.Secrets = secrets
	svc.UpstreamTimeout = 20 * time.Millisecond

	_, err := svc.Decide(context.Background(), consoleRequest("api1"))
	require.ErrorIs(t, err, ErrUpstreamTimeout)
	require.Equal(t, "temporarily_unavailable", ErrorCode(err))
}

func TestDecideCallerCancellation(t *testing.T) {
	t.Parallel()
	svc := newDecisionService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Decide(ctx, consoleRequest("api1"))
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrUpstreamTimeout)
}

func TestDecideSkipsMalformedSecrets(t *testing.T) {
	t.Parallel()

	clients := registrytest.Clients()
	clients[0].Secrets = append([]domain.Secret{{Hash: "$argon2id$broken"}}, clients[0].Secrets...)

	reg := registry.NewStore(slogx.Discard())
	_, err := reg.Register(clients, registrytest.ApiResources(), registrytest.IdentityResources())
	require.NoError(t, err)

	svc := newDecisionService(t)
	svc.Registry = reg

	_, err = svc.Decide(context.Background(), consoleRequest("api1"))
	require.NoError(t, err)
}

func TestDecideNotLoaded(t *testing.T) {
	t.Parallel()

	svc := newDecisionService(t)
	svc.Registry = registry.NewStore(slogx.Discard())

	_, err := svc.Decide(context.Background(), consoleRequest("api1"))
	require.ErrorIs(t, err, registry.ErrNotLoaded)
	require.Equal(t, "registry_not_loaded", Reason(err))
}

func TestDecideNotifiesObserver(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	svc := newDecisionService(t)
	svc.Observer = obs
	ctx := context.Background()

	_, _ = svc.Decide(ctx, consoleRequest("api1"))
	bad := consoleRequest("api1")
	bad.Secret = ptr("nope")
	_, _ = svc.Decide(ctx, bad)

	require.Equal(t, []recordedDecision{
		{domain.GrantClientCredentials, "granted"},
		{domain.GrantClientCredentials, "invalid_client_secret"},
	}, obs.seen)
}

func TestDecideKeepsSnapshotAfterRejectedReload(t *testing.T) {
	t.Parallel()
	svc := newDecisionService(t)
	ctx := context.Background()
	gen := svc.Registry.Generation()

	clients, apis, ids := registryContents()
	for i := range clients {
		if clients[i].ID == "console client" {
			clients[i].Enabled = false
			clients[i].AllowedScopes = append(clients[i].AllowedScopes, "unknown-scope")
		}
	}
	_, err := svc.Registry.Register(clients, apis, ids)
	require.ErrorIs(t, err, registry.ErrUnknownScopeReference)
	require.Equal(t, gen, svc.Registry.Generation())

	dec, err := svc.Decide(ctx, consoleRequest("api1"))
	require.NoError(t, err)
	require.Equal(t, []string{"api1"}, dec.Scopes)
}
