// Package registrytest provides a reference registry for tests: the
// sample clients, API resources and identity resources of a small
// deployment with every supported flow.
package registrytest

import (
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/pkg/cryptox"
)

// Plain-text secrets for the fixture clients and resources.
const (
	ConsoleSecret = "511536EF-F270-4058-80CA-1C89C192F69A"
	WPFSecret     = "wpf secrect"
	MVCSecret     = "mvc secret"
	HybridSecret  = "hybrid secret"
	API1Secret    = "api1 secret"
)

var standardScopes = []string{
	domain.ScopeOpenID,
	domain.ScopeProfile,
	domain.ScopeAddress,
	domain.ScopeEmail,
	domain.ScopePhone,
}

func scopes(extra ...string) []string {
	out := append([]string{}, extra[:1]...)
	out = append(out, standardScopes...)
	return append(out, extra[1:]...)
}

func secret(plain string) []domain.Secret {
	return []domain.Secret{{Hash: cryptox.Sha256(plain)}}
}

func IdentityResources() []domain.IdentityResource {
	return []domain.IdentityResource{
		domain.OpenID(),
		domain.Profile(),
		domain.Address(),
		domain.Phone(),
		domain.Email(),
		domain.NewIdentityResource("roles", "Role", "role"),
		domain.NewIdentityResource("locations", "Locations", "location"),
	}
}

func ApiResources() []domain.ApiResource {
	return []domain.ApiResource{
		{Name: "api1", DisplayName: "My API #1", Enabled: true, Secrets: secret(API1Secret)},
		{Name: "api2", DisplayName: "My API #2", Enabled: true, Secrets: secret("api2 secret")},
		{
			Name:        "SalesManagementApi",
			DisplayName: "The SalesManagementSystem's Api",
			Enabled:     true,
			Secrets:     secret("SalesManagementApi secret"),
		},
	}
}

func Clients() []domain.Client {
	return []domain.Client{
		{
			ID:                  "console client",
			Name:                "Client Credentials Client",
			Enabled:             true,
			RequireClientSecret: true,
			AllowedGrantTypes:   domain.GrantTypesClientCredentials,
			Secrets:             secret(ConsoleSecret),
			AllowedScopes:       []string{"api1", domain.ScopeOpenID},
		},
		{
			ID:                  "wpf client",
			Enabled:             true,
			RequireClientSecret: true,
			AllowedGrantTypes:   domain.GrantTypesResourceOwnerPassword,
			Secrets:             secret(WPFSecret),
			AllowedScopes:       scopes("api1"),
		},
		{
			ID:                               "mvc client",
			Name:                             "ASP.NET Core MVC Client",
			Enabled:                          true,
			RequireClientSecret:              true,
			AllowedGrantTypes:                domain.GrantTypesCodeAndClientCredentials,
			AccessTokenType:                  domain.TokenTypeReference,
			Secrets:                          secret(MVCSecret),
			RedirectURIs:                     []string{"http://localhost:5002/signin-oidc"},
			FrontChannelLogoutURI:            "http://localhost:5002/signout-oidc",
			PostLogoutRedirectURIs:           []string{"http://localhost:5002/signout-callback-oidc"},
			AlwaysIncludeUserClaimsInIDToken: true,
			AllowOfflineAccess:               true,
			AccessTokenLifetime:              15 * time.Second,
			AllowedScopes:                    scopes("api1"),
		},
		{
			ID:                          "angular-client",
			Name:                        "Angular SPA Client",
			ClientURI:                   "http://localhost:4200",
			Enabled:                     true,
			RequireClientSecret:         true,
			AllowedGrantTypes:           domain.GrantTypesImplicit,
			AllowAccessTokensViaBrowser: true,
			RequireConsent:              true,
			AccessTokenLifetime:         5 * time.Minute,
			RedirectURIs: []string{
				"http://localhost:4200/signin-oidc",
				"http://localhost:4200/redirect-silentrenew",
			},
			PostLogoutRedirectURIs: []string{"http://localhost:4200"},
			AllowedCORSOrigins:     []string{"http://localhost:4200"},
			AllowedScopes:          scopes("api1"),
		},
		{
			ID:                          "react-client",
			Name:                        "React SPA Client",
			ClientURI:                   "http://localhost:3000",
			Enabled:                     true,
			RequireClientSecret:         true,
			AllowedGrantTypes:           domain.GrantTypesImplicit,
			AllowAccessTokensViaBrowser: true,
			RequireConsent:              true,
			AccessTokenLifetime:         5 * time.Minute,
			RedirectURIs:                []string{"http://localhost:3000/Callback", "http://localhost:3000/Renew"},
			PostLogoutRedirectURIs:      []string{"http://localhost:3000"},
			AllowedCORSOrigins:          []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			AllowedScopes:               scopes("SalesManagementApi", "roles", "locations"),
		},
		{
			ID:                               "hybrid client",
			Name:                             "ASP.NET Core Hybrid",
			Enabled:                          true,
			RequireClientSecret:              true,
			Secrets:                          secret(HybridSecret),
			AllowedGrantTypes:                domain.GrantTypesHybrid,
			RedirectURIs:                     []string{"http://localhost:7000/signin-oidc"},
			PostLogoutRedirectURIs:           []string{"http://localhost:7000/signout-callback-oidc"},
			AllowOfflineAccess:               true,
			AlwaysIncludeUserClaimsInIDToken: true,
			AllowedScopes:                    scopes("api1", "roles", "locations"),
		},
		{
			ID:                          "swagger_client",
			Name:                        "Swagger UI client",
			ClientURI:                   "http://localhost:8080",
			Enabled:                     true,
			RequireClientSecret:         true,
			AllowedGrantTypes:           domain.GrantTypesImplicit,
			AllowAccessTokensViaBrowser: true,
			RequireConsent:              true,
			RedirectURIs:                []string{"http://localhost:8080/oauth2-redirect.html"},
			PostLogoutRedirectURIs:      []string{"http://localhost:8080"},
			AllowedCORSOrigins:          []string{"http://localhost:8080"},
			AllowedScopes:               scopes("api1", "api2", "roles", "locations"),
		},
	}
}

// Alice is a subject carrying a representative set of claims, including a
// multi-valued role claim.
func Alice() *domain.Principal {
	return &domain.Principal{
		SubjectID: "818727",
		Claims: []domain.Claim{
			{Type: "name", Value: "Alice Smith"},
			{Type: "given_name", Value: "Alice"},
			{Type: "family_name", Value: "Smith"},
			{Type: "email", Value: "alice@example.com"},
			{Type: "email_verified", Value: "true"},
			{Type: "role", Value: "admin"},
			{Type: "role", Value: "sales"},
			{Type: "location", Value: "somewhere"},
		},
	}
}
