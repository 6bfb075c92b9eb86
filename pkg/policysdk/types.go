package policysdk

import (
	"time"

	"github.com/aussiebroadwan/idpolicy/pkg/jwtx"
)

// ErrorResponse is the OAuth2-style error body every endpoint returns on
// failure. Client code receives it as an *OAuth2Error.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Decision Types
// ============================================================================

// Claim is a single claim value. Multi-valued claims repeat the type.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Subject is the authenticated end-user the caller acts for.
type Subject struct {
	ID     string  `json:"sub"`
	Claims []Claim `json:"claims,omitempty"`
}

// DecisionRequest asks the engine whether a client may be granted scopes.
// It is the body of POST /v1/decisions and POST /v1/tokens.
type DecisionRequest struct {
	ClientID string `json:"client_id"`

	// ClientSecret is nil when the client presents no secret, which is
	// distinct from presenting an empty one.
	ClientSecret *string `json:"client_secret,omitempty"`

	GrantType   string   `json:"grant_type"`
	Scope       string   `json:"scope,omitempty"` // space-delimited
	RedirectURI string   `json:"redirect_uri,omitempty"`
	Subject     *Subject `json:"subject,omitempty"`

	// UpstreamTimeoutMS bounds each external call made while deciding.
	UpstreamTimeoutMS int64 `json:"upstream_timeout_ms,omitempty"`
}

// ResourceGrant lists the scopes granted for one API resource.
type ResourceGrant struct {
	Resource string   `json:"resource"`
	Scopes   []string `json:"scopes"`
}

// ClaimsProjection holds the claims released to each token.
type ClaimsProjection struct {
	IdentityToken []Claim `json:"identity_token,omitempty"`
	AccessToken   []Claim `json:"access_token,omitempty"`
	UserInfo      []Claim `json:"userinfo,omitempty"`
}

// DecisionResponse is a successful authorization decision.
type DecisionResponse struct {
	ClientID  string `json:"client_id"`
	Subject   string `json:"sub,omitempty"`
	GrantType string `json:"grant_type"`

	Scope          string          `json:"scope"`
	IdentityScopes []string        `json:"identity_scopes,omitempty"`
	Resources      []ResourceGrant `json:"resources,omitempty"`
	OfflineAccess  bool            `json:"offline_access"`

	IssueIdentityToken    bool   `json:"issue_identity_token"`
	IssueAccessToken      bool   `json:"issue_access_token"`
	AccessTokenType       string `json:"access_token_type,omitempty"`
	AccessTokenLifetime   int64  `json:"access_token_lifetime"` // seconds
	IdentityTokenLifetime int64  `json:"identity_token_lifetime,omitempty"`

	Claims ClaimsProjection `json:"claims"`
}

// ============================================================================
// Consent Types
// ============================================================================

// ScopeDescription is what a consent screen shows for one scope.
type ScopeDescription struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Emphasize   bool   `json:"emphasize,omitempty"`
}

// ConsentChallenge is returned with a consent_required error. The token is
// single use and answers the challenge via POST /v1/consents/{token}.
type ConsentChallenge struct {
	Token      string             `json:"consent_token"`
	ClientID   string             `json:"client_id"`
	ClientName string             `json:"client_name,omitempty"`
	ClientURI  string             `json:"client_uri,omitempty"`
	LogoURI    string             `json:"logo_uri,omitempty"`
	Scopes     []ScopeDescription `json:"scopes"`
	ExpiresAt  time.Time          `json:"expires_at"`
}

// ConsentAnswer is the body of POST /v1/consents/{token}.
type ConsentAnswer struct {
	Approve bool     `json:"approve"`
	Subject *Subject `json:"subject"`

	// UpstreamTimeoutMS bounds each consent store call; zero uses the
	// server default.
	UpstreamTimeoutMS int64 `json:"upstream_timeout_ms,omitempty"`
}

// ============================================================================
// Token Types
// ============================================================================

// ReferenceToken is the payload behind a reference access token. The
// service keeps no copy; the caller persists it under Fingerprint.
type ReferenceToken struct {
	Fingerprint string      `json:"fingerprint"`
	ExpiresAt   time.Time   `json:"expires_at"`
	Claims      jwtx.Claims `json:"claims"`
}

// TokenResponse is returned from POST /v1/tokens.
type TokenResponse struct {
	AccessToken     string          `json:"access_token,omitempty"`
	AccessTokenType string          `json:"access_token_type,omitempty"`
	TokenType       string          `json:"token_type,omitempty"`
	ExpiresIn       int64           `json:"expires_in,omitempty"`
	IDToken         string          `json:"id_token,omitempty"`
	Scope           string          `json:"scope"`
	OfflineAccess   bool            `json:"offline_access,omitempty"`
	Reference       *ReferenceToken `json:"reference,omitempty"`
}

// ============================================================================
// CORS Types
// ============================================================================

// CORSResponse reports whether any enabled client allows an origin.
type CORSResponse struct {
	Origin  string `json:"origin"`
	Allowed bool   `json:"allowed"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks is the status of each dependency checked by /readyz.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
	Registry string `json:"registry"`
}

// JWKSResponse is the key set published at /.well-known/jwks.json.
type JWKSResponse jwtx.JWKS
