package domain

import "time"

// DecisionRequest is the per-request input to the policy engine. It is owned
// by a single decision and never shared.
type DecisionRequest struct {
	ClientID    string
	Secret      *string // nil when the caller presented no secret
	GrantType   GrantType
	Scopes      []string
	RedirectURI string

	// Subject is the authenticated end-user, nil for client-only flows.
	Subject *Principal

	// UpstreamTimeout bounds each external call made while deciding. Zero
	// uses the engine default.
	UpstreamTimeout time.Duration
}

// ResourceGrant is the set of scopes granted for a single ApiResource.
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

// AuthorizationDecision is the engine's successful output.
type AuthorizationDecision struct {
	ClientID  string    `json:"client_id"`
	SubjectID string    `json:"subject_id,omitempty"`
	GrantType GrantType `json:"grant_type"`

	Scopes         []string        `json:"scopes"`
	IdentityScopes []string        `json:"identity_scopes,omitempty"`
	Resources      []ResourceGrant `json:"resources,omitempty"`
	OfflineAccess  bool            `json:"offline_access"`

	IssueIdentityToken    bool          `json:"issue_identity_token"`
	IssueAccessToken      bool          `json:"issue_access_token"`
	AccessTokenType       TokenType     `json:"access_token_type"`
	AccessTokenLifetime   time.Duration `json:"access_token_lifetime"`
	IdentityTokenLifetime time.Duration `json:"identity_token_lifetime,omitempty"`

	Claims ClaimsProjection `json:"claims"`
}

// Audiences returns the names of the ApiResources the access token targets.
func (d AuthorizationDecision) Audiences() []string {
	out := make([]string, len(d.Resources))
	for i, r := range d.Resources {
		out[i] = r.Resource
	}
	return out
}
