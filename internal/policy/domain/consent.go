package domain

import (
	"slices"
	"strings"
	"time"
)

// ConsentRecord is a remembered user approval for a client and scope set.
type ConsentRecord struct {
	ID        string
	SubjectID string
	ClientID  string
	Scopes    []string
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// PendingConsent is a decision parked until the user approves or denies it.
type PendingConsent struct {
	ID         string
	TokenHash  string // fingerprint of the single-use consent token
	SubjectID  string
	ClientID   string
	Decision   AuthorizationDecision
	Generation uint64 // registry generation the decision was made against
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// ConsentAnswer is the user's reply to a consent challenge.
type ConsentAnswer struct {
	Token   string
	Approve bool
	Subject *Principal

	// UpstreamTimeout bounds each consent store call. Zero uses the engine
	// default.
	UpstreamTimeout time.Duration
}

// ScopeDescription is what a consent screen shows for one scope.
type ScopeDescription struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Emphasize   bool   `json:"emphasize,omitempty"`
}

// ConsentChallenge carries everything needed to present a consent prompt.
type ConsentChallenge struct {
	Token      string             `json:"consent_token"`
	ClientID   string             `json:"client_id"`
	ClientName string             `json:"client_name,omitempty"`
	ClientURI  string             `json:"client_uri,omitempty"`
	LogoURI    string             `json:"logo_uri,omitempty"`
	Scopes     []ScopeDescription `json:"scopes"`
	ExpiresAt  time.Time          `json:"expires_at"`
}

// ScopeKey returns the canonical form of a scope set: sorted, deduplicated
// and space-joined. Consent records are keyed by it.
func ScopeKey(scopes []string) string {
	s := slices.Clone(scopes)
	slices.Sort(s)
	return strings.Join(slices.Compact(s), " ")
}
