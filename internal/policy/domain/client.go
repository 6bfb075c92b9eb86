package domain

import (
	"slices"
	"time"
)

// TokenType selects how an access token is represented.
type TokenType string

const (
	// TokenTypeJWT is a self-contained, signed access token.
	TokenTypeJWT TokenType = "jwt"
	// TokenTypeReference is an opaque handle that requires introspection.
	TokenTypeReference TokenType = "reference"
)

// Default token lifetimes applied when a client leaves them unset.
const (
	DefaultAccessTokenLifetime   = time.Hour
	DefaultIdentityTokenLifetime = 5 * time.Minute
)

// Secret is a hashed client or API secret. Plaintext is never stored.
type Secret struct {
	Hash        string     `validate:"required"`
	Description string
	Expiration  *time.Time
}

// Expired reports whether the secret is past its expiration at now.
func (s Secret) Expired(now time.Time) bool {
	return s.Expiration != nil && !now.Before(*s.Expiration)
}

type Client struct {
	ID      string `validate:"required"`
	Name    string
	Enabled bool

	AllowedGrantTypes   []GrantType `validate:"required,min=1"`
	Secrets             []Secret    `validate:"dive"`
	RequireClientSecret bool

	AllowedScopes          []string
	RedirectURIs           []string `validate:"dive,url"`
	PostLogoutRedirectURIs []string `validate:"dive,url"`
	FrontChannelLogoutURI  string   `validate:"omitempty,url"`
	AllowedCORSOrigins     []string `validate:"dive,url"`
	ClientURI              string   `validate:"omitempty,url"`
	LogoURI                string   `validate:"omitempty,url"`

	RequireConsent                   bool
	AllowOfflineAccess               bool
	AlwaysIncludeUserClaimsInIDToken bool
	AllowAccessTokensViaBrowser      bool

	AccessTokenLifetime   time.Duration `validate:"gte=0"`
	IdentityTokenLifetime time.Duration `validate:"gte=0"`
	ConsentLifetime       time.Duration `validate:"gte=0"` // zero means consent never expires
	AccessTokenType       TokenType     `validate:"omitempty,oneof=jwt reference"`

	// AccessCondition is an optional CEL expression over the subject's claims
	// and the request that must evaluate to true for a decision to succeed.
	AccessCondition string
}

// AllowsGrant reports whether g is one of the client's allowed grant types.
func (c Client) AllowsGrant(g GrantType) bool {
	return slices.Contains(c.AllowedGrantTypes, g)
}

// NeedsSecret reports whether a token request with g must present a secret.
func (c Client) NeedsSecret(g GrantType) bool {
	return c.RequireClientSecret && g != GrantImplicit
}

// TokenType returns the configured access token type, defaulting to JWT.
func (c Client) TokenType() TokenType {
	if c.AccessTokenType == TokenTypeReference {
		return TokenTypeReference
	}
	return TokenTypeJWT
}

// AccessTokenTTL returns the access token lifetime or the default.
func (c Client) AccessTokenTTL() time.Duration {
	if c.AccessTokenLifetime > 0 {
		return c.AccessTokenLifetime
	}
	return DefaultAccessTokenLifetime
}

// IdentityTokenTTL returns the identity token lifetime or the default.
func (c Client) IdentityTokenTTL() time.Duration {
	if c.IdentityTokenLifetime > 0 {
		return c.IdentityTokenLifetime
	}
	return DefaultIdentityTokenLifetime
}

// Clone returns a deep copy.
func (c Client) Clone() Client {
	out := c
	out.AllowedGrantTypes = slices.Clone(c.AllowedGrantTypes)
	out.Secrets = slices.Clone(c.Secrets)
	out.AllowedScopes = slices.Clone(c.AllowedScopes)
	out.RedirectURIs = slices.Clone(c.RedirectURIs)
	out.PostLogoutRedirectURIs = slices.Clone(c.PostLogoutRedirectURIs)
	out.AllowedCORSOrigins = slices.Clone(c.AllowedCORSOrigins)
	return out
}
