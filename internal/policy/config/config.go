// Package config reads registry files: the YAML description of the clients,
// API resources and identity resources the policy engine trusts.
package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
)

//go:embed schema/registry.schema.json
var schemaFS embed.FS

const schemaFile = "schema/registry.schema.json"

var ErrInvalidFile = errors.New("invalid registry file")

// Registry is the decoded content of a registry file, ready for
// registry.Store.Register.
type Registry struct {
	Clients           []domain.Client
	ApiResources      []domain.ApiResource
	IdentityResources []domain.IdentityResource
}

type fileSecret struct {
	Hash        string     `yaml:"hash"`
	Description string     `yaml:"description"`
	Expiration  *time.Time `yaml:"expiration"`
}

type fileIdentityResource struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name"`
	Enabled     *bool    `yaml:"enabled"`
	Required    bool     `yaml:"required"`
	Emphasize   bool     `yaml:"emphasize"`
	Claims      []string `yaml:"claims"`
}

type fileApiScope struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
}

type fileApiResource struct {
	Name        string         `yaml:"name"`
	DisplayName string         `yaml:"display_name"`
	Enabled     *bool          `yaml:"enabled"`
	Secrets     []fileSecret   `yaml:"secrets"`
	UserClaims  []string       `yaml:"user_claims"`
	Scopes      []fileApiScope `yaml:"scopes"`
}

type fileClient struct {
	ID                  string       `yaml:"client_id"`
	Name                string       `yaml:"client_name"`
	Enabled             *bool        `yaml:"enabled"`
	GrantTypes          []string     `yaml:"grant_types"`
	Secrets             []fileSecret `yaml:"secrets"`
	RequireClientSecret *bool        `yaml:"require_client_secret"`

	AllowedScopes          []string `yaml:"allowed_scopes"`
	RedirectURIs           []string `yaml:"redirect_uris"`
	PostLogoutRedirectURIs []string `yaml:"post_logout_redirect_uris"`
	FrontChannelLogoutURI  string   `yaml:"front_channel_logout_uri"`
	AllowedCORSOrigins     []string `yaml:"allowed_cors_origins"`
	ClientURI              string   `yaml:"client_uri"`
	LogoURI                string   `yaml:"logo_uri"`

	RequireConsent                   bool `yaml:"require_consent"`
	AllowOfflineAccess               bool `yaml:"allow_offline_access"`
	AlwaysIncludeUserClaimsInIDToken bool `yaml:"always_include_user_claims_in_id_token"`
	AllowAccessTokensViaBrowser      bool `yaml:"allow_access_tokens_via_browser"`

	// Lifetimes are in seconds.
	AccessTokenLifetime   int    `yaml:"access_token_lifetime"`
	IdentityTokenLifetime int    `yaml:"identity_token_lifetime"`
	ConsentLifetime       int    `yaml:"consent_lifetime"`
	AccessTokenType       string `yaml:"access_token_type"`
	AccessCondition       string `yaml:"access_condition"`
}

type file struct {
	IdentityResources []fileIdentityResource `yaml:"identity_resources"`
	ApiResources      []fileApiResource      `yaml:"api_resources"`
	Clients           []fileClient           `yaml:"clients"`
}

// Load reads and parses the registry file at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Parse validates data against the registry schema and converts it to
// domain values. Cross-entity checks such as scope references are left to
// registration.
func Parse(data []byte) (*Registry, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	out := &Registry{
		Clients:           make([]domain.Client, 0, len(f.Clients)),
		ApiResources:      make([]domain.ApiResource, 0, len(f.ApiResources)),
		IdentityResources: make([]domain.IdentityResource, 0, len(f.IdentityResources)),
	}
	for _, r := range f.IdentityResources {
		out.IdentityResources = append(out.IdentityResources, r.toDomain())
	}
	for _, r := range f.ApiResources {
		out.ApiResources = append(out.ApiResources, r.toDomain())
	}
	for _, c := range f.Clients {
		out.Clients = append(out.Clients, c.toDomain())
	}
	return out, nil
}

func validateSchema(data []byte) error {
	// The schema is written against JSON; round-trip the YAML through a
	// generic value first.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	schema, err := schemaFS.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("read embedded schema: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(asJSON),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return schemaError(msgs)
}

// schemaError formats schema violations as a numbered list.
func schemaError(msgs []string) error {
	if len(msgs) == 1 {
		return fmt.Errorf("%w: %s", ErrInvalidFile, msgs[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d schema errors:", len(msgs))
	for i, msg := range msgs {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, msg)
	}
	return fmt.Errorf("%w: %s", ErrInvalidFile, b.String())
}

func orTrue(v *bool) bool { return v == nil || *v }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func secrets(in []fileSecret) []domain.Secret {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Secret, len(in))
	for i, s := range in {
		out[i] = domain.Secret{Hash: s.Hash, Description: s.Description, Expiration: s.Expiration}
	}
	return out
}

// toDomain expands a bare standard scope name (openid, profile, ...) to its
// built-in definition.
func (r fileIdentityResource) toDomain() domain.IdentityResource {
	if std, ok := domain.StandardIdentityResource(r.Name); ok && len(r.Claims) == 0 {
		if r.DisplayName != "" {
			std.DisplayName = r.DisplayName
		}
		std.Enabled = orTrue(r.Enabled)
		std.Required = std.Required || r.Required
		std.Emphasize = std.Emphasize || r.Emphasize
		return std
	}
	return domain.IdentityResource{
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Enabled:     orTrue(r.Enabled),
		Required:    r.Required,
		Emphasize:   r.Emphasize,
		ClaimTypes:  r.Claims,
	}
}

func (r fileApiResource) toDomain() domain.ApiResource {
	out := domain.ApiResource{
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Enabled:     orTrue(r.Enabled),
		Secrets:     secrets(r.Secrets),
		UserClaims:  r.UserClaims,
	}
	for _, s := range r.Scopes {
		out.Scopes = append(out.Scopes, domain.ApiScope{Name: s.Name, DisplayName: s.DisplayName})
	}
	return out
}

// toDomain applies client defaults: enabled, and a secret required for
// non-implicit grants unless require_client_secret is false.
func (c fileClient) toDomain() domain.Client {
	return domain.Client{
		ID:                               c.ID,
		Name:                             c.Name,
		Enabled:                          orTrue(c.Enabled),
		AllowedGrantTypes:                domain.ParseGrantTypes(c.GrantTypes),
		Secrets:                          secrets(c.Secrets),
		RequireClientSecret:              orTrue(c.RequireClientSecret),
		AllowedScopes:                    c.AllowedScopes,
		RedirectURIs:                     c.RedirectURIs,
		PostLogoutRedirectURIs:           c.PostLogoutRedirectURIs,
		FrontChannelLogoutURI:            c.FrontChannelLogoutURI,
		AllowedCORSOrigins:               c.AllowedCORSOrigins,
		ClientURI:                        c.ClientURI,
		LogoURI:                          c.LogoURI,
		RequireConsent:                   c.RequireConsent,
		AllowOfflineAccess:               c.AllowOfflineAccess,
		AlwaysIncludeUserClaimsInIDToken: c.AlwaysIncludeUserClaimsInIDToken,
		AllowAccessTokensViaBrowser:      c.AllowAccessTokensViaBrowser,
		AccessTokenLifetime:              seconds(c.AccessTokenLifetime),
		IdentityTokenLifetime:            seconds(c.IdentityTokenLifetime),
		ConsentLifetime:                  seconds(c.ConsentLifetime),
		AccessTokenType:                  domain.TokenType(c.AccessTokenType),
		AccessCondition:                  c.AccessCondition,
	}
}
