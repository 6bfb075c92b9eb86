package domain

import "slices"

// GrantType is the OAuth2 flow a client uses to obtain tokens.
type GrantType string

const (
	GrantClientCredentials GrantType = "client_credentials"
	GrantPassword          GrantType = "password"
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantImplicit          GrantType = "implicit"
	GrantHybrid            GrantType = "hybrid"
)

// Grant type presets matching the combinations a client may be registered with.
var (
	GrantTypesClientCredentials        = []GrantType{GrantClientCredentials}
	GrantTypesResourceOwnerPassword    = []GrantType{GrantPassword}
	GrantTypesCode                     = []GrantType{GrantAuthorizationCode}
	GrantTypesImplicit                 = []GrantType{GrantImplicit}
	GrantTypesHybrid                   = []GrantType{GrantHybrid}
	GrantTypesCodeAndClientCredentials = []GrantType{GrantAuthorizationCode, GrantClientCredentials}
)

// Known reports whether g is one of the supported grant types.
func (g GrantType) Known() bool {
	switch g {
	case GrantClientCredentials, GrantPassword, GrantAuthorizationCode, GrantImplicit, GrantHybrid:
		return true
	}
	return false
}

// RedirectBased reports whether the flow returns to the client through a
// registered redirect URI.
func (g GrantType) RedirectBased() bool {
	return g == GrantAuthorizationCode || g == GrantImplicit || g == GrantHybrid
}

// Interactive reports whether an end-user takes part in the flow through a
// browser, which is the only case where consent can be collected.
func (g GrantType) Interactive() bool {
	return g.RedirectBased()
}

// SupportsRefresh reports whether tokens issued via this grant may carry a
// refresh token (offline access).
func (g GrantType) SupportsRefresh() bool {
	return g == GrantAuthorizationCode || g == GrantHybrid || g == GrantPassword
}

// ParseGrantTypes expands preset aliases ("code+client_credentials") and
// returns each grant type once, in order of first declaration.
func ParseGrantTypes(values []string) []GrantType {
	out := make([]GrantType, 0, len(values))
	add := func(grants ...GrantType) {
		for _, g := range grants {
			if !slices.Contains(out, g) {
				out = append(out, g)
			}
		}
	}
	for _, v := range values {
		switch v {
		case "code+client_credentials", "code_and_client_credentials":
			add(GrantTypesCodeAndClientCredentials...)
		case "code":
			add(GrantAuthorizationCode)
		default:
			add(GrantType(v))
		}
	}
	return out
}
