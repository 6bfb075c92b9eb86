package domain

import "slices"

// ScopeOfflineAccess requests a refresh token. It is governed by the client's
// AllowOfflineAccess flag rather than by a registered resource.
const ScopeOfflineAccess = "offline_access"

// Standard OIDC identity scope names.
const (
	ScopeOpenID  = "openid"
	ScopeProfile = "profile"
	ScopeEmail   = "email"
	ScopeAddress = "address"
	ScopePhone   = "phone"
)

// ClaimSubject is the subject identifier claim type.
const ClaimSubject = "sub"

// ApiScope is a permission exposed by an ApiResource.
type ApiScope struct {
	Name        string `validate:"required"`
	DisplayName string
}

// ApiResource is a protected API addressable by one or more scopes.
type ApiResource struct {
	Name        string `validate:"required"`
	DisplayName string
	Enabled     bool

	// Secrets authenticate the API itself when it introspects reference
	// tokens. They are never used for end-user authentication.
	Secrets []Secret `validate:"dive"`

	// UserClaims are copied from the principal into access tokens whose
	// audience includes this resource.
	UserClaims []string

	// Scopes defaults to a single scope named after the resource.
	Scopes []ApiScope `validate:"dive"`
}

// ScopeNames returns the scope names exposed by the resource.
func (r ApiResource) ScopeNames() []string {
	if len(r.Scopes) == 0 {
		return []string{r.Name}
	}
	out := make([]string, len(r.Scopes))
	for i, s := range r.Scopes {
		out[i] = s.Name
	}
	return out
}

// Scope returns the scope definition for name, synthesising the default
// scope when none are declared.
func (r ApiResource) Scope(name string) (ApiScope, bool) {
	if len(r.Scopes) == 0 {
		if name == r.Name {
			return ApiScope{Name: r.Name, DisplayName: r.DisplayName}, true
		}
		return ApiScope{}, false
	}
	for _, s := range r.Scopes {
		if s.Name == name {
			return s, true
		}
	}
	return ApiScope{}, false
}

func (r ApiResource) Clone() ApiResource {
	out := r
	out.Secrets = slices.Clone(r.Secrets)
	out.UserClaims = slices.Clone(r.UserClaims)
	out.Scopes = slices.Clone(r.Scopes)
	return out
}

// IdentityResource is a bundle of user claims addressable by a scope name.
type IdentityResource struct {
	Name        string `validate:"required"`
	DisplayName string
	Enabled     bool
	Required    bool
	Emphasize   bool

	// ClaimTypes is ordered; projections preserve this order.
	ClaimTypes []string
}

func (r IdentityResource) Clone() IdentityResource {
	out := r
	out.ClaimTypes = slices.Clone(r.ClaimTypes)
	return out
}

// NewIdentityResource builds an enabled identity resource.
func NewIdentityResource(name, displayName string, claimTypes ...string) IdentityResource {
	return IdentityResource{
		Name:        name,
		DisplayName: displayName,
		Enabled:     true,
		ClaimTypes:  claimTypes,
	}
}

// OpenID is the mandatory OIDC scope releasing the subject identifier.
func OpenID() IdentityResource {
	r := NewIdentityResource(ScopeOpenID, "Your user identifier", ClaimSubject)
	r.Required = true
	return r
}

func Profile() IdentityResource {
	r := NewIdentityResource(ScopeProfile, "User profile",
		"name", "family_name", "given_name", "middle_name", "nickname",
		"preferred_username", "profile", "picture", "website", "gender",
		"birthdate", "zoneinfo", "locale", "updated_at",
	)
	r.Emphasize = true
	return r
}

func Email() IdentityResource {
	r := NewIdentityResource(ScopeEmail, "Your email address", "email", "email_verified")
	r.Emphasize = true
	return r
}

func Address() IdentityResource {
	r := NewIdentityResource(ScopeAddress, "Your postal address", "address")
	r.Emphasize = true
	return r
}

func Phone() IdentityResource {
	r := NewIdentityResource(ScopePhone, "Your phone number", "phone_number", "phone_number_verified")
	r.Emphasize = true
	return r
}

// StandardIdentityResource returns the built-in definition for an OIDC
// standard scope name.
func StandardIdentityResource(name string) (IdentityResource, bool) {
	switch name {
	case ScopeOpenID:
		return OpenID(), true
	case ScopeProfile:
		return Profile(), true
	case ScopeEmail:
		return Email(), true
	case ScopeAddress:
		return Address(), true
	case ScopePhone:
		return Phone(), true
	}
	return IdentityResource{}, false
}
