package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/pkg/cryptox"
	"github.com/aussiebroadwan/idpolicy/pkg/jwtx"
)

const (
	tokenTypeAccess   = "at+jwt"
	tokenTypeIdentity = "id"
)

// IssuedTokens is the token response for a successful decision.
type IssuedTokens struct {
	AccessToken     string           `json:"access_token,omitempty"`
	AccessTokenType domain.TokenType `json:"access_token_type,omitempty"`
	TokenType       string           `json:"token_type,omitempty"`
	ExpiresIn       int64            `json:"expires_in,omitempty"`
	IdentityToken   string           `json:"id_token,omitempty"`
	Scope           string           `json:"scope"`

	// Reference is set for reference access tokens. The caller persists it
	// to answer introspection.
	Reference *ReferenceToken `json:"-"`
}

// ReferenceToken is the server-side half of an opaque access token.
type ReferenceToken struct {
	Fingerprint string
	Claims      jwtx.Claims
	ExpiresAt   time.Time
}

// TokenService turns decisions into signed tokens.
type TokenService struct {
	Signer TokenSigner
	Issuer string

	Now func() time.Time // defaults to time.Now
}

// Issue mints the tokens a decision allows. Self-contained access tokens and
// identity tokens are JWTs; reference access tokens are random handles.
func (s *TokenService) Issue(ctx context.Context, dec *domain.AuthorizationDecision) (*IssuedTokens, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	out := &IssuedTokens{Scope: strings.Join(dec.Scopes, " ")}

	if dec.IssueAccessToken {
		claims := jwtx.NewClaims(s.Issuer, dec.SubjectID, dec.Audiences(), dec.AccessTokenLifetime, now)
		claims.ClientID = dec.ClientID
		claims.Scope = dec.Scopes
		claims.Type = tokenTypeAccess
		claims.User = claimValues(dec.Claims.AccessToken)

		switch dec.AccessTokenType {
		case domain.TokenTypeReference:
			handle, err := cryptox.GenerateToken(cryptox.TokenSize256)
			if err != nil {
				return nil, err
			}
			out.AccessToken = handle
			out.Reference = &ReferenceToken{
				Fingerprint: cryptox.FingerprintToken(handle),
				Claims:      claims,
				ExpiresAt:   claims.ExpiresAt.Time,
			}
		default:
			signed, err := s.Signer.Sign(claims)
			if err != nil {
				return nil, fmt.Errorf("sign access token: %w", err)
			}
			out.AccessToken = signed
		}

		out.AccessTokenType = dec.AccessTokenType
		out.TokenType = "Bearer"
		out.ExpiresIn = int64(dec.AccessTokenLifetime / time.Second)
	}

	if dec.IssueIdentityToken {
		claims := jwtx.NewClaims(s.Issuer, dec.SubjectID, []string{dec.ClientID}, dec.IdentityTokenLifetime, now)
		claims.Type = tokenTypeIdentity
		claims.User = claimValues(dec.Claims.IdentityToken)

		signed, err := s.Signer.Sign(claims)
		if err != nil {
			return nil, fmt.Errorf("sign identity token: %w", err)
		}
		out.IdentityToken = signed
	}

	return out, nil
}

// claimValues folds projected claims into JWT payload values: one value
// stays a string, several become an array. The subject travels as "sub".
func claimValues(claims []domain.Claim) map[string]any {
	grouped := make(map[string][]string)
	var order []string
	for _, c := range claims {
		if c.Type == domain.ClaimSubject {
			continue
		}
		if _, ok := grouped[c.Type]; !ok {
			order = append(order, c.Type)
		}
		grouped[c.Type] = append(grouped[c.Type], c.Value)
	}
	if len(order) == 0 {
		return nil
	}

	out := make(map[string]any, len(order))
	for _, t := range order {
		if vs := grouped[t]; len(vs) == 1 {
			out[t] = vs[0]
		} else {
			out[t] = vs
		}
	}
	return out
}
