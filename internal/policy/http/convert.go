package http

import (
	"strings"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/service"
	"github.com/aussiebroadwan/idpolicy/pkg/httpx"
	"github.com/aussiebroadwan/idpolicy/pkg/policysdk"
)

func toDomainRequest(req policysdk.DecisionRequest) domain.DecisionRequest {
	return domain.DecisionRequest{
		ClientID:        req.ClientID,
		Secret:          req.ClientSecret,
		GrantType:       domain.GrantType(req.GrantType),
		Scopes:          httpx.ParseSpaceDelimitedFields(req.Scope),
		RedirectURI:     req.RedirectURI,
		Subject:         toPrincipal(req.Subject),
		UpstreamTimeout: time.Duration(req.UpstreamTimeoutMS) * time.Millisecond,
	}
}

func toPrincipal(s *policysdk.Subject) *domain.Principal {
	if s == nil {
		return nil
	}
	p := &domain.Principal{SubjectID: s.ID}
	for _, c := range s.Claims {
		p.Claims = append(p.Claims, domain.Claim{Type: c.Type, Value: c.Value})
	}
	return p
}

func fromClaims(in []domain.Claim) []policysdk.Claim {
	if len(in) == 0 {
		return nil
	}
	out := make([]policysdk.Claim, len(in))
	for i, c := range in {
		out[i] = policysdk.Claim{Type: c.Type, Value: c.Value}
	}
	return out
}

func fromDecision(dec *domain.AuthorizationDecision) policysdk.DecisionResponse {
	out := policysdk.DecisionResponse{
		ClientID:              dec.ClientID,
		Subject:               dec.SubjectID,
		GrantType:             string(dec.GrantType),
		Scope:                 strings.Join(dec.Scopes, " "),
		IdentityScopes:        dec.IdentityScopes,
		OfflineAccess:         dec.OfflineAccess,
		IssueIdentityToken:    dec.IssueIdentityToken,
		IssueAccessToken:      dec.IssueAccessToken,
		AccessTokenType:       string(dec.AccessTokenType),
		AccessTokenLifetime:   int64(dec.AccessTokenLifetime / time.Second),
		IdentityTokenLifetime: int64(dec.IdentityTokenLifetime / time.Second),
		Claims: policysdk.ClaimsProjection{
			IdentityToken: fromClaims(dec.Claims.IdentityToken),
			AccessToken:   fromClaims(dec.Claims.AccessToken),
			UserInfo:      fromClaims(dec.Claims.UserInfo),
		},
	}
	for _, r := range dec.Resources {
		out.Resources = append(out.Resources, policysdk.ResourceGrant{Resource: r.Resource, Scopes: r.Scopes})
	}
	return out
}

func fromChallenge(ch domain.ConsentChallenge) policysdk.ConsentChallenge {
	out := policysdk.ConsentChallenge{
		Token:      ch.Token,
		ClientID:   ch.ClientID,
		ClientName: ch.ClientName,
		ClientURI:  ch.ClientURI,
		LogoURI:    ch.LogoURI,
		Scopes:     make([]policysdk.ScopeDescription, len(ch.Scopes)),
		ExpiresAt:  ch.ExpiresAt,
	}
	for i, s := range ch.Scopes {
		out.Scopes[i] = policysdk.ScopeDescription{
			Name:        s.Name,
			DisplayName: s.DisplayName,
			Required:    s.Required,
			Emphasize:   s.Emphasize,
		}
	}
	return out
}

func fromIssued(dec *domain.AuthorizationDecision, tok *service.IssuedTokens) policysdk.TokenResponse {
	out := policysdk.TokenResponse{
		AccessToken:     tok.AccessToken,
		AccessTokenType: string(tok.AccessTokenType),
		TokenType:       tok.TokenType,
		ExpiresIn:       tok.ExpiresIn,
		IDToken:         tok.IdentityToken,
		Scope:           tok.Scope,
		OfflineAccess:   dec.OfflineAccess,
	}
	if ref := tok.Reference; ref != nil {
		out.Reference = &policysdk.ReferenceToken{
			Fingerprint: ref.Fingerprint,
			ExpiresAt:   ref.ExpiresAt,
			Claims:      ref.Claims,
		}
	}
	return out
}
