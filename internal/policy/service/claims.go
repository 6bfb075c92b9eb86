package service

import (
	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
)

// ProjectClaims fills dec.Claims from the subject according to the granted
// scopes. Client-only flows release no user claims.
func ProjectClaims(
	snap *registry.Snapshot,
	client domain.Client,
	dec *domain.AuthorizationDecision,
	subject *domain.Principal,
) {
	if dec.GrantType == domain.GrantClientCredentials {
		subject = nil
	}

	var identity []domain.Claim
	if subject != nil {
		seen := make(map[string]struct{})
		for _, scope := range dec.IdentityScopes {
			ir, err := snap.IdentityResource(scope)
			if err != nil {
				continue
			}
			identity = appendClaims(identity, seen, subject, ir.ClaimTypes)
		}
	}

	// User claims of the granted api resources, in resource then declared
	// order.
	var resourceTypes []string
	for _, grant := range dec.Resources {
		api, err := snap.ApiResource(grant.Resource)
		if err != nil {
			continue
		}
		resourceTypes = append(resourceTypes, api.UserClaims...)
	}

	proj := domain.ClaimsProjection{UserInfo: identity}

	if dec.IssueAccessToken && subject != nil {
		seen := map[string]struct{}{domain.ClaimSubject: {}}
		proj.AccessToken = []domain.Claim{{Type: domain.ClaimSubject, Value: subject.SubjectID}}
		proj.AccessToken = appendClaims(proj.AccessToken, seen, subject, resourceTypes)
	}

	// With AlwaysIncludeUserClaimsInIDToken the identity token carries every
	// claim released to the other tokens.
	if dec.IssueIdentityToken && subject != nil {
		seen := map[string]struct{}{domain.ClaimSubject: {}}
		proj.IdentityToken = []domain.Claim{{Type: domain.ClaimSubject, Value: subject.SubjectID}}
		if client.AlwaysIncludeUserClaimsInIDToken {
			for _, c := range identity {
				if c.Type == domain.ClaimSubject {
					continue
				}
				seen[c.Type] = struct{}{}
				proj.IdentityToken = append(proj.IdentityToken, c)
			}
			proj.IdentityToken = appendClaims(proj.IdentityToken, seen, subject, resourceTypes)
		}
	}

	dec.Claims = proj
}

// appendClaims copies the subject's values for each claim type once, in the
// given order. Missing claims are skipped; multi-valued claims keep every
// value.
func appendClaims(dst []domain.Claim, seen map[string]struct{}, subject *domain.Principal, types []string) []domain.Claim {
	for _, t := range types {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		for _, v := range subject.Values(t) {
			dst = append(dst, domain.Claim{Type: t, Value: v})
		}
	}
	return dst
}
