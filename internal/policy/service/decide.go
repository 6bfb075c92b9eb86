package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
	"github.com/aussiebroadwan/idpolicy/internal/policy/store"
	"github.com/aussiebroadwan/idpolicy/pkg/celx"
	"github.com/aussiebroadwan/idpolicy/pkg/slogx"
)

// DefaultPendingConsentTTL is how long a consent challenge stays answerable.
const DefaultPendingConsentTTL = 10 * time.Minute

// DecisionService evaluates authorization requests against the active
// registry snapshot.
type DecisionService struct {
	Registry        *registry.Store
	Secrets         SecretVerifier
	Consents        store.Consents
	PendingConsents store.PendingConsents
	Observer        Observer // optional

	// UpstreamTimeout bounds each external call when the request does not
	// carry its own timeout.
	UpstreamTimeout   time.Duration
	PendingConsentTTL time.Duration

	Now func() time.Time // defaults to time.Now
}

func (s *DecisionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DecisionService) timeout(req time.Duration) time.Duration {
	switch {
	case req > 0:
		return req
	case s.UpstreamTimeout > 0:
		return s.UpstreamTimeout
	default:
		return DefaultUpstreamTimeout
	}
}

// Decide runs the grant policy for one request.
//
// Checks run in a fixed order and stop at the first failure: client lookup,
// grant type, client secret, redirect URI, scope resolution and shaping,
// access condition, offline access, token settings, consent, and finally
// claims projection. A request needing user approval fails with
// *ConsentRequiredError (errors.Is ErrConsentRequired).
func (s *DecisionService) Decide(ctx context.Context, req domain.DecisionRequest) (_ *domain.AuthorizationDecision, err error) {
	start := s.now()
	l := slogx.FromContext(ctx).With("client_id", req.ClientID, "grant_type", req.GrantType)
	defer func() {
		s.finish(ctx, l, req.GrantType, err, start)
	}()

	snap, err := s.Registry.Snapshot()
	if err != nil {
		return nil, err
	}
	timeout := s.timeout(req.UpstreamTimeout)

	client, err := snap.Client(req.ClientID)
	if err != nil || !client.Enabled {
		return nil, ErrUnknownClient
	}

	if !client.AllowsGrant(req.GrantType) {
		return nil, ErrGrantTypeNotAllowed
	}

	if client.NeedsSecret(req.GrantType) {
		if err := s.authenticateClient(ctx, l, client, req.Secret, timeout); err != nil {
			return nil, err
		}
	}

	if req.GrantType.RedirectBased() && !slices.Contains(client.RedirectURIs, req.RedirectURI) {
		return nil, ErrRedirectURIMismatch
	}

	resolved, err := ResolveScopes(snap, client, req.Scopes)
	if err != nil {
		return nil, err
	}

	issueAccess := true
	switch {
	case req.GrantType == domain.GrantClientCredentials:
		resolved = resolved.withoutIdentity()
	case req.GrantType == domain.GrantImplicit && !client.AllowAccessTokensViaBrowser:
		resolved = resolved.withoutResources()
		issueAccess = false
	}
	if resolved.Empty() {
		return nil, ErrNoScopesGranted
	}

	if cond := snap.Condition(client.ID); cond != nil {
		if err := evalCondition(cond, client, req); err != nil {
			return nil, err
		}
	}

	dec := &domain.AuthorizationDecision{
		ClientID:              client.ID,
		GrantType:             req.GrantType,
		Scopes:                resolved.Scopes,
		IdentityScopes:        resolved.IdentityScopes,
		Resources:             resolved.Resources,
		IssueIdentityToken:    req.GrantType.RedirectBased() && slices.Contains(resolved.IdentityScopes, domain.ScopeOpenID),
		IssueAccessToken:      issueAccess,
		AccessTokenType:       client.TokenType(),
		AccessTokenLifetime:   client.AccessTokenTTL(),
		IdentityTokenLifetime: client.IdentityTokenTTL(),
	}
	if req.Subject != nil && req.GrantType != domain.GrantClientCredentials {
		dec.SubjectID = req.Subject.SubjectID
	}
	if !dec.IssueIdentityToken {
		dec.IdentityTokenLifetime = 0
	}

	if resolved.OfflineAccessRequested && client.AllowOfflineAccess && req.GrantType.SupportsRefresh() {
		dec.OfflineAccess = true
		dec.Scopes = append(dec.Scopes, domain.ScopeOfflineAccess)
	}

	if err := s.gateConsent(ctx, snap, client, req, dec, timeout); err != nil {
		return nil, err
	}

	ProjectClaims(snap, client, dec, req.Subject)
	return dec, nil
}

func (s *DecisionService) finish(ctx context.Context, l *slog.Logger, grant domain.GrantType, err error, start time.Time) {
	reason := Reason(err)
	if s.Observer != nil {
		s.Observer.DecisionMade(ctx, grant, reason, s.now().Sub(start))
	}

	switch {
	case err == nil:
		l.Debug("decision granted")
	case errors.Is(err, ErrConsentRequired):
		l.Info("decision awaiting consent")
	case lookupOutcome(err).code == "server_error":
		l.Error("decision failed", "error", err)
	default:
		l.Info("decision denied", "reason", reason, "error", err)
	}
}

// authenticateClient verifies the presented secret against each unexpired
// client secret. Malformed stored hashes are skipped.
func (s *DecisionService) authenticateClient(
	ctx context.Context,
	l *slog.Logger,
	client domain.Client,
	presented *string,
	timeout time.Duration,
) error {
	if presented == nil || *presented == "" {
		return ErrInvalidClientSecret
	}

	now := s.now()
	for _, secret := range client.Secrets {
		if secret.Expired(now) {
			continue
		}
		ok, err := await(ctx, timeout, func(ctx context.Context) (bool, error) {
			return s.Secrets.VerifySecret(ctx, secret.Hash, *presented)
		})
		if errors.Is(err, ErrUpstreamTimeout) || errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			l.Warn("skipping unusable client secret", "error", err)
			continue
		}
		if ok {
			return nil
		}
	}
	return ErrInvalidClientSecret
}

func evalCondition(cond *celx.Condition, client domain.Client, req domain.DecisionRequest) error {
	in := celx.Input{
		Subject:   map[string][]string{},
		ClientID:  client.ID,
		GrantType: string(req.GrantType),
		Scopes:    req.Scopes,
	}
	if req.Subject != nil {
		in.Subject = req.Subject.ClaimMap()
	}

	ok, err := cond.Eval(in)
	if err != nil {
		return errors.Join(ErrAccessDenied, err)
	}
	if !ok {
		return ErrAccessDenied
	}
	return nil
}

// scopeDescriptions builds the consent screen entries for the granted scopes.
func scopeDescriptions(snap *registry.Snapshot, scopes []string) []domain.ScopeDescription {
	out := make([]domain.ScopeDescription, 0, len(scopes))
	for _, name := range scopes {
		d := domain.ScopeDescription{Name: name, DisplayName: name}
		switch {
		case name == domain.ScopeOfflineAccess:
			d.DisplayName = "Offline access"
			d.Emphasize = true
		case snap.Kind(name) == registry.ScopeIdentity:
			if ir, err := snap.IdentityResource(name); err == nil {
				d.DisplayName = firstNonEmpty(ir.DisplayName, name)
				d.Required = ir.Required
				d.Emphasize = ir.Emphasize
			}
		case snap.Kind(name) == registry.ScopeAPI:
			if api, err := snap.ApiResourceForScope(name); err == nil {
				if scope, ok := api.Scope(name); ok {
					d.DisplayName = firstNonEmpty(scope.DisplayName, api.DisplayName, name)
				}
			}
		}
		out = append(out, d)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
