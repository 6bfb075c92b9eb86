package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
	"github.com/aussiebroadwan/idpolicy/internal/policy/store"
	"github.com/aussiebroadwan/idpolicy/pkg/cryptox"
	"github.com/aussiebroadwan/idpolicy/pkg/idx"
	"github.com/aussiebroadwan/idpolicy/pkg/slogx"
)

// gateConsent decides whether dec needs the user's approval. Only
// interactive grants of clients requiring consent are gated, and a stored
// consent for exactly the granted scope set satisfies the gate.
func (s *DecisionService) gateConsent(
	ctx context.Context,
	snap *registry.Snapshot,
	client domain.Client,
	req domain.DecisionRequest,
	dec *domain.AuthorizationDecision,
	timeout time.Duration,
) error {
	if !client.RequireConsent || !req.GrantType.Interactive() {
		return nil
	}
	if req.Subject == nil || req.Subject.SubjectID == "" {
		return ErrSubjectRequired
	}

	subjectID := req.Subject.SubjectID
	key := domain.ScopeKey(dec.Scopes)

	has, err := await(ctx, timeout, func(ctx context.Context) (bool, error) {
		return s.Consents.HasConsent(ctx, subjectID, client.ID, key, s.now())
	})
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	now := s.now()
	ttl := s.PendingConsentTTL
	if ttl <= 0 {
		ttl = DefaultPendingConsentTTL
	}
	pending := domain.PendingConsent{
		ID:         idx.NewAt(now).String(),
		TokenHash:  cryptox.FingerprintToken(token),
		SubjectID:  subjectID,
		ClientID:   client.ID,
		Decision:   *dec,
		Generation: snap.Generation(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}

	_, err = await(ctx, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.PendingConsents.CreatePendingConsent(ctx, pending)
	})
	if err != nil {
		return err
	}

	return &ConsentRequiredError{Challenge: domain.ConsentChallenge{
		Token:      token,
		ClientID:   client.ID,
		ClientName: firstNonEmpty(client.Name, client.ID),
		ClientURI:  client.ClientURI,
		LogoURI:    client.LogoURI,
		Scopes:     scopeDescriptions(snap, dec.Scopes),
		ExpiresAt:  pending.ExpiresAt,
	}}
}

// ResolveConsent answers a consent challenge. The token is consumed on
// first use whatever the outcome. On approval the consent is remembered for
// the client's consent lifetime and the parked decision is completed with
// claims projected against the snapshot it was made on. A challenge issued
// before a registry reload can no longer be completed and reports
// ErrConsentNotFound, so the caller decides again.
func (s *DecisionService) ResolveConsent(
	ctx context.Context,
	ans domain.ConsentAnswer,
) (*domain.AuthorizationDecision, error) {
	l := slogx.FromContext(ctx)
	timeout := s.timeout(ans.UpstreamTimeout)
	subject := ans.Subject

	pending, err := await(ctx, timeout, func(ctx context.Context) (domain.PendingConsent, error) {
		return s.PendingConsents.TakePendingConsent(ctx, cryptox.FingerprintToken(ans.Token), s.now())
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrConsentNotFound
	}
	if err != nil {
		return nil, err
	}

	l = l.With("client_id", pending.ClientID, "consent_id", pending.ID)

	if subject == nil || subject.SubjectID != pending.SubjectID {
		l.Warn("consent answered by a different subject")
		return nil, ErrConsentSubjectMismatch
	}
	if !ans.Approve {
		l.Info("consent denied")
		return nil, ErrConsentDenied
	}

	snap, err := s.Registry.Snapshot()
	if err != nil {
		return nil, err
	}
	if snap.Generation() != pending.Generation {
		l.Info("consent answered after a registry reload",
			"challenge_generation", pending.Generation, "generation", snap.Generation())
		return nil, fmt.Errorf("%w: registry reloaded since the challenge", ErrConsentNotFound)
	}
	client, err := snap.Client(pending.ClientID)
	if err != nil || !client.Enabled {
		return nil, ErrUnknownClient
	}

	now := s.now()
	record := domain.ConsentRecord{
		ID:        idx.NewAt(now).String(),
		SubjectID: pending.SubjectID,
		ClientID:  pending.ClientID,
		Scopes:    pending.Decision.Scopes,
		CreatedAt: now,
	}
	if client.ConsentLifetime > 0 {
		expires := now.Add(client.ConsentLifetime)
		record.ExpiresAt = &expires
	}

	_, err = await(ctx, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.Consents.SaveConsent(ctx, record)
	})
	if err != nil {
		return nil, fmt.Errorf("save consent: %w", err)
	}
	l.Info("consent granted", "scopes", record.Scopes)

	dec := pending.Decision
	ProjectClaims(snap, client, &dec, subject)
	return &dec, nil
}

// RevokeConsent forgets every remembered consent subjectID gave clientID,
// so the next interactive request for that client asks again. A zero
// timeout uses the engine default.
func (s *DecisionService) RevokeConsent(ctx context.Context, subjectID, clientID string, timeout time.Duration) error {
	_, err := await(ctx, s.timeout(timeout), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.Consents.RevokeConsent(ctx, subjectID, clientID)
	})
	if err != nil {
		return fmt.Errorf("revoke consent: %w", err)
	}
	slogx.FromContext(ctx).Info("consent revoked", "client_id", clientID)
	return nil
}
