package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/store"
)

const (
	createPendingConsentQuery = `
INSERT INTO pending_consents (id, token_hash, subject_id, client_id, decision, generation, created_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	takePendingConsentQuery = `
DELETE FROM pending_consents WHERE token_hash = ?
RETURNING id, token_hash, subject_id, client_id, decision, generation, created_at, expires_at`

	deleteExpiredPendingConsentsQuery = `DELETE FROM pending_consents WHERE expires_at <= ?`
)

type pendingConsentsRepo struct {
	db dbtx
}

func (r *pendingConsentsRepo) CreatePendingConsent(ctx context.Context, p domain.PendingConsent) error {
	decision, err := json.Marshal(p.Decision)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}

	_, err = r.db.ExecContext(ctx, createPendingConsentQuery,
		p.ID,
		p.TokenHash,
		p.SubjectID,
		p.ClientID,
		string(decision),
		int64(p.Generation),
		toMillis(p.CreatedAt),
		toMillis(p.ExpiresAt),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *pendingConsentsRepo) TakePendingConsent(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (domain.PendingConsent, error) {
	var (
		p                    domain.PendingConsent
		decision             string
		generation           int64
		createdAt, expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, takePendingConsentQuery, tokenHash).Scan(
		&p.ID,
		&p.TokenHash,
		&p.SubjectID,
		&p.ClientID,
		&decision,
		&generation,
		&createdAt,
		&expiresAt,
	)
	if err != nil {
		return domain.PendingConsent{}, mapNotFound(err)
	}

	p.Generation = uint64(generation)
	p.CreatedAt = fromMillis(createdAt)
	p.ExpiresAt = fromMillis(expiresAt)
	if !now.Before(p.ExpiresAt) {
		return domain.PendingConsent{}, store.ErrNotFound
	}

	if err := json.Unmarshal([]byte(decision), &p.Decision); err != nil {
		return domain.PendingConsent{}, fmt.Errorf("decode decision: %w", err)
	}
	return p, nil
}

func (r *pendingConsentsRepo) DeleteExpiredPendingConsents(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredPendingConsentsQuery, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
