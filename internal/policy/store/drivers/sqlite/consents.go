package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
)

const (
	hasConsentQuery = `
SELECT 1 FROM consents
WHERE subject_id = ? AND client_id = ? AND scopes = ?
  AND (expires_at IS NULL OR expires_at > ?)
LIMIT 1`

	saveConsentQuery = `
INSERT INTO consents (id, subject_id, client_id, scopes, created_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (subject_id, client_id, scopes) DO UPDATE SET
    id = excluded.id,
    created_at = excluded.created_at,
    expires_at = excluded.expires_at`

	revokeConsentQuery = `DELETE FROM consents WHERE subject_id = ? AND client_id = ?`

	deleteExpiredConsentsQuery = `DELETE FROM consents WHERE expires_at IS NOT NULL AND expires_at <= ?`
)

type consentsRepo struct {
	db dbtx
}

func (r *consentsRepo) HasConsent(
	ctx context.Context,
	subjectID, clientID, scopeKey string,
	now time.Time,
) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, hasConsentQuery, subjectID, clientID, scopeKey, toMillis(now)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *consentsRepo) SaveConsent(ctx context.Context, c domain.ConsentRecord) error {
	_, err := r.db.ExecContext(ctx, saveConsentQuery,
		c.ID,
		c.SubjectID,
		c.ClientID,
		domain.ScopeKey(c.Scopes),
		toMillis(c.CreatedAt),
		mapOptionalTime(c.ExpiresAt),
	)
	return err
}

func (r *consentsRepo) RevokeConsent(ctx context.Context, subjectID, clientID string) error {
	_, err := r.db.ExecContext(ctx, revokeConsentQuery, subjectID, clientID)
	return err
}

func (r *consentsRepo) DeleteExpiredConsents(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredConsentsQuery, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
