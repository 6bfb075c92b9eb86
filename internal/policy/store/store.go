package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/aussiebroadwan/idpolicy/internal/policy/store Consents,PendingConsents

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for consent state. Drivers expose
// sub-repositories so transactional and non-transactional access share one
// surface.
type Store interface {
	Consents() Consents
	PendingConsents() PendingConsents

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST call Commit() or
	// Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Consents interface {
	// HasConsent reports whether subject has a consent for client covering
	// exactly scopeKey (see domain.ScopeKey) that is unexpired at now.
	HasConsent(ctx context.Context, subjectID, clientID, scopeKey string, now time.Time) (bool, error)

	// SaveConsent stores a consent, replacing any previous consent for the
	// same subject and client.
	SaveConsent(ctx context.Context, c domain.ConsentRecord) error

	// RevokeConsent removes the consent for a subject and client.
	RevokeConsent(ctx context.Context, subjectID, clientID string) error

	// DeleteExpiredConsents is housekeeping; it returns the rows removed.
	DeleteExpiredConsents(ctx context.Context, now time.Time) (int64, error)
}

type PendingConsents interface {
	// CreatePendingConsent parks a decision awaiting the user's answer.
	CreatePendingConsent(ctx context.Context, p domain.PendingConsent) error

	// TakePendingConsent removes and returns the pending consent with the
	// given token hash. Expired entries are reported as ErrNotFound, so each
	// token resolves at most once.
	TakePendingConsent(ctx context.Context, tokenHash string, now time.Time) (domain.PendingConsent, error)

	// DeleteExpiredPendingConsents is housekeeping; it returns the rows removed.
	DeleteExpiredPendingConsents(ctx context.Context, now time.Time) (int64, error)
}
