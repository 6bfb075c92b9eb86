package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/store"
	"github.com/aussiebroadwan/idpolicy/pkg/cryptox"
	"github.com/aussiebroadwan/idpolicy/pkg/idx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(DSN(filepath.Join(t.TempDir(), "idpolicy.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestConsents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	scopes := []string{"openid", "api1", "profile"}

	has, err := s.Consents().HasConsent(ctx, "alice", "angular-client", domain.ScopeKey(scopes), now)
	require.NoError(t, err)
	require.False(t, has)

	expires := now.Add(time.Hour)
	require.NoError(t, s.Consents().SaveConsent(ctx, domain.ConsentRecord{
		ID:        idx.New().String(),
		SubjectID: "alice",
		ClientID:  "angular-client",
		Scopes:    scopes,
		CreatedAt: now,
		ExpiresAt: &expires,
	}))

	t.Run("exact scope set matches in any order", func(t *testing.T) {
		has, err := s.Consents().HasConsent(ctx, "alice", "angular-client", domain.ScopeKey([]string{"profile", "openid", "api1"}), now)
		require.NoError(t, err)
		require.True(t, has)
	})

	t.Run("subset does not match", func(t *testing.T) {
		has, err := s.Consents().HasConsent(ctx, "alice", "angular-client", domain.ScopeKey([]string{"openid"}), now)
		require.NoError(t, err)
		require.False(t, has)
	})

	t.Run("other subject does not match", func(t *testing.T) {
		has, err := s.Consents().HasConsent(ctx, "bob", "angular-client", domain.ScopeKey(scopes), now)
		require.NoError(t, err)
		require.False(t, has)
	})

	t.Run("expired consent does not match", func(t *testing.T) {
		has, err := s.Consents().HasConsent(ctx, "alice", "angular-client", domain.ScopeKey(scopes), expires.Add(time.Second))
		require.NoError(t, err)
		require.False(t, has)
	})
}

func TestSaveConsentPerScopeSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	for _, scopes := range [][]string{{"openid"}, {"openid", "email"}} {
		require.NoError(t, s.Consents().SaveConsent(ctx, domain.ConsentRecord{
			ID:        idx.New().String(),
			SubjectID: "alice",
			ClientID:  "react-client",
			Scopes:    scopes,
			CreatedAt: now,
		}))
	}

	// A second scope set is remembered alongside the first.
	has, err := s.Consents().HasConsent(ctx, "alice", "react-client", "openid", now)
	require.NoError(t, err)
	require.True(t, has)

	has, err = s.Consents().HasConsent(ctx, "alice", "react-client", "email openid", now.Add(24*365*time.Hour))
	require.NoError(t, err)
	require.True(t, has, "consent without expiry never expires")

	// Saving the same scope set again refreshes the record in place.
	expires := now.Add(time.Hour)
	require.NoError(t, s.Consents().SaveConsent(ctx, domain.ConsentRecord{
		ID:        idx.New().String(),
		SubjectID: "alice",
		ClientID:  "react-client",
		Scopes:    []string{"email", "openid"},
		CreatedAt: now,
		ExpiresAt: &expires,
	}))
	has, err = s.Consents().HasConsent(ctx, "alice", "react-client", "email openid", now.Add(2*time.Hour))
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, s.Consents().RevokeConsent(ctx, "alice", "react-client"))
	for _, key := range []string{"openid", "email openid"} {
		has, err = s.Consents().HasConsent(ctx, "alice", "react-client", key, now)
		require.NoError(t, err)
		require.False(t, has, key)
	}
}

func TestDeleteExpiredConsents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	past := now.Add(-time.Minute)

	require.NoError(t, s.Consents().SaveConsent(ctx, domain.ConsentRecord{
		ID: idx.New().String(), SubjectID: "alice", ClientID: "a", Scopes: []string{"openid"}, CreatedAt: now, ExpiresAt: &past,
	}))
	require.NoError(t, s.Consents().SaveConsent(ctx, domain.ConsentRecord{
		ID: idx.New().String(), SubjectID: "alice", ClientID: "b", Scopes: []string{"openid"}, CreatedAt: now,
	}))

	n, err := s.Consents().DeleteExpiredConsents(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	has, err := s.Consents().HasConsent(ctx, "alice", "b", "openid", now)
	require.NoError(t, err)
	require.True(t, has)
}

func pending(t *testing.T, expiresAt time.Time) (string, domain.PendingConsent) {
	t.Helper()

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)

	return token, domain.PendingConsent{
		ID:        idx.New().String(),
		TokenHash: cryptox.FingerprintToken(token),
		SubjectID: "alice",
		ClientID:  "angular-client",
		Decision: domain.AuthorizationDecision{
			ClientID:            "angular-client",
			SubjectID:           "alice",
			GrantType:           domain.GrantImplicit,
			Scopes:              []string{"openid", "api1"},
			IdentityScopes:      []string{"openid"},
			Resources:           []domain.ResourceGrant{{Resource: "api1", Scopes: []string{"api1"}}},
			IssueIdentityToken:  true,
			IssueAccessToken:    true,
			AccessTokenType:     domain.TokenTypeJWT,
			AccessTokenLifetime: 5 * time.Minute,
		},
		Generation: 3,
		CreatedAt:  time.Now(),
		ExpiresAt:  expiresAt,
	}
}

func TestPendingConsents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	t.Run("take is single use", func(t *testing.T) {
		token, p := pending(t, now.Add(10*time.Minute))
		require.NoError(t, s.PendingConsents().CreatePendingConsent(ctx, p))

		got, err := s.PendingConsents().TakePendingConsent(ctx, cryptox.FingerprintToken(token), now)
		require.NoError(t, err)
		require.Equal(t, p.ID, got.ID)
		require.Equal(t, p.Decision, got.Decision)
		require.Equal(t, uint64(3), got.Generation)
		require.WithinDuration(t, p.ExpiresAt, got.ExpiresAt, time.Millisecond)

		_, err = s.PendingConsents().TakePendingConsent(ctx, cryptox.FingerprintToken(token), now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("expired is not found", func(t *testing.T) {
		token, p := pending(t, now.Add(-time.Second))
		require.NoError(t, s.PendingConsents().CreatePendingConsent(ctx, p))

		_, err := s.PendingConsents().TakePendingConsent(ctx, cryptox.FingerprintToken(token), now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate token hash", func(t *testing.T) {
		_, p := pending(t, now.Add(time.Minute))
		require.NoError(t, s.PendingConsents().CreatePendingConsent(ctx, p))

		p.ID = idx.New().String()
		err := s.PendingConsents().CreatePendingConsent(ctx, p)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})
}

func TestDeleteExpiredPendingConsents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	_, stale := pending(t, now.Add(-time.Minute))
	freshToken, fresh := pending(t, now.Add(time.Minute))
	require.NoError(t, s.PendingConsents().CreatePendingConsent(ctx, stale))
	require.NoError(t, s.PendingConsents().CreatePendingConsent(ctx, fresh))

	n, err := s.PendingConsents().DeleteExpiredPendingConsents(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = s.PendingConsents().TakePendingConsent(ctx, cryptox.FingerprintToken(freshToken), now)
	require.NoError(t, err)
}

func TestWithTx(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Consents().SaveConsent(ctx, domain.ConsentRecord{
			ID: idx.New().String(), SubjectID: "alice", ClientID: "a", Scopes: []string{"openid"}, CreatedAt: now,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	has, err := s.Consents().HasConsent(ctx, "alice", "a", "openid", now)
	require.NoError(t, err)
	require.False(t, has, "rolled back")

	err = s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Consents().SaveConsent(ctx, domain.ConsentRecord{
			ID: idx.New().String(), SubjectID: "alice", ClientID: "a", Scopes: []string{"openid"}, CreatedAt: now,
		})
	})
	require.NoError(t, err)

	has, err = s.Consents().HasConsent(ctx, "alice", "a", "openid", now)
	require.NoError(t, err)
	require.True(t, has)
}
