package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	storemocks "github.com/aussiebroadwan/idpolicy/internal/policy/store/mocks"
	"github.com/aussiebroadwan/idpolicy/pkg/slogx"
)

func TestHousekeepingCleanup(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("deletes both kinds", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		consents := storemocks.NewMockConsents(ctrl)
		pending := storemocks.NewMockPendingConsents(ctrl)

		pending.EXPECT().DeleteExpiredPendingConsents(gomock.Any(), now).Return(int64(2), nil)
		consents.EXPECT().DeleteExpiredConsents(gomock.Any(), now).Return(int64(1), nil)

		hk := &HousekeepingService{
			Consents:        consents,
			PendingConsents: pending,
			Logger:          slogx.Discard(),
			Now:             func() time.Time { return now },
		}
		hk.Cleanup(context.Background())
	})

	t.Run("one failure does not stop the other", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		consents := storemocks.NewMockConsents(ctrl)
		pending := storemocks.NewMockPendingConsents(ctrl)

		pending.EXPECT().DeleteExpiredPendingConsents(gomock.Any(), now).Return(int64(0), errors.New("locked"))
		consents.EXPECT().DeleteExpiredConsents(gomock.Any(), now).Return(int64(3), nil)

		hk := &HousekeepingService{
			Consents:        consents,
			PendingConsents: pending,
			Logger:          slogx.Discard(),
			Now:             func() time.Time { return now },
		}
		hk.Cleanup(context.Background())
	})
}

func TestHousekeepingAgainstSQLite(t *testing.T) {
	t.Parallel()

	db := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)

	require.NoError(t, db.Consents().SaveConsent(ctx, domain.ConsentRecord{
		ID: "c1", SubjectID: "alice", ClientID: "app", Scopes: []string{"openid"},
		CreatedAt: past.Add(-time.Hour), ExpiresAt: &past,
	}))
	require.NoError(t, db.Consents().SaveConsent(ctx, domain.ConsentRecord{
		ID: "c2", SubjectID: "bob", ClientID: "app", Scopes: []string{"openid"},
		CreatedAt: past,
	}))
	require.NoError(t, db.PendingConsents().CreatePendingConsent(ctx, domain.PendingConsent{
		ID: "p1", TokenHash: "h1", SubjectID: "alice", ClientID: "app",
		CreatedAt: past.Add(-time.Hour), ExpiresAt: past,
	}))

	hk := NewHousekeepingService(db, slogx.Discard(), time.Hour)
	hk.Now = func() time.Time { return now }
	hk.Cleanup(ctx)

	has, err := db.Consents().HasConsent(ctx, "bob", "app", "openid", now)
	require.NoError(t, err)
	require.True(t, has)

	n, err := db.Consents().DeleteExpiredConsents(ctx, now)
	require.NoError(t, err)
	require.Zero(t, n)
	n, err = db.PendingConsents().DeleteExpiredPendingConsents(ctx, now)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestHousekeepingStartStop(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	consents := storemocks.NewMockConsents(ctrl)
	pending := storemocks.NewMockPendingConsents(ctrl)

	ran := make(chan struct{}, 1)
	pending.EXPECT().DeleteExpiredPendingConsents(gomock.Any(), gomock.Any()).Return(int64(0), nil).MinTimes(1)
	consents.EXPECT().DeleteExpiredConsents(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, time.Time) (int64, error) {
			select {
			case ran <- struct{}{}:
			default:
			}
			return 0, nil
		}).MinTimes(1)

	hk := &HousekeepingService{
		Consents:        consents,
		PendingConsents: pending,
		Logger:          slogx.Discard(),
		Interval:        time.Hour,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
	hk.Start()
	<-ran
	hk.Stop()
}
