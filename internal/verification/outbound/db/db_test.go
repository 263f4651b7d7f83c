package db

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dwapor/storefront/internal/pkg/goerror"
	"github.com/dwapor/storefront/internal/pkg/instrument"
	"github.com/dwapor/storefront/internal/verification/entity"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	migrations := filepath.Join("..", "..", "..", "..", "migrations")

	pgC, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		postgres.WithInitScripts(
			filepath.Join(migrations, "000001_create_verification_otps.up.sql"),
			filepath.Join(migrations, "000002_create_account_credentials.up.sql"),
		),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pgC)
	require.NoError(t, err)

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewDB(pool, instrument.NewNoop(), 5*time.Second)
}

func otpAt(username, digest, hashed string, sentAt time.Time) entity.OTP {
	return entity.OTP{
		Username:       username,
		Purpose:        entity.PurposeSignup,
		CodeDigest:     digest,
		HashedPassword: hashed,
		SentAt:         &sentAt,
		Email:          username + "@example.com",
		CreatedAt:      sentAt,
	}
}

func TestDB(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("upsert respects the resend cutoff", func(t *testing.T) {
		applied, err := db.UpsertOTP(ctx, otpAt("alice", "digest-1", "hash-1", t0), t0.Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, applied)

		applied, err = db.UpsertOTP(ctx, otpAt("alice", "digest-2", "hash-2", t0.Add(30*time.Second)), t0.Add(-30*time.Second))
		require.NoError(t, err)
		assert.False(t, applied)

		rec, err := db.FindOTP(ctx, "alice", entity.PurposeSignup)
		require.NoError(t, err)
		assert.Equal(t, "digest-1", rec.CodeDigest)
		assert.Equal(t, "hash-1", rec.HashedPassword)
		assert.Equal(t, "alice@example.com", rec.Email)
		require.NotNil(t, rec.SentAt)
		assert.True(t, t0.Equal(*rec.SentAt))

		applied, err = db.UpsertOTP(ctx, otpAt("alice", "digest-3", "hash-3", t0.Add(2*time.Minute)), t0.Add(time.Minute))
		require.NoError(t, err)
		assert.True(t, applied)

		rec, err = db.FindOTP(ctx, "alice", entity.PurposeSignup)
		require.NoError(t, err)
		assert.Equal(t, "digest-3", rec.CodeDigest)
		assert.Equal(t, "hash-3", rec.HashedPassword)
	})

	t.Run("find and delete", func(t *testing.T) {
		_, err := db.FindOTP(ctx, "nobody", entity.PurposeSignup)
		require.ErrorIs(t, err, goerror.ErrNotFound)

		require.NoError(t, db.DeleteOTP(ctx, "alice", entity.PurposeSignup))
		require.NoError(t, db.DeleteOTP(ctx, "alice", entity.PurposeSignup))

		_, err = db.FindOTP(ctx, "alice", entity.PurposeSignup)
		require.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("promote consumes the record once", func(t *testing.T) {
		_, err := db.UpsertOTP(ctx, otpAt("bob", "digest-b", "hash-b", t0), t0)
		require.NoError(t, err)

		rec, err := db.FindOTP(ctx, "bob", entity.PurposeSignup)
		require.NoError(t, err)

		require.NoError(t, db.PromoteCredential(ctx, *rec, t0.Add(time.Minute)))
		require.ErrorIs(t, db.PromoteCredential(ctx, *rec, t0.Add(time.Minute)), goerror.ErrNotFound)

		exists, err := db.AccountExists(ctx, "bob")
		require.NoError(t, err)
		assert.True(t, exists)

		cred, err := db.GetCredential(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, "hash-b", cred.HashedPassword)

		_, err = db.FindOTP(ctx, "bob", entity.PurposeSignup)
		require.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("promote of a reissued record fails", func(t *testing.T) {
		_, err := db.UpsertOTP(ctx, otpAt("carol", "digest-old", "hash-old", t0), t0)
		require.NoError(t, err)
		stale, err := db.FindOTP(ctx, "carol", entity.PurposeSignup)
		require.NoError(t, err)

		_, err = db.UpsertOTP(ctx, otpAt("carol", "digest-new", "hash-new", t0.Add(2*time.Minute)), t0.Add(time.Minute))
		require.NoError(t, err)

		require.ErrorIs(t, db.PromoteCredential(ctx, *stale, t0), goerror.ErrNotFound)

		exists, err := db.AccountExists(ctx, "carol")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("empty pending password is not promotable", func(t *testing.T) {
		_, err := db.UpsertOTP(ctx, otpAt("dave", "digest-d", "", t0), t0)
		require.NoError(t, err)
		rec, err := db.FindOTP(ctx, "dave", entity.PurposeSignup)
		require.NoError(t, err)

		require.ErrorIs(t, db.PromoteCredential(ctx, *rec, t0), goerror.ErrNotFound)

		_, err = db.FindOTP(ctx, "dave", entity.PurposeSignup)
		require.NoError(t, err, "rolled back promotion keeps the record")
	})

	t.Run("concurrent promotions succeed exactly once", func(t *testing.T) {
		_, err := db.UpsertOTP(ctx, otpAt("erin", "digest-e", "hash-e", t0), t0)
		require.NoError(t, err)
		rec, err := db.FindOTP(ctx, "erin", entity.PurposeSignup)
		require.NoError(t, err)

		const n = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			notFound  int
		)
		for range n {
			wg.Go(func() {
				err := db.PromoteCredential(ctx, *rec, t0)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case assert.ErrorIs(t, err, goerror.ErrNotFound):
					notFound++
				}
			})
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, n-1, notFound)
	})

	t.Run("reaper deletes only old records", func(t *testing.T) {
		_, err := db.UpsertOTP(ctx, otpAt("old", "d", "h", t0.Add(-time.Hour)), t0)
		require.NoError(t, err)
		_, err = db.UpsertOTP(ctx, otpAt("fresh", "d", "h", t0), t0)
		require.NoError(t, err)

		n, err := db.DeleteExpiredOTPs(ctx, t0.Add(-10*time.Minute))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(1))

		_, err = db.FindOTP(ctx, "old", entity.PurposeSignup)
		require.ErrorIs(t, err, goerror.ErrNotFound)
		_, err = db.FindOTP(ctx, "fresh", entity.PurposeSignup)
		require.NoError(t, err)
	})
}
