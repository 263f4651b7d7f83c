package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dwapor/storefront/internal/pkg/goerror"
	"github.com/dwapor/storefront/internal/verification/entity"
	"github.com/jackc/pgx/v5"
)

const consumeOTPQuery = `
DELETE FROM verification_otps
WHERE username = $1 AND purpose = $2 AND code = $3 AND sent_at IS NOT DISTINCT FROM $4
RETURNING hashed_password`

const upsertCredentialQuery = `
INSERT INTO account_credentials (username, hashed_password, created_at, updated_at)
VALUES ($1, $2, $3, $3)
ON CONFLICT (username) DO UPDATE SET
	hashed_password = EXCLUDED.hashed_password,
	updated_at = EXCLUDED.updated_at`

// PromoteCredential consumes rec and writes its pending password as the
// account credential in one transaction. The record must still match the one
// that was read: a record already consumed or reissued yields goerror.ErrNotFound.
func (s *DB) PromoteCredential(ctx context.Context, rec entity.OTP, at time.Time) (err error) {
	ctx, span, cancel := s.startSpan(ctx, "PromoteCredential")
	defer func() { s.endSpan(span, cancel, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	var hashed string
	err = tx.QueryRow(ctx, consumeOTPQuery, rec.Username, rec.Purpose.String(), rec.CodeDigest, rec.SentAt).Scan(&hashed)
	if err != nil {
		return s.mapError(err)
	}
	if hashed == "" {
		return goerror.ErrNotFound
	}

	if _, err = tx.Exec(ctx, upsertCredentialQuery, rec.Username, hashed, at); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) AccountExists(ctx context.Context, username string) (_ bool, err error) {
	ctx, span, cancel := s.startSpan(ctx, "AccountExists")
	defer func() { s.endSpan(span, cancel, err) }()

	var exists bool
	err = s.conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM account_credentials WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, s.mapError(err)
	}

	return exists, nil
}

// GetCredential returns the promoted credential for username.
func (s *DB) GetCredential(ctx context.Context, username string) (_ *entity.Credential, err error) {
	ctx, span, cancel := s.startSpan(ctx, "GetCredential")
	defer func() { s.endSpan(span, cancel, err) }()

	var c entity.Credential
	err = s.conn.QueryRow(ctx, `
SELECT username, hashed_password, created_at, updated_at
FROM account_credentials WHERE username = $1`, username).
		Scan(&c.Username, &c.HashedPassword, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &c, nil
}
