package db

import (
	"context"
	"time"

	"github.com/dwapor/storefront/internal/verification/entity"
)

const upsertOTPQuery = `
INSERT INTO verification_otps (username, purpose, code, hashed_password, sent_at, email, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (username, purpose) DO UPDATE SET
	code = EXCLUDED.code,
	hashed_password = EXCLUDED.hashed_password,
	sent_at = EXCLUDED.sent_at,
	email = EXCLUDED.email,
	created_at = EXCLUDED.created_at
WHERE verification_otps.sent_at IS NULL OR verification_otps.sent_at <= $8`

// UpsertOTP writes rec unless the existing record was sent after cutoff.
// It reports whether the write was applied.
func (s *DB) UpsertOTP(ctx context.Context, rec entity.OTP, cutoff time.Time) (_ bool, err error) {
	ctx, span, cancel := s.startSpan(ctx, "UpsertOTP")
	defer func() { s.endSpan(span, cancel, err) }()

	tag, err := s.conn.Exec(ctx, upsertOTPQuery,
		rec.Username, rec.Purpose.String(), rec.CodeDigest, rec.HashedPassword,
		rec.SentAt, nullString(rec.Email), rec.CreatedAt, cutoff)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

const findOTPQuery = `
SELECT username, purpose, code, hashed_password, sent_at, email, created_at
FROM verification_otps
WHERE username = $1 AND purpose = $2`

func (s *DB) FindOTP(ctx context.Context, username string, purpose entity.Purpose) (_ *entity.OTP, err error) {
	ctx, span, cancel := s.startSpan(ctx, "FindOTP")
	defer func() { s.endSpan(span, cancel, err) }()

	var (
		rec   entity.OTP
		p     string
		email *string
	)
	err = s.conn.QueryRow(ctx, findOTPQuery, username, purpose.String()).
		Scan(&rec.Username, &p, &rec.CodeDigest, &rec.HashedPassword, &rec.SentAt, &email, &rec.CreatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	rec.Purpose = entity.Purpose(p)
	if email != nil {
		rec.Email = *email
	}

	return &rec, nil
}

// DeleteOTP is idempotent.
func (s *DB) DeleteOTP(ctx context.Context, username string, purpose entity.Purpose) (err error) {
	ctx, span, cancel := s.startSpan(ctx, "DeleteOTP")
	defer func() { s.endSpan(span, cancel, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM verification_otps WHERE username = $1 AND purpose = $2`,
		username, purpose.String())
	return s.mapError(err)
}

const deleteExpiredOTPsQuery = `
DELETE FROM verification_otps
WHERE (sent_at IS NOT NULL AND sent_at < $1) OR (sent_at IS NULL AND created_at < $1)`

// DeleteExpiredOTPs removes records last sent, or created when never sent, before the given time.
func (s *DB) DeleteExpiredOTPs(ctx context.Context, before time.Time) (_ int64, err error) {
	ctx, span, cancel := s.startSpan(ctx, "DeleteExpiredOTPs")
	defer func() { s.endSpan(span, cancel, err) }()

	tag, err := s.conn.Exec(ctx, deleteExpiredOTPsQuery, before)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
