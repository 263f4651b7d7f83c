package usecase

import (
	"context"
	"log/slog"
)

// ReapExpired deletes records whose code can no longer be verified.
func (s *Usecase) ReapExpired(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "ReapExpired")
	defer span.End()

	before := s.clock.Now().Add(-s.policy().ttl)

	n, err := s.repoDB.DeleteExpiredOTPs(ctx, before)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete expired otps", "before", before, "error", err)
		return 0, err
	}

	if n > 0 {
		slog.InfoContext(ctx, "expired otp records reaped", "count", n)
	}

	return n, nil
}
