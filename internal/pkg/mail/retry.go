package mail

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retrying retries Send on any error with a capped exponential backoff.
type Retrying struct {
	next     Mail
	attempts uint64
	base     time.Duration
	cap      time.Duration
}

// NewRetrying wraps next. attempts counts retries after the first try.
func NewRetrying(next Mail, attempts uint64, base time.Duration) *Retrying {
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	return &Retrying{next: next, attempts: attempts, base: base, cap: 5 * time.Second}
}

func (r *Retrying) Send(ctx context.Context, msg Message) error {
	b := retry.NewExponential(r.base)
	b = retry.WithCappedDuration(r.cap, b)
	b = retry.WithMaxRetries(r.attempts, b)

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := r.next.Send(ctx, msg); err != nil {
			slog.WarnContext(ctx, "mail send failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (r *Retrying) Close() error {
	return r.next.Close()
}
