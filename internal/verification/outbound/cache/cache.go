package cache

import (
	"context"
	"errors"
	"time"

	"github.com/dwapor/storefront/internal/pkg/instrument"
	"github.com/dwapor/storefront/internal/verification/entity"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Cache counts consecutive code mismatches per username and purpose in Redis
// and holds the lockout that follows too many of them.
type Cache struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func attemptsKey(username string, purpose entity.Purpose) string {
	return "verification:attempts:" + purpose.String() + ":" + username
}

func lockKey(username string, purpose entity.Purpose) string {
	return "verification:lock:" + purpose.String() + ":" + username
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("verification.outbound.cache").Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) IsLocked(ctx context.Context, username string, purpose entity.Purpose) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "IsLocked")
	defer func() { endSpan(span, err) }()

	n, err := c.client.Exists(ctx, lockKey(username, purpose)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// RecordMismatch counts one failed attempt. When the count reaches maxAttempts
// the username is locked for lockout, the counter is cleared and true is returned.
// The counter itself expires lockout after the last failure.
func (c *Cache) RecordMismatch(ctx context.Context, username string, purpose entity.Purpose, maxAttempts int, lockout time.Duration) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "RecordMismatch")
	defer func() { endSpan(span, err) }()

	key := attemptsKey(username, purpose)

	var incr *redis.IntCmd
	if _, err = c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, lockout)
		return nil
	}); err != nil {
		return false, err
	}

	if incr.Val() < int64(maxAttempts) {
		return false, nil
	}

	if _, err = c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, lockKey(username, purpose), "1", lockout)
		p.Del(ctx, key)
		return nil
	}); err != nil {
		return false, err
	}

	return true, nil
}

// ResetMismatches clears the failure counter after a successful verification.
func (c *Cache) ResetMismatches(ctx context.Context, username string, purpose entity.Purpose) (err error) {
	ctx, span := c.startSpan(ctx, "ResetMismatches")
	defer func() { endSpan(span, err) }()

	err = c.client.Del(ctx, attemptsKey(username, purpose)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
