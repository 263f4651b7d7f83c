package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrInvalidState      = errors.New("invalid idempotency state")
)

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

func (s State) String() string {
	return string(s)
}

const completedPrefix = string(StateCompleted) + ":"

// Idempotency deduplicates retried requests carrying the same key.
type Idempotency interface {
	// Do runs fn once per key. A retry after success gets the stored result
	// without running fn; a retry while fn is running gets ErrAlreadyInProgress.
	// A failed fn releases the key so the caller may try again.
	Do(ctx context.Context, key string, fn func(context.Context) ([]byte, error), opts ...Option) ([]byte, error)
}

type Option func(*options)

type options struct {
	lockDuration time.Duration
	resultTTL    time.Duration
}

const (
	defaultLockDuration = time.Minute
	defaultResultTTL    = 10 * time.Minute
)

func WithResultTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.resultTTL = d
		}
	}
}

// StateTracker keeps idempotency state in Redis.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient) *StateTracker {
	return &StateTracker{client: client, prefix: "idempotency:"}
}

// Acquire takes the key if free. Otherwise it reports the current state and,
// for a completed key, the stored result.
func (s *StateTracker) Acquire(ctx context.Context, key string, lock time.Duration) (State, []byte, error) {
	fk := s.prefix + key

	ok, err := s.client.SetNX(ctx, fk, StateInProgress.String(), lock).Result()
	if err != nil {
		return StateNone, nil, err
	}
	if ok {
		return StateNone, nil, nil
	}

	val, err := s.client.Get(ctx, fk).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return s.Acquire(ctx, key, lock)
	}
	if err != nil {
		return StateNone, nil, err
	}

	switch {
	case val == StateInProgress.String():
		return StateInProgress, nil, nil
	case strings.HasPrefix(val, completedPrefix):
		return StateCompleted, []byte(val[len(completedPrefix):]), nil
	default:
		return StateNone, nil, ErrInvalidState
	}
}

func (s *StateTracker) Do(ctx context.Context, key string, fn func(context.Context) ([]byte, error), opts ...Option) ([]byte, error) {
	o := &options{lockDuration: defaultLockDuration, resultTTL: defaultResultTTL}
	for _, opt := range opts {
		opt(o)
	}

	state, stored, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return nil, err
	}

	switch state {
	case StateInProgress:
		return nil, ErrAlreadyInProgress
	case StateCompleted:
		return stored, nil
	}

	result, err := fn(ctx)
	if err != nil {
		if delErr := s.client.Del(context.WithoutCancel(ctx), s.prefix+key).Err(); delErr != nil {
			return nil, errors.Join(err, delErr)
		}
		return nil, err
	}

	if err := s.client.Set(ctx, s.prefix+key, completedPrefix+string(result), o.resultTTL).Err(); err != nil {
		return nil, err
	}

	return result, nil
}
