package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dwapor/storefront/internal/pkg/clock"
	"github.com/dwapor/storefront/internal/pkg/config"
	"github.com/dwapor/storefront/internal/pkg/hash"
	"github.com/dwapor/storefront/internal/pkg/idempotency"
	"github.com/dwapor/storefront/internal/pkg/instrument"
	"github.com/dwapor/storefront/internal/pkg/otp"
	"github.com/dwapor/storefront/internal/pkg/validator"
	"github.com/dwapor/storefront/internal/verification/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Sentinels wrapped by the business errors this package returns.
var (
	ErrRateLimited   = errors.New("verification: rate limited")
	ErrNotFound      = errors.New("verification: no active code")
	ErrExpired       = errors.New("verification: code expired")
	ErrMismatch      = errors.New("verification: code mismatch")
	ErrAccountExists = errors.New("verification: account already verified")
)

// CodeDispatch is what the dispatch collaborator needs to deliver a code.
type CodeDispatch struct {
	Username  string
	Email     string
	Purpose   entity.Purpose
	Code      string
	ExpiresAt time.Time
}

type repoDB interface {
	UpsertOTP(ctx context.Context, rec entity.OTP, cutoff time.Time) (bool, error)
	FindOTP(ctx context.Context, username string, purpose entity.Purpose) (*entity.OTP, error)
	DeleteOTP(ctx context.Context, username string, purpose entity.Purpose) error
	PromoteCredential(ctx context.Context, rec entity.OTP, at time.Time) error
	AccountExists(ctx context.Context, username string) (bool, error)
	DeleteExpiredOTPs(ctx context.Context, before time.Time) (int64, error)
}

type repoCache interface {
	IsLocked(ctx context.Context, username string, purpose entity.Purpose) (bool, error)
	RecordMismatch(ctx context.Context, username string, purpose entity.Purpose, maxAttempts int, lockout time.Duration) (bool, error)
	ResetMismatches(ctx context.Context, username string, purpose entity.Purpose) error
}

type repoDispatch interface {
	DispatchCode(ctx context.Context, msg CodeDispatch) error
}

type Usecase struct {
	repoDB       repoDB
	repoCache    repoCache
	repoDispatch repoDispatch
	idemp        idempotency.Idempotency
	validator    validator.Validator
	cfg          config.Config
	generator    otp.Generator
	hasher       hash.Hash
	codeDigest   hash.Hash
	clock        clock.Clocker
	ins          instrument.Instrumentation

	issued   metric.Int64Counter
	verified metric.Int64Counter
}

type Dependency struct {
	RepoDB       repoDB
	RepoCache    repoCache
	RepoDispatch repoDispatch
	Idempotency  idempotency.Idempotency
	Validator    validator.Validator
	Config       config.Config
	Generator    otp.Generator
	Hasher       hash.Hash
	CodeDigest   hash.Hash
	Clock        clock.Clocker
	Instrument   instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	meter := dep.Instrument.Meter("verification.usecase")
	issued, err := meter.Int64Counter("verification.code.requests",
		metric.WithDescription("Verification code requests by outcome"))
	if err != nil {
		slog.Warn("failed to create metric", "name", "verification.code.requests", "error", err)
	}
	verified, err := meter.Int64Counter("verification.code.verifications",
		metric.WithDescription("Verification attempts by outcome"))
	if err != nil {
		slog.Warn("failed to create metric", "name", "verification.code.verifications", "error", err)
	}

	return &Usecase{
		repoDB:       dep.RepoDB,
		repoCache:    dep.RepoCache,
		repoDispatch: dep.RepoDispatch,
		idemp:        dep.Idempotency,
		validator:    dep.Validator,
		cfg:          dep.Config,
		generator:    dep.Generator,
		hasher:       dep.Hasher,
		codeDigest:   dep.CodeDigest,
		clock:        dep.Clock,
		ins:          dep.Instrument,
		issued:       issued,
		verified:     verified,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.usecase").Start(ctx, name)
}

func count(ctx context.Context, c metric.Int64Counter, outcome string) {
	if c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// policy is read on every call so a config reload applies to the next request.
type policy struct {
	ttl            time.Duration
	resendInterval time.Duration
	maxAttempts    int
	lockout        time.Duration
	requireEmail   bool
	idempotencyTTL time.Duration
}

func (s *Usecase) policy() policy {
	p := policy{
		ttl:            s.cfg.GetSecond("modules.verification.ttl_seconds"),
		resendInterval: s.cfg.GetSecond("modules.verification.resend_interval_seconds"),
		maxAttempts:    s.cfg.GetInt("modules.verification.max_attempts"),
		lockout:        s.cfg.GetSecond("modules.verification.lockout_seconds"),
		requireEmail:   s.cfg.GetString("modules.verification.dispatch.driver") != "log",
		idempotencyTTL: s.cfg.GetSecond("modules.verification.idempotency_ttl_seconds"),
	}
	if p.ttl <= 0 {
		p.ttl = 10 * time.Minute
	}
	if p.resendInterval <= 0 {
		p.resendInterval = time.Minute
	}
	if p.maxAttempts <= 0 {
		p.maxAttempts = 5
	}
	if p.lockout <= 0 {
		p.lockout = 15 * time.Minute
	}
	return p
}

// userRef is a stable pseudonym for logs; usernames are never logged verbatim.
func (s *Usecase) userRef(username string) string {
	d, err := s.codeDigest.Hash("user:" + username)
	if err != nil || len(d) < 12 {
		return "unknown"
	}
	return string(d[:12])
}
