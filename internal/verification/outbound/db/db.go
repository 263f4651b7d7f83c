package db

import (
	"context"
	"errors"
	"time"

	"github.com/dwapor/storefront/internal/pkg/goerror"
	"github.com/dwapor/storefront/internal/pkg/instrument"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DB stores verification records and account credentials in PostgreSQL.
type DB struct {
	conn    *pgxpool.Pool
	ins     instrument.Instrumentation
	timeout time.Duration
}

// NewDB bounds every call by timeout when it is positive.
func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation, timeout time.Duration) *DB {
	return &DB{conn: conn, ins: ins, timeout: timeout}
}

// - 23505 unique violation → goerror.ErrConflict
// - 40001 serialization_failure and 40P01 deadlock_detected stay as is; callers see a server error
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span, context.CancelFunc) {
	ctx, span := s.ins.Tracer("verification.outbound.db").Start(ctx, name)
	if s.timeout <= 0 {
		return ctx, span, func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return ctx, span, cancel
}

func (s *DB) endSpan(span trace.Span, cancel context.CancelFunc, err error) {
	cancel()
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
