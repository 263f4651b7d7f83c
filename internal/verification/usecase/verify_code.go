package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dwapor/storefront/internal/pkg/goerror"
	"github.com/dwapor/storefront/internal/pkg/otp"
	"github.com/dwapor/storefront/internal/verification/entity"
)

type VerifyCodeInput struct {
	Username string `validate:"required,username"`
	Code     string `validate:"required,numeric"`
	Purpose  string `validate:"required,oneof=signup password_reset"`
}

func (s *Usecase) VerifyCode(ctx context.Context, in VerifyCodeInput) error {
	ctx, span := s.startSpan(ctx, "VerifyCode")
	defer span.End()

	in.Username = strings.TrimSpace(strings.ToLower(in.Username))
	in.Code = strings.TrimSpace(in.Code)
	in.Purpose = entity.ParsePurpose(strings.TrimSpace(in.Purpose)).String()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}
	if n := s.generator.Length(); !otp.IsNumeric(in.Code, n) {
		return goerror.NewInvalidInput(nil, "code", fmt.Sprintf("code must be %d digits", n))
	}

	err := s.verifyCode(ctx, in)
	switch {
	case err == nil:
		count(ctx, s.verified, "verified")
	case errors.Is(err, ErrRateLimited):
		count(ctx, s.verified, "rate_limited")
	case errors.Is(err, ErrNotFound):
		count(ctx, s.verified, "not_found")
	case errors.Is(err, ErrExpired):
		count(ctx, s.verified, "expired")
	case errors.Is(err, ErrMismatch):
		count(ctx, s.verified, "mismatch")
	default:
		count(ctx, s.verified, "failed")
	}

	return err
}

func (s *Usecase) verifyCode(ctx context.Context, in VerifyCodeInput) error {
	ref := s.userRef(in.Username)
	purpose := entity.Purpose(in.Purpose)
	p := s.policy()

	locked, err := s.repoCache.IsLocked(ctx, in.Username, purpose)
	if err != nil {
		slog.ErrorContext(ctx, "failed to cache check lockout", "user_ref", ref, "error", err)
		return goerror.NewServer(err)
	}
	if locked {
		return errTooManyAttempts()
	}

	rec, err := s.repoDB.FindOTP(ctx, in.Username, purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		return errNoActiveCode()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find otp", "user_ref", ref, "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	if rec.Expired(now, p.ttl) {
		return goerror.NewBusinessCause(ErrExpired, "Verification code has expired", goerror.CodeGone)
	}

	match, err := s.codeDigest.Verify(rec.CodeDigest, in.Code)
	if err != nil {
		slog.ErrorContext(ctx, "stored code digest is malformed", "user_ref", ref, "error", err)
		return goerror.NewServer(err)
	}
	if !match {
		locked, err := s.repoCache.RecordMismatch(ctx, in.Username, purpose, p.maxAttempts, p.lockout)
		if err != nil {
			slog.ErrorContext(ctx, "failed to cache record mismatch", "user_ref", ref, "error", err)
			return goerror.NewServer(err)
		}
		if locked {
			slog.WarnContext(ctx, "verification locked after repeated mismatches", "user_ref", ref, "purpose", in.Purpose)
			return errTooManyAttempts()
		}
		return goerror.NewBusinessCause(ErrMismatch, "Invalid verification code", goerror.CodeUnauthorized)
	}

	if !rec.Promotable() {
		slog.WarnContext(ctx, "otp record has no pending password", "user_ref", ref, "purpose", in.Purpose)
		if err := s.repoDB.DeleteOTP(ctx, in.Username, purpose); err != nil {
			slog.ErrorContext(ctx, "failed to repo delete unpromotable otp", "user_ref", ref, "error", err)
		}
		return errNoActiveCode()
	}

	err = s.repoDB.PromoteCredential(ctx, *rec, now)
	if errors.Is(err, goerror.ErrNotFound) {
		return errNoActiveCode()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo promote credential", "user_ref", ref, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoCache.ResetMismatches(ctx, in.Username, purpose); err != nil {
		slog.WarnContext(ctx, "failed to cache reset mismatches", "user_ref", ref, "error", err)
	}

	slog.InfoContext(ctx, "credential promoted", "user_ref", ref, "purpose", in.Purpose)

	return nil
}

func errNoActiveCode() error {
	return goerror.NewBusinessCause(ErrNotFound, "No active verification code", goerror.CodeNotFound)
}

func errTooManyAttempts() error {
	return goerror.NewBusinessCause(ErrRateLimited, "Too many failed attempts, try again later", goerror.CodeTooManyRequest)
}
