package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dwapor/storefront/internal/pkg/goerror"
	"github.com/dwapor/storefront/internal/pkg/hash"
	"github.com/dwapor/storefront/internal/pkg/idempotency"
	"github.com/dwapor/storefront/internal/verification/entity"
)

type RequestCodeInput struct {
	Username       string `validate:"required,username"`
	Password       string `validate:"required,password"`
	Purpose        string `validate:"required,oneof=signup password_reset"`
	Email          string `validate:"omitempty,email,max=254"`
	IdempotencyKey string `validate:"omitempty,max=128"`
}

type RequestCodeOutput struct {
	ResendAfter time.Duration `json:"resend_after"`
	ExpiresIn   time.Duration `json:"expires_in"`
}

func (s *Usecase) RequestCode(ctx context.Context, in RequestCodeInput) (*RequestCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestCode")
	defer span.End()

	in.Username = strings.TrimSpace(strings.ToLower(in.Username))
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Purpose = entity.ParsePurpose(strings.TrimSpace(in.Purpose)).String()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	p := s.policy()
	if p.requireEmail && in.Email == "" {
		return nil, goerror.NewInvalidInput(nil, "email", "email is required to deliver the code")
	}

	if in.IdempotencyKey == "" || s.idemp == nil {
		out, err := s.requestCode(ctx, in, p)
		s.countRequest(ctx, err)
		return out, err
	}

	key := "verification:request-code:" + in.Purpose + ":" + in.Username + ":" + in.IdempotencyKey
	raw, err := s.idemp.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		out, err := s.requestCode(ctx, in, p)
		s.countRequest(ctx, err)
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	}, idempotency.WithResultTTL(p.idempotencyTTL))

	var gerr *goerror.Error
	switch {
	case errors.As(err, &gerr):
		return nil, err
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return nil, goerror.NewBusiness("A request with this idempotency key is still in progress", goerror.CodeConflict)
	case err != nil:
		slog.ErrorContext(ctx, "failed to run idempotent request code", "user_ref", s.userRef(in.Username), "error", err)
		return nil, goerror.NewServer(err)
	}

	var out RequestCodeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.ErrorContext(ctx, "failed to decode stored request code result", "user_ref", s.userRef(in.Username), "error", err)
		return nil, goerror.NewServer(err)
	}

	return &out, nil
}

func (s *Usecase) requestCode(ctx context.Context, in RequestCodeInput, p policy) (*RequestCodeOutput, error) {
	ref := s.userRef(in.Username)
	purpose := entity.Purpose(in.Purpose)
	out := &RequestCodeOutput{ResendAfter: p.resendInterval, ExpiresIn: p.ttl}

	// over-long input is rejected before any store call
	hashedPassword, err := s.hasher.Hash(in.Password)
	if errors.Is(err, hash.ErrInputTooLong) {
		return nil, goerror.NewInvalidInput(nil, "password", "password is too long")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash pending password", "user_ref", ref, "error", err)
		return nil, goerror.NewServer(err)
	}

	exists, err := s.repoDB.AccountExists(ctx, in.Username)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check account exists", "user_ref", ref, "error", err)
		return nil, goerror.NewServer(err)
	}

	switch {
	case purpose == entity.PurposeSignup && exists:
		return nil, goerror.NewBusinessCause(ErrAccountExists, "Account is already verified", goerror.CodeConflict)
	case purpose == entity.PurposePasswordReset && !exists:
		// same answer as a real reset so account existence is not revealed
		slog.WarnContext(ctx, "password reset requested for unknown account", "user_ref", ref)
		return out, nil
	}

	code, err := s.generator.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification code", "user_ref", ref, "error", err)
		return nil, goerror.NewServer(err)
	}

	digest, err := s.codeDigest.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to digest verification code", "user_ref", ref, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	applied, err := s.repoDB.UpsertOTP(ctx, entity.OTP{
		Username:       in.Username,
		Purpose:        purpose,
		CodeDigest:     string(digest),
		HashedPassword: string(hashedPassword),
		SentAt:         &now,
		Email:          in.Email,
		CreatedAt:      now,
	}, now.Add(-p.resendInterval))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert otp", "user_ref", ref, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !applied {
		return nil, goerror.NewBusinessCause(ErrRateLimited, "Please wait before requesting another code", goerror.CodeTooManyRequest)
	}

	// sent_at already records this attempt, so a failed dispatch still starts the cooldown
	if err := s.repoDispatch.DispatchCode(ctx, CodeDispatch{
		Username:  in.Username,
		Email:     in.Email,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: now.Add(p.ttl),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to dispatch verification code", "user_ref", ref, "purpose", in.Purpose, "error", err)
		return nil, goerror.NewServer(err)
	}

	return out, nil
}

func (s *Usecase) countRequest(ctx context.Context, err error) {
	switch {
	case err == nil:
		count(ctx, s.issued, "issued")
	case errors.Is(err, ErrRateLimited):
		count(ctx, s.issued, "rate_limited")
	case errors.Is(err, ErrAccountExists):
		count(ctx, s.issued, "conflict")
	default:
		count(ctx, s.issued, "failed")
	}
}
