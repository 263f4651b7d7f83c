package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/dwapor/storefront/internal/pkg/goerror"
	"github.com/dwapor/storefront/internal/pkg/idempotency"
	"github.com/dwapor/storefront/internal/pkg/mail"
	"github.com/dwapor/storefront/internal/shared/codemail"
)

type SendVerificationCodeInput struct {
	EventID   int64     `validate:"required"`
	Username  string    `validate:"required"`
	Email     string    `validate:"required,email"`
	Purpose   string    `validate:"required,oneof=signup password_reset"`
	Code      string    `validate:"required,numeric"`
	ExpiresAt time.Time `validate:"required"`
}

// SendVerificationCode e-mails an issued code. Redeliveries of the same event
// are sent once; codes that expired while queued are dropped.
func (s *Usecase) SendVerificationCode(ctx context.Context, in SendVerificationCodeInput) error {
	ctx, span := s.startSpan(ctx, "SendVerificationCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	now := s.clock.Now()
	if !now.Before(in.ExpiresAt) {
		slog.WarnContext(ctx, "drop verification code that expired in queue", "event_id", in.EventID, "expires_at", in.ExpiresAt)
		return nil
	}

	content, err := codemail.Render(in.Username, in.Purpose, in.Code, in.ExpiresAt, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render verification code mail", "event_id", in.EventID, "error", err)
		return goerror.NewServer(err)
	}

	send := func(ctx context.Context) ([]byte, error) {
		return nil, s.repoMail.Send(ctx, mail.Message{
			To:       []string{in.Email},
			Subject:  content.Subject,
			TextBody: content.Text,
			HTMLBody: content.HTML,
		})
	}

	if s.idemp == nil {
		_, err = send(ctx)
	} else {
		key := "notification:code-issued:" + strconv.FormatInt(in.EventID, 10)
		_, err = s.idemp.Do(ctx, key, send, idempotency.WithResultTTL(in.ExpiresAt.Sub(now)))
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to send verification code mail", "event_id", in.EventID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
