package dispatch

import (
	"context"

	"github.com/dwapor/storefront/internal/pkg/clock"
	"github.com/dwapor/storefront/internal/pkg/instrument"
	"github.com/dwapor/storefront/internal/pkg/mail"
	"github.com/dwapor/storefront/internal/shared/codemail"
	"github.com/dwapor/storefront/internal/verification/usecase"
	"go.opentelemetry.io/otel/codes"
)

// Mail sends the code over SMTP in the request path.
type Mail struct {
	mail  mail.Mail
	clock clock.Clocker
	ins   instrument.Instrumentation
}

func NewMail(m mail.Mail, c clock.Clocker, ins instrument.Instrumentation) *Mail {
	return &Mail{mail: m, clock: c, ins: ins}
}

func (m *Mail) DispatchCode(ctx context.Context, msg usecase.CodeDispatch) error {
	ctx, span := m.ins.Tracer("verification.outbound.dispatch").Start(ctx, "Mail.DispatchCode")
	defer span.End()

	content, err := codemail.Render(msg.Username, msg.Purpose.String(), msg.Code, msg.ExpiresAt, m.clock.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.mail.Send(ctx, mail.Message{
		To:       []string{msg.Email},
		Subject:  content.Subject,
		TextBody: content.Text,
		HTMLBody: content.HTML,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
