package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/dwapor/storefront/internal/notification/usecase"
	"github.com/dwapor/storefront/internal/pkg/goerror"
	"github.com/dwapor/storefront/internal/pkg/instrument"
	"github.com/dwapor/storefront/internal/pkg/messaging"
	"github.com/dwapor/storefront/internal/pkg/uid"
	"github.com/dwapor/storefront/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := messaging.HeaderValue(msg, keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// CodeIssuedNotification mails a verification code. Malformed or invalid
// payloads are acked and dropped; delivery failures are returned for redelivery.
func (h *MQHandler) CodeIssuedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "CodeIssuedNotification")
	defer span.End()

	var payload event.CodeIssuedMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of code issued notification", "msg_id", msg.ID(), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: code issued notification", "event_id", payload.EventID, "purpose", payload.Purpose)

	err := h.uc.SendVerificationCode(ctx, usecase.SendVerificationCodeInput{
		EventID:   payload.EventID,
		Username:  payload.Username,
		Email:     payload.Email,
		Purpose:   payload.Purpose,
		Code:      payload.Code,
		ExpiresAt: payload.ExpiresAt,
	})

	var gerr *goerror.Error
	if errors.As(err, &gerr) && gerr.Type() == goerror.TypeValidation {
		slog.ErrorContext(ctx, "drop invalid code issued notification", "event_id", payload.EventID, "error", err)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume code issued notification", "event_id", payload.EventID, "error", err)
		return err
	}

	return nil
}
