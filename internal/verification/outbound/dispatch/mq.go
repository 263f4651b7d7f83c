package dispatch

import (
	"context"
	"encoding/json"

	"github.com/dwapor/storefront/internal/pkg/instrument"
	"github.com/dwapor/storefront/internal/pkg/messaging"
	"github.com/dwapor/storefront/internal/pkg/uid"
	"github.com/dwapor/storefront/internal/shared/event"
	"github.com/dwapor/storefront/internal/verification/usecase"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

// MQ hands the code to the notification module over the message broker.
type MQ struct {
	client  messaging.Messaging
	eventID uid.NumberID
	ins     instrument.Instrumentation
}

func NewMQ(client messaging.Messaging, eventID uid.NumberID, ins instrument.Instrumentation) *MQ {
	return &MQ{client: client, eventID: eventID, ins: ins}
}

func (m *MQ) DispatchCode(ctx context.Context, msg usecase.CodeDispatch) error {
	ctx, span := m.ins.Tracer("verification.outbound.dispatch").Start(ctx, "MQ.DispatchCode")
	defer span.End()

	body, err := json.Marshal(event.CodeIssuedMessage{
		EventID:   m.eventID.Generate(),
		Username:  msg.Username,
		Email:     msg.Email,
		Purpose:   msg.Purpose.String(),
		Code:      msg.Code,
		ExpiresAt: msg.ExpiresAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.CodeIssuedDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(msg.Username),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
