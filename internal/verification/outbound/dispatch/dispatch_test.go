package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dwapor/storefront/internal/pkg/clock"
	"github.com/dwapor/storefront/internal/pkg/instrument"
	"github.com/dwapor/storefront/internal/pkg/mail"
	"github.com/dwapor/storefront/internal/pkg/messaging"
	"github.com/dwapor/storefront/internal/shared/event"
	"github.com/dwapor/storefront/internal/verification/entity"
	"github.com/dwapor/storefront/internal/verification/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func sample() usecase.CodeDispatch {
	return usecase.CodeDispatch{
		Username:  "alice",
		Email:     "alice@example.com",
		Purpose:   entity.PurposeSignup,
		Code:      "482913",
		ExpiresAt: now.Add(10 * time.Minute),
	}
}

type published struct {
	dest string
	msg  messaging.OutgoingMessage
}

type fakeMessaging struct {
	out []published
	err error
}

func (f *fakeMessaging) Publish(_ context.Context, dest string, msg messaging.OutgoingMessage) (messaging.PublishResult, error) {
	if f.err != nil {
		return messaging.PublishResult{}, f.err
	}
	f.out = append(f.out, published{dest: dest, msg: msg})
	return messaging.PublishResult{Topic: dest, Timestamp: now}, nil
}

func (*fakeMessaging) Consume(context.Context, string, messaging.Handler, ...messaging.ConsumeOption) error {
	return messaging.ErrUnsupported
}

func (*fakeMessaging) Close() error { return nil }

type fixedID int64

func (f fixedID) Generate() int64 { return int64(f) }

func TestMQDispatchCode(t *testing.T) {
	client := &fakeMessaging{}
	d := NewMQ(client, fixedID(42), instrument.NewNoop())

	ctx := instrument.SetCorrelationID(context.Background(), "corr-1")
	require.NoError(t, d.DispatchCode(ctx, sample()))

	require.Len(t, client.out, 1)
	got := client.out[0]
	assert.Equal(t, event.CodeIssuedDestination, got.dest)
	assert.Equal(t, []byte("alice"), got.msg.Key)
	assert.Equal(t, []messaging.Header{{Key: "cID", Value: []byte("corr-1")}}, got.msg.Headers)

	var body event.CodeIssuedMessage
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, event.CodeIssuedMessage{
		EventID:   42,
		Username:  "alice",
		Email:     "alice@example.com",
		Purpose:   "signup",
		Code:      "482913",
		ExpiresAt: now.Add(10 * time.Minute),
	}, body)
}

func TestMQDispatchCodePublishError(t *testing.T) {
	boom := errors.New("broker down")
	d := NewMQ(&fakeMessaging{err: boom}, fixedID(1), instrument.NewNoop())

	assert.ErrorIs(t, d.DispatchCode(context.Background(), sample()), boom)
}

type fakeMail struct {
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func (*fakeMail) Close() error { return nil }

func TestMailDispatchCode(t *testing.T) {
	m := &fakeMail{}
	d := NewMail(m, clock.NewManual(now), instrument.NewNoop())

	require.NoError(t, d.DispatchCode(context.Background(), sample()))

	require.Len(t, m.sent, 1)
	got := m.sent[0]
	assert.Equal(t, []string{"alice@example.com"}, got.To)
	assert.Equal(t, "Confirm your storefront account", got.Subject)
	assert.Contains(t, got.TextBody, "482913")
	assert.Contains(t, got.TextBody, "It expires in 10 min.")
	assert.Contains(t, got.HTMLBody, "<strong>482913</strong>")
}

func TestMailDispatchCodeErrors(t *testing.T) {
	t.Run("send", func(t *testing.T) {
		boom := errors.New("smtp refused")
		d := NewMail(&fakeMail{err: boom}, clock.NewManual(now), instrument.NewNoop())
		assert.ErrorIs(t, d.DispatchCode(context.Background(), sample()), boom)
	})

	t.Run("unknown purpose", func(t *testing.T) {
		m := &fakeMail{}
		d := NewMail(m, clock.NewManual(now), instrument.NewNoop())

		msg := sample()
		msg.Purpose = entity.Purpose("login")
		assert.Error(t, d.DispatchCode(context.Background(), msg))
		assert.Empty(t, m.sent)
	})
}

func TestLogDispatchCode(t *testing.T) {
	assert.NoError(t, NewLog().DispatchCode(context.Background(), sample()))
}
