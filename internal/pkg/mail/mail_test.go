package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTPRequiresHostPort(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{Host: "localhost"})
	assert.ErrorIs(t, err, ErrSMTPHostPortRequired)
}

func TestSMTPBuild(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "no-reply@storefront.test"})
	require.NoError(t, err)

	_, err = s.build(Message{Subject: "x"})
	assert.ErrorIs(t, err, ErrNoRecipients)

	m, err := s.build(Message{
		To:       []string{"alice@example.com"},
		Subject:  "Your verification code",
		TextBody: "code 482913",
		HTMLBody: "<b>482913</b>",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "From: no-reply@storefront.test")
	assert.Contains(t, raw, "To: alice@example.com")
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "code 482913")

	noSender, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025})
	require.NoError(t, err)
	_, err = noSender.build(Message{To: []string{"a@b.c"}})
	assert.ErrorIs(t, err, ErrNoSender)
}

func TestSMTPSendCanceled(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "a@b.c"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Send(ctx, Message{To: []string{"x@y.z"}}), context.Canceled)
}

type flakyMail struct {
	failures int
	calls    int
}

func (f *flakyMail) Send(context.Context, Message) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("421 try again later")
	}
	return nil
}

func (f *flakyMail) Close() error { return nil }

func TestRetrying(t *testing.T) {
	flaky := &flakyMail{failures: 2}
	r := NewRetrying(flaky, 3, time.Millisecond)

	require.NoError(t, r.Send(context.Background(), Message{}))
	assert.Equal(t, 3, flaky.calls)

	always := &flakyMail{failures: 100}
	err := NewRetrying(always, 2, time.Millisecond).Send(context.Background(), Message{})
	assert.ErrorContains(t, err, "421")
	assert.Equal(t, 3, always.calls)
}
