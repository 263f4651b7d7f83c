package messaging

import (
	"context"
	"time"

	"go.uber.org/atomic"
)

// delivery is the Message handed to handlers by every driver. The driver
// supplies the ack and nack callbacks; responded guards against double replies.
type delivery struct {
	body    []byte
	key     []byte
	headers []Header
	id      string
	topic   string
	ts      time.Time

	ack  func(ctx context.Context) error
	nack func(ctx context.Context) error

	responded atomic.Bool
}

func (d *delivery) Body() []byte         { return d.body }
func (d *delivery) Key() []byte          { return d.key }
func (d *delivery) Headers() []Header    { return d.headers }
func (d *delivery) ID() string           { return d.id }
func (d *delivery) Topic() string        { return d.topic }
func (d *delivery) Timestamp() time.Time { return d.ts }

func (d *delivery) Ack(ctx context.Context) error {
	return d.reply(ctx, d.ack)
}

func (d *delivery) Nack(ctx context.Context) error {
	return d.reply(ctx, d.nack)
}

func (d *delivery) reply(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.responded.Swap(true) || fn == nil {
		return nil
	}
	return fn(ctx)
}

// handle runs handler on d and, with autoAck, replies according to its result.
func handle(ctx context.Context, kind string, handler Handler, d *delivery, autoAck bool) error {
	herr := callHandlerWithRecover(ctx, kind, func() error {
		return handler(ctx, d)
	})

	if d.responded.Load() || !autoAck {
		return herr
	}
	if herr == nil {
		return d.Ack(ctx)
	}
	return d.Nack(ctx)
}
