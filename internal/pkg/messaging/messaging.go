package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnsupported is returned when the selected broker cannot honour a publish setting.
var ErrUnsupported = errors.New("messaging: unsupported operation")

// Messaging publishes to and consumes from a broker.
type Messaging interface {
	io.Closer

	// Publish sends msg to a topic or subject.
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)

	// Consume blocks, delivering messages from source to handler until ctx is done.
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one received message.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to publish.
type OutgoingMessage struct {
	Body    []byte
	Key     []byte
	Headers []Header
	// Delay defers delivery. Only NSQ supports it.
	Delay time.Duration
}

// Header is a message header.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult describes an accepted publish.
type PublishResult struct {
	Topic     string
	Timestamp time.Time
}

// Message is a received message.
type Message interface {
	Body() []byte
	Key() []byte
	Headers() []Header
	ID() string
	Topic() string
	Timestamp() time.Time

	// Ack marks the message processed. Calls after the first response are no-ops.
	Ack(ctx context.Context) error
	// Nack asks the broker to redeliver, when it can.
	Nack(ctx context.Context) error
}

// HeaderValue returns the first value of key, or "".
func HeaderValue(msg Message, key string) string {
	for _, h := range msg.Headers() {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
