package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kafkaReplies struct {
	calls      []string
	requeued   []kafka.Message
	requeueErr error
}

func (r *kafkaReplies) commit(context.Context, kafka.Message) error {
	r.calls = append(r.calls, "commit")
	return nil
}

func (r *kafkaReplies) requeue(_ context.Context, m kafka.Message) error {
	r.calls = append(r.calls, "requeue")
	if r.requeueErr != nil {
		return r.requeueErr
	}
	r.requeued = append(r.requeued, m)
	return nil
}

func TestKafkaDeliveryReplies(t *testing.T) {
	ctx := context.Background()
	m := kafka.Message{
		Topic:     "verification.code_issued",
		Partition: 2,
		Offset:    41,
		Key:       []byte("alice"),
		Value:     []byte(`{"event_id":1}`),
		Headers:   []kafka.Header{{Key: "cID", Value: []byte("abc")}},
	}

	t.Run("ack commits", func(t *testing.T) {
		r := &kafkaReplies{}
		d := newKafkaDelivery(m, r.commit, r.requeue)

		require.NoError(t, d.Ack(ctx))
		assert.Equal(t, []string{"commit"}, r.calls)
		assert.Equal(t, "verification.code_issued/2/41", d.ID())
		assert.Equal(t, "abc", HeaderValue(d, "cID"))
	})

	t.Run("failed handler requeues before committing", func(t *testing.T) {
		r := &kafkaReplies{}
		d := newKafkaDelivery(m, r.commit, r.requeue)

		err := handle(ctx, DriverKafka, func(context.Context, Message) error { return errors.New("smtp down") }, d, true)
		require.NoError(t, err)

		assert.Equal(t, []string{"requeue", "commit"}, r.calls)
		require.Len(t, r.requeued, 1)
		assert.Equal(t, m.Value, r.requeued[0].Value)
		assert.Equal(t, m.Key, r.requeued[0].Key)
	})

	t.Run("requeue failure leaves the offset uncommitted", func(t *testing.T) {
		r := &kafkaReplies{requeueErr: errors.New("broker down")}
		d := newKafkaDelivery(m, r.commit, r.requeue)

		err := handle(ctx, DriverKafka, func(context.Context, Message) error { return errors.New("smtp down") }, d, true)
		require.ErrorContains(t, err, "kafka requeue")
		assert.Equal(t, []string{"requeue"}, r.calls)
	})
}
