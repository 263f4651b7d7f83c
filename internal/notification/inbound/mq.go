package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/dwapor/storefront/internal/pkg/config"
	"github.com/dwapor/storefront/internal/pkg/goroutine"
	"github.com/dwapor/storefront/internal/pkg/instrument"
	"github.com/dwapor/storefront/internal/pkg/messaging"
	"github.com/dwapor/storefront/internal/pkg/uid"
	"github.com/dwapor/storefront/internal/shared/event"
)

type consumer struct {
	name              string
	topic             string // destination where publisher sent message
	nsqConsumerName   string // for nsq
	natsConsumerName  string // for nats
	kafkaConsumerName string // for kafka
	handler           messaging.Handler
}

func consumers(h *MQHandler) []consumer {
	return []consumer{
		{
			name:              event.CodeIssuedConsumerNotification,
			topic:             event.CodeIssuedDestination,
			nsqConsumerName:   event.CodeIssuedConsumerNotification,
			natsConsumerName:  event.CodeIssuedConsumerNotification,
			kafkaConsumerName: event.CodeIssuedConsumerNotification,
			handler:           h.CodeIssuedNotification,
		},
	}
}

// RegisterMQConsumer starts the consumers listed in modules.notification.consumer_names.
// It returns how many were started.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) int {
	h := &MQHandler{uc: uc, uuid: uuid, ins: ins}
	enabled := cfg.GetArray("modules.notification.consumer_names")
	concurrency := max(cfg.GetInt("modules.notification.concurrency"), 1)

	started := 0
	for _, c := range consumers(h) {
		if !slices.Contains(enabled, c.name) {
			continue
		}

		ok := routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", c.name)
			return messenger.Consume(pCtx,
				c.topic,
				c.handler,
				messaging.WithChannel(c.nsqConsumerName),
				messaging.WithQueueGroup(c.natsConsumerName),
				messaging.WithGroup(c.kafkaConsumerName),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
				messaging.WithMaxInFlight(concurrency),
			)
		})
		if ok {
			started++
		}
	}

	return started
}
