// Package pubsub consumes analysis requests from a Google Cloud Pub/Sub
// subscription.
package pubsub

import (
	"context"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/chatagent/code-analyzer/internal/adapter/queue"
)

type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// Subscriber pulls messages one at a time. Analyses are slow and expensive,
// so there is no point holding a larger window of outstanding messages.
type Subscriber struct {
	client *gcppubsub.Client
	sub    *gcppubsub.Subscription
	logger Logger
}

func New(ctx context.Context, projectID, subscriptionID string, logger Logger, opts ...option.ClientOption) (*Subscriber, error) {
	if projectID == "" || subscriptionID == "" {
		return nil, fmt.Errorf("pubsub: project and subscription are required")
	}

	client, err := gcppubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub: creating client: %w", err)
	}

	sub := client.Subscription(subscriptionID)
	sub.ReceiveSettings.NumGoroutines = 1
	sub.ReceiveSettings.MaxOutstandingMessages = 1

	return &Subscriber{client: client, sub: sub, logger: logger}, nil
}

// Receive blocks, delivering messages to the handler until ctx is cancelled.
// Every message is acknowledged exactly once, whatever the handler does: a
// request that failed once will fail the same way on redelivery, and the
// publisher does not retry either.
func (s *Subscriber) Receive(ctx context.Context, h queue.Handler) error {
	s.logger.LogInfo(ctx, "listening for analysis requests", map[string]interface{}{
		"subscription": s.sub.String(),
	})

	return s.sub.Receive(ctx, func(ctx context.Context, m *gcppubsub.Message) {
		msg := &message{m: m}
		defer msg.Ack()
		defer func() {
			if r := recover(); r != nil {
				s.logger.LogWarning(ctx, "handler panicked", map[string]interface{}{
					"id":    msg.ID(),
					"panic": fmt.Sprint(r),
				})
			}
		}()

		if err := h(ctx, msg); err != nil {
			s.logger.LogWarning(ctx, "message processing failed", map[string]interface{}{
				"id":    msg.ID(),
				"error": err.Error(),
			})
		}
	})
}

// Close releases the underlying client.
func (s *Subscriber) Close() error {
	return s.client.Close()
}

type message struct {
	m *gcppubsub.Message
}

func (w *message) ID() string   { return w.m.ID }
func (w *message) Data() []byte { return w.m.Data }
func (w *message) Ack()         { w.m.Ack() }
