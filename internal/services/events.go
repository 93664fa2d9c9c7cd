package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bloghub/apiserver/internal/mq"
	"github.com/sirupsen/logrus"
)

// Event channel names published by the services.
const (
	EventPostCreated    = "post.created"
	EventPostDeleted    = "post.deleted"
	EventCommentCreated = "comment.created"
	EventCommentLiked   = "comment.liked"
)

// EventPublisher emits best-effort activity events through the message
// broker. A nil broker disables publishing entirely; failures are logged
// and never surfaced to the request that triggered them.
type EventPublisher struct {
	broker *mq.MQ
	log    *logrus.Logger
}

// NewEventPublisher constructs a publisher over the given broker, which
// may be nil when events are disabled.
func NewEventPublisher(broker *mq.MQ, log *logrus.Logger) *EventPublisher {
	return &EventPublisher{broker: broker, log: log}
}

// Publish marshals the payload and sends it on the named channel.
func (p *EventPublisher) Publish(ctx context.Context, channel string, payload any) {
	if p == nil || p.broker == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.log.WithError(err).WithField("channel", channel).Warn("failed to encode event")
		return
	}

	attrs := map[string]string{
		"emitted_at": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := p.broker.Publish(ctx, channel, data, attrs); err != nil {
		p.log.WithError(err).WithField("channel", channel).Warn("failed to publish event")
	}
}
