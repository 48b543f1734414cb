package repository

import (
	"context"
	"fmt"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	pkgkafka "FinAdvisor/pkg/kafka"
)

// KafkaEventPublisher emits model lifecycle events keyed by model name.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)

func NewKafkaEventPublisher(p *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: p, topic: topic}
}

func (p *KafkaEventPublisher) PublishModelEvent(ctx context.Context, ev models.ModelEvent) error {
	key := ev.Model
	if key == "" {
		key = ev.TicketID
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(key), ev); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

// NoopEventPublisher drops events; used when no brokers are configured.
type NoopEventPublisher struct{}

var _ domrepo.EventPublisher = NoopEventPublisher{}

func (NoopEventPublisher) PublishModelEvent(context.Context, models.ModelEvent) error { return nil }

func (NoopEventPublisher) Close() error { return nil }
