package repository

import (
	"context"

	"IntraCast/internal/domain/models"
	domsvc "IntraCast/internal/domain/service"
	pkgkafka "IntraCast/pkg/kafka"
)

// KafkaSignalPublisher fans persisted signals out to a Kafka topic for
// downstream consumers (alerting, journaling). Publish failures are
// advisory: the tick that produced the signal has already committed.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) domsvc.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, s models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), s)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopSignalPublisher is used when Kafka fan-out is disabled.
type NoopSignalPublisher struct{}

func (NoopSignalPublisher) Publish(ctx context.Context, s models.Signal) error { return nil }
func (NoopSignalPublisher) Close() error                                       { return nil }

var _ domsvc.SignalPublisher = NoopSignalPublisher{}
