package messaging

import (
	"context"
	"fmt"
	"time"

	"opaque/pkg/logger"
	"opaque/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const serviceName = "reviews-service"

// KafkaProducer публикует события отзывов. Ключ - ID отзыва: все события
// одного отзыва уходят в одну партицию и читаются воркером по порядку.
type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	return &KafkaProducer{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 5 * time.Second,
		BatchTimeout: 10 * time.Millisecond,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Base().Error().Str("topic", topic).Msgf(msg, args...)
		}),
	}}
}

func (p *KafkaProducer) Topic() string {
	return p.writer.Topic
}

func (p *KafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	done := metrics.ObserveKafkaProduce(serviceName, p.writer.Topic)

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header{{Key: "producer", Value: []byte(serviceName)}},
	})
	done(err)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.writer.Topic, err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
