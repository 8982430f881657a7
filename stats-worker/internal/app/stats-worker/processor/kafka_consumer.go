package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"opaque/pkg/events"
	"opaque/pkg/logger"
	"opaque/pkg/metrics"
	"opaque/stats-worker/internal/app/stats-worker/service"

	"github.com/segmentio/kafka-go"
)

const (
	serviceName = "stats-worker"

	fetchTimeout    = 10 * time.Second
	minRetryBackoff = 500 * time.Millisecond
	maxRetryBackoff = 30 * time.Second
)

// messageReader - часть kafka.Reader, которой пользуется consumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer читает события отзывов из топика review_events
type KafkaConsumer struct {
	reader   messageReader
	statsSvc service.StatsServiceInterface
	topic    string
	groupID  string
	backoff  time.Duration
}

func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	statsSvc service.StatsServiceInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: minBytes,
		MaxBytes: maxBytes,
		// Новая группа начинает с конца топика: историю покрывает
		// начальный пересчет снапшота
		StartOffset:    kafka.LastOffset,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return &KafkaConsumer{
		reader:   reader,
		statsSvc: statsSvc,
		topic:    topic,
		groupID:  groupID,
		backoff:  minRetryBackoff,
	}
}

// Run читает сообщения до отмены ctx.
// Offset коммитится только после успешной обработки; ошибка обработки
// повторяется с растущей паузой, чтобы не потерять дельту.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	logger.Info().
		Str("topic", c.topic).
		Str("group", c.groupID).
		Msg("Kafka consumer started")

	for {
		fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		message, err := c.reader.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				logger.Info().Msg("Kafka consumer stopped")
				return nil
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, kafka.ErrGroupClosed) || errors.Is(err, io.EOF) {
				return nil
			}

			metrics.KafkaError(serviceName, c.topic, "fetch")
			logger.Error().Err(err).Msg("Error fetching message")
			if !sleep(ctx, time.Second) {
				return nil
			}
			continue
		}

		if err := c.handleWithRetry(ctx, message); err != nil {
			// ctx отменен посреди повторов, сообщение останется некоммиченным
			return nil
		}

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			metrics.KafkaError(serviceName, c.topic, "commit")
			logger.Error().
				Err(err).
				Int64("offset", message.Offset).
				Msg("Error committing message")
		}
	}
}

// handleWithRetry возвращает ошибку только при отмене ctx
func (c *KafkaConsumer) handleWithRetry(ctx context.Context, message kafka.Message) error {
	backoff := c.backoff
	for attempt := 1; ; attempt++ {
		err := c.processMessage(ctx, message)
		if err == nil {
			return nil
		}

		metrics.KafkaError(serviceName, c.topic, "process")
		logger.Error().
			Err(err).
			Int("attempt", attempt).
			Int64("offset", message.Offset).
			Int("partition", message.Partition).
			Dur("retry_in", backoff).
			Msg("Error processing message")

		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
		backoff = min(backoff*2, maxRetryBackoff)
	}
}

// processMessage обрабатывает одно сообщение.
// Нечитаемое сообщение пропускается: повтор его не исправит.
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	start := time.Now()

	event, err := events.Unmarshal(message.Value)
	if err != nil {
		metrics.KafkaError(serviceName, c.topic, "decode")
		logger.Warn().
			Err(err).
			Int64("offset", message.Offset).
			Int("partition", message.Partition).
			Msg("Skipping malformed review event")
		return nil
	}

	logger.Debug().
		Str("event_type", string(event.EventType)).
		Str("review_id", event.ReviewID).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received review event")

	if err := c.statsSvc.HandleEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to handle %s for review %s: %w", event.EventType, event.ReviewID, err)
	}

	metrics.KafkaHandled(serviceName, c.topic, c.groupID, time.Since(start))
	metrics.KafkaLag(serviceName, c.topic, c.groupID, message.Partition, message.HighWaterMark, message.Offset)
	return nil
}

// Close закрывает reader; вызывается после возврата из Run
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

// sleep ждет d или отмены ctx; false - ctx отменен
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
