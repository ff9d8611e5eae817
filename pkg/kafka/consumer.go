package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/food-ordering/pkg/logger"
)

// Параметры чтения. Сообщения саги маленькие и редкие, поэтому
// забираем их сразу, не дожидаясь наполнения батча.
const (
	readMinBytes   = 1
	readMaxBytes   = 10e6
	readMaxWait    = 100 * time.Millisecond
	commitInterval = time.Second

	// retryBaseDelay — стартовая задержка повторов в ConsumeWithRetry,
	// удваивается с каждой попыткой.
	retryBaseDelay = 100 * time.Millisecond
)

// MessageHandler обрабатывает одно сообщение. Context несёт trace_id
// и correlation_id из заголовков сообщения. nil означает успех,
// ошибка отправляет сообщение в DLQ (если producer настроен).
type MessageHandler func(ctx context.Context, msg *Message) error

// Consumer читает топик в рамках consumer group и передаёт сообщения
// обработчику. Останавливается отменой context.
type Consumer struct {
	reader   *kafka.Reader
	producer *Producer // DLQ, опционально
	cfg      Config
	topic    string
}

// NewConsumer создаёт Consumer для топика. Инстансы с одинаковым groupID
// делят партиции топика между собой.
func NewConsumer(cfg Config, topic string, groupID string) (*Consumer, error) {
	switch {
	case len(cfg.Brokers) == 0:
		return nil, fmt.Errorf("не указаны брокеры Kafka")
	case topic == "":
		return nil, fmt.Errorf("не указан топик")
	case groupID == "":
		return nil, fmt.Errorf("не указан group ID")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       readMinBytes,
		MaxBytes:       readMaxBytes,
		MaxWait:        readMaxWait,
		CommitInterval: commitInterval,
		StartOffset:    kafka.LastOffset,
	})

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", topic).
		Str("group_id", groupID).
		Msg("Создан Kafka Consumer")

	return &Consumer{
		reader: reader,
		cfg:    cfg,
		topic:  topic,
	}, nil
}

// SetDLQProducer включает отправку необработанных сообщений в DLQ.
func (c *Consumer) SetDLQProducer(p *Producer) {
	c.producer = p
}

// Consume читает топик до отмены context. Offset коммитится и для
// ошибочных сообщений: они либо уже в DLQ, либо потеряны осознанно,
// перечитывать их бессмысленно.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	logger.Info().
		Str("topic", c.topic).
		Msg("Запуск чтения сообщений из Kafka")

	for {
		select {
		case <-ctx.Done():
			logger.Info().
				Str("topic", c.topic).
				Msg("Получен сигнал завершения, остановка Consumer")
			return ctx.Err()
		default:
		}

		kafkaMsg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			logger.Error().
				Err(err).
				Str("topic", c.topic).
				Msg("Ошибка чтения сообщения из Kafka")
			continue
		}

		msg := fromKafkaMessage(kafkaMsg)
		if err := c.dispatch(ctx, msg, handler); err != nil {
			logger.Error().
				Err(err).
				Str("topic", c.topic).
				Str("key", string(msg.Key)).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("Ошибка обработки сообщения")

			if c.producer != nil {
				if dlqErr := c.producer.SendToDLQ(ctx, msg, err); dlqErr != nil {
					logger.Error().
						Err(dlqErr).
						Msg("Ошибка отправки в DLQ")
				}
			}
		}

		if err := c.commitOffset(ctx, msg); err != nil {
			logger.Error().
				Err(err).
				Msg("Ошибка коммита offset")
		}
	}
}

// ConsumeWithRetry оборачивает обработчик экспоненциальными повторами.
// После maxRetries неудач сообщение уходит в DLQ обычным путём.
func (c *Consumer) ConsumeWithRetry(ctx context.Context, handler MessageHandler, maxRetries int) error {
	return c.Consume(ctx, func(ctx context.Context, msg *Message) error {
		var lastErr error
		delay := retryBaseDelay

		for attempt := 0; attempt <= maxRetries; attempt++ {
			if attempt > 0 {
				logger.Warn().
					Int("attempt", attempt).
					Str("key", string(msg.Key)).
					Dur("delay", delay).
					Msg("Повторная попытка обработки сообщения")

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
				delay *= 2
			}

			if lastErr = handler(ctx, msg); lastErr == nil {
				return nil
			}
		}

		return fmt.Errorf("исчерпаны попытки обработки: %w", lastErr)
	})
}

// dispatch переносит заголовки сообщения в context и вызывает обработчик.
func (c *Consumer) dispatch(ctx context.Context, msg *Message, handler MessageHandler) error {
	if traceID, ok := msg.Headers[HeaderTraceID]; ok {
		ctx = ContextWithTraceID(ctx, traceID)
	}
	if correlationID, ok := msg.Headers[HeaderCorrelationID]; ok {
		ctx = ContextWithCorrelationID(ctx, correlationID)
	}

	logger.Debug().
		Str("topic", msg.Topic).
		Str("key", string(msg.Key)).
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Str("trace_id", TraceIDFromContext(ctx)).
		Str("correlation_id", CorrelationIDFromContext(ctx)).
		Msg("Получено сообщение из Kafka")

	return handler(ctx, msg)
}

// commitOffset помечает сообщение обработанным.
func (c *Consumer) commitOffset(ctx context.Context, msg *Message) error {
	return c.reader.CommitMessages(ctx, kafka.Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	})
}

// Close останавливает чтение и закрывает соединение с брокерами.
func (c *Consumer) Close() error {
	logger.Info().
		Str("topic", c.topic).
		Msg("Закрытие Kafka Consumer")

	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия consumer: %w", err)
	}
	return nil
}

// Stats возвращает статистику reader'а.
func (c *Consumer) Stats() kafka.ReaderStats {
	return c.reader.Stats()
}

// Lag возвращает отставание группы от конца топика.
func (c *Consumer) Lag() int64 {
	return c.reader.Stats().Lag
}
