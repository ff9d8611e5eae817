package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/food-ordering/pkg/logger"
)

// producerBatchTimeout держится маленьким: сообщения саги должны
// уходить сразу, батчинг здесь только мешает.
const producerBatchTimeout = 10 * time.Millisecond

// Producer пишет сообщения в Kafka, пробрасывая trace_id и
// correlation_id из context в заголовки.
type Producer struct {
	writer *kafka.Writer
	cfg    Config
}

// NewProducer создаёт Producer. Балансировка по hash ключа: все
// сообщения одной саги попадают в одну партицию и сохраняют порядок.
func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("не указаны брокеры Kafka")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: producerBatchTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Msg("Создан Kafka Producer")

	return &Producer{
		writer: writer,
		cfg:    cfg,
	}, nil
}

// Send отправляет сырой payload в топик. Трассировочные заголовки
// добавляются из context.
func (p *Producer) Send(ctx context.Context, topic string, key []byte, value []byte) error {
	return p.SendMessage(ctx, &Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
}

// SendWithHeaders отправляет payload с дополнительными заголовками
// поверх трассировочных.
func (p *Producer) SendWithHeaders(ctx context.Context, topic string, key []byte, value []byte, extraHeaders map[string]string) error {
	msg := &Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Headers: make(map[string]string, len(extraHeaders)),
	}
	for k, v := range extraHeaders {
		msg.Headers[k] = v
	}
	return p.SendMessage(ctx, msg)
}

// SendMessage отправляет подготовленный Message. Недостающие
// трассировочные заголовки заполняются из context, timestamp — текущим
// временем.
func (p *Producer) SendMessage(ctx context.Context, msg *Message) error {
	p.fillTracingHeaders(ctx, msg)
	if msg.Time.IsZero() {
		msg.Time = time.Now()
	}

	if err := p.writer.WriteMessages(ctx, msg.toKafkaMessage()); err != nil {
		logger.Error().
			Err(err).
			Str("topic", msg.Topic).
			Str("key", string(msg.Key)).
			Str("trace_id", TraceIDFromContext(ctx)).
			Msg("Ошибка отправки сообщения в Kafka")
		return fmt.Errorf("ошибка отправки в Kafka: %w", err)
	}

	logger.Debug().
		Str("topic", msg.Topic).
		Str("key", string(msg.Key)).
		Str("trace_id", TraceIDFromContext(ctx)).
		Str("correlation_id", CorrelationIDFromContext(ctx)).
		Msg("Сообщение отправлено в Kafka")

	return nil
}

// SendToDLQ перекладывает сообщение в Dead Letter Queue, сохраняя его
// заголовки и дописывая контекст ошибки.
func (p *Producer) SendToDLQ(ctx context.Context, originalMsg *Message, processingError error) error {
	dlqHeaders := make(map[string]string, len(originalMsg.Headers)+3)
	for k, v := range originalMsg.Headers {
		dlqHeaders[k] = v
	}

	dlqHeaders["dlq_error"] = processingError.Error()
	dlqHeaders["dlq_original_topic"] = originalMsg.Topic
	dlqHeaders["dlq_timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)

	return p.SendWithHeaders(ctx, TopicDLQ, originalMsg.Key, originalMsg.Value, dlqHeaders)
}

// fillTracingHeaders дописывает trace_id, correlation_id и timestamp,
// не перетирая уже заданные вызывающим кодом значения.
func (p *Producer) fillTracingHeaders(ctx context.Context, msg *Message) {
	if msg.Headers == nil {
		msg.Headers = make(map[string]string, 3)
	}

	if _, ok := msg.Headers[HeaderTraceID]; !ok {
		if traceID := TraceIDFromContext(ctx); traceID != "" {
			msg.Headers[HeaderTraceID] = traceID
		}
	}

	if _, ok := msg.Headers[HeaderCorrelationID]; !ok {
		if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
			msg.Headers[HeaderCorrelationID] = correlationID
		}
	}

	if _, ok := msg.Headers[HeaderTimestamp]; !ok {
		msg.Headers[HeaderTimestamp] = time.Now().UTC().Format(time.RFC3339Nano)
	}
}

// Close закрывает соединение с брокерами.
func (p *Producer) Close() error {
	logger.Info().Msg("Закрытие Kafka Producer")

	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия producer: %w", err)
	}
	return nil
}
