package outbox

import (
	"context"
	"time"

	"example.com/food-ordering/pkg/kafka"
	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/pkg/metrics"
)

// KafkaProducer — интерфейс для отправки сообщений в Kafka.
// Позволяет замокать kafka.Producer в unit-тестах (Dependency Inversion).
type KafkaProducer interface {
	SendMessage(ctx context.Context, msg *kafka.Message) error
}

// SweeperConfig — настройки Sweeper.
type SweeperConfig struct {
	// PollInterval — интервал между опросами таблицы outbox.
	PollInterval time.Duration

	// BatchSize — количество записей за один запрос.
	BatchSize int

	// MaxRetries — максимальное количество попыток публикации.
	// После превышения запись выводится из очереди как "dead letter".
	MaxRetries int

	// CleanupInterval — интервал очистки опубликованных записей.
	CleanupInterval time.Duration

	// Retention — срок хранения опубликованных записей.
	Retention time.Duration
}

// DefaultSweeperConfig возвращает конфигурацию по умолчанию.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		PollInterval:    1 * time.Second,
		BatchSize:       100,
		MaxRetries:      10,
		CleanupInterval: 1 * time.Hour,
		Retention:       7 * 24 * time.Hour,
	}
}

// Sweeper читает записи из outbox и публикует их в Kafka.
// Реализует гарантию at-least-once: запись помечается COMPLETED
// только после подтверждения брокером. Несколько инстансов сервиса
// не конфликтуют благодаря проверке версии при обновлении.
type Sweeper struct {
	repo     Repository
	producer KafkaProducer
	cfg      SweeperConfig
	name     string // Имя для идентификации в логах (order-payment / payment-response / ...)
}

// NewSweeper создаёт новый Sweeper.
// name — имя обслуживаемой таблицы outbox для логов и метрик.
func NewSweeper(repo Repository, producer KafkaProducer, cfg SweeperConfig, name string) *Sweeper {
	return &Sweeper{
		repo:     repo,
		producer: producer,
		cfg:      cfg,
		name:     name,
	}
}

// Run запускает Sweeper. Блокирует выполнение до отмены контекста.
func (s *Sweeper) Run(ctx context.Context) {
	log := logger.FromContext(ctx)
	log.Info().
		Str("name", s.name).
		Dur("poll_interval", s.cfg.PollInterval).
		Int("batch_size", s.cfg.BatchSize).
		Msg("Запуск Outbox Sweeper")

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(s.cfg.CleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("name", s.name).Msg("Остановка Outbox Sweeper")
			return
		case <-ticker.C:
			s.sweep(ctx)
		case <-cleanupTicker.C:
			s.cleanupCompleted(ctx)
		}
	}
}

// sweep обрабатывает пачку записей, ожидающих публикации.
func (s *Sweeper) sweep(ctx context.Context) {
	log := logger.FromContext(ctx)

	records, err := s.repo.GetPending(ctx, s.cfg.BatchSize)
	if err != nil {
		log.Error().Err(err).Str("name", s.name).Msg("Ошибка чтения outbox")
		return
	}

	if len(records) == 0 {
		return
	}

	log.Debug().Int("count", len(records)).Str("name", s.name).Msg("Публикация записей outbox")

	for _, record := range records {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Dead letter: записи с превышенным retry_count выводим из очереди.
		// Статус остаётся FAILED — оператор разбирает такие записи вручную.
		if record.RetryCount >= s.cfg.MaxRetries {
			log.Warn().
				Str("outbox_id", record.ID).
				Str("type", record.Type).
				Str("saga_id", record.SagaID).
				Int("retry_count", record.RetryCount).
				Msg("Dead letter: превышен лимит попыток, запись выведена из очереди")

			if err := s.repo.MarkDeadLetter(ctx, record.ID); err != nil {
				log.Error().Err(err).Str("outbox_id", record.ID).Msg("Ошибка пометки dead letter")
			}
			metrics.OutboxDeadLetterTotal.WithLabelValues(s.name).Inc()
			continue
		}

		s.publish(ctx, record)
	}
}

// publish отправляет запись в Kafka и фиксирует результат в outbox.
func (s *Sweeper) publish(ctx context.Context, record *Message) {
	log := logger.FromContext(ctx)

	// Ключ сообщения — saga_id: вся сага живёт в одной партиции.
	msg := &kafka.Message{
		Topic:   record.Topic,
		Key:     []byte(record.SagaID),
		Value:   record.Payload,
		Headers: record.Headers,
	}

	if err := s.producer.SendMessage(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("outbox_id", record.ID).
			Str("topic", record.Topic).
			Msg("Ошибка публикации outbox в Kafka")

		metrics.OutboxFailedTotal.WithLabelValues(s.name, record.Topic).Inc()

		if markErr := s.repo.MarkFailed(ctx, record.ID, record.Version, err); markErr != nil {
			log.Error().Err(markErr).Str("outbox_id", record.ID).Msg("Ошибка пометки outbox как failed")
		}
		return
	}

	// Помечаем COMPLETED с проверкой версии. ErrConcurrentUpdate означает,
	// что другой инстанс уже опубликовал запись — возможен повтор сообщения,
	// получатель дедуплицирует его по (saga_id, saga_status).
	if err := s.repo.MarkPublished(ctx, record.ID, record.Version); err != nil {
		log.Warn().
			Err(err).
			Str("outbox_id", record.ID).
			Msg("Не удалось пометить запись outbox как опубликованную")
		return
	}

	metrics.OutboxPublishedTotal.WithLabelValues(s.name, record.Topic).Inc()

	log.Debug().
		Str("outbox_id", record.ID).
		Str("topic", record.Topic).
		Str("type", record.Type).
		Msg("Запись outbox опубликована в Kafka")
}

// cleanupCompleted удаляет опубликованные записи старше срока хранения.
func (s *Sweeper) cleanupCompleted(ctx context.Context) {
	log := logger.FromContext(ctx)

	before := time.Now().Add(-s.cfg.Retention)
	deleted, err := s.repo.DeleteCompletedBefore(ctx, before)
	if err != nil {
		log.Error().Err(err).Str("name", s.name).Msg("Ошибка очистки outbox")
		return
	}

	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Str("name", s.name).Msg("Очистка опубликованных записей outbox")
	}
}

// PublishSingle публикует одну запись outbox (для тестирования).
func (s *Sweeper) PublishSingle(ctx context.Context, record *Message) error {
	msg := &kafka.Message{
		Topic:   record.Topic,
		Key:     []byte(record.SagaID),
		Value:   record.Payload,
		Headers: record.Headers,
	}

	if err := s.producer.SendMessage(ctx, msg); err != nil {
		_ = s.repo.MarkFailed(ctx, record.ID, record.Version, err)
		return err
	}

	return s.repo.MarkPublished(ctx, record.ID, record.Version)
}
