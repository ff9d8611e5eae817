package saga

import (
	"context"
	"time"

	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/services/order/internal/domain"
	"example.com/food-ordering/services/order/internal/repository"
)

// =============================================================================
// TimeoutWorker — воркер для обнаружения и компенсации зависших саг
// =============================================================================

// TimeoutWorkerConfig — настройки Timeout Worker.
type TimeoutWorkerConfig struct {
	// PollInterval — интервал между сканированиями таблицы orders (30 секунд).
	PollInterval time.Duration

	// PaymentTimeout — максимальное время ожидания ответа от Payment Service (5 минут).
	// Заказы в PENDING дольше этого времени считаются зависшими.
	PaymentTimeout time.Duration

	// BatchSize — максимальное количество зависших заказов за один цикл.
	BatchSize int
}

// DefaultTimeoutWorkerConfig возвращает конфигурацию по умолчанию.
func DefaultTimeoutWorkerConfig() TimeoutWorkerConfig {
	return TimeoutWorkerConfig{
		PollInterval:   30 * time.Second,
		PaymentTimeout: 5 * time.Minute,
		BatchSize:      50,
	}
}

// timeoutReason — причина отмены, попадает в failure_messages заказа.
const timeoutReason = "Payment response timeout"

// TimeoutWorker периодически сканирует таблицу orders и находит заказы,
// зависшие в PENDING дольше PaymentTimeout (Payment Service не ответил).
// Для каждого вызывает Engine.TimeoutPayment.
type TimeoutWorker struct {
	orders repository.OrderRepository
	engine Engine
	cfg    TimeoutWorkerConfig
}

// NewTimeoutWorker создаёт новый Timeout Worker.
func NewTimeoutWorker(orders repository.OrderRepository, engine Engine, cfg TimeoutWorkerConfig) *TimeoutWorker {
	return &TimeoutWorker{
		orders: orders,
		engine: engine,
		cfg:    cfg,
	}
}

// Run запускает Worker. Блокирует выполнение до отмены контекста.
func (w *TimeoutWorker) Run(ctx context.Context) {
	log := logger.FromContext(ctx)
	log.Info().
		Dur("poll_interval", w.cfg.PollInterval).
		Dur("payment_timeout", w.cfg.PaymentTimeout).
		Int("batch_size", w.cfg.BatchSize).
		Msg("Запуск Saga Timeout Worker")

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Остановка Saga Timeout Worker")
			return
		case <-ticker.C:
			w.processStuckOrders(ctx)
		}
	}
}

// processStuckOrders находит и компенсирует зависшие заказы.
func (w *TimeoutWorker) processStuckOrders(ctx context.Context) {
	log := logger.FromContext(ctx)

	stuckSince := time.Now().Add(-w.cfg.PaymentTimeout)

	orders, err := w.orders.ListStale(ctx, domain.OrderStatusPending, stuckSince, w.cfg.BatchSize)
	if err != nil {
		log.Error().Err(err).Msg("Ошибка поиска зависших заказов")
		return
	}

	if len(orders) == 0 {
		return
	}

	log.Warn().Int("count", len(orders)).Msg("Обнаружены зависшие заказы, запускаем отмену по таймауту")

	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		default:
		}

		log.Warn().
			Str("order_id", order.ID).
			Time("updated_at", order.UpdatedAt).
			Msg("Отмена зависшего заказа по таймауту")

		// TimeoutPayment перечитает заказ и проверит статус.
		// Optimistic Locking защитит от гонки с reply consumer.
		if err := w.engine.TimeoutPayment(ctx, order.ID, timeoutReason); err != nil {
			log.Error().Err(err).
				Str("order_id", order.ID).
				Msg("Ошибка отмены зависшего заказа")
		}
	}
}
