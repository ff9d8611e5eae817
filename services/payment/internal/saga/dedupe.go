package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/pkg/messaging"
)

// Настройки быстрой проверки идемпотентности.
const (
	// dedupeKeyPrefix — префикс ключей обработанных запросов в Redis.
	dedupeKeyPrefix = "payment:request:"

	// dedupeTTL — время жизни ключа. Дубликаты из Kafka приходят
	// в пределах retention топика, сутки покрывают с запасом.
	dedupeTTL = 24 * time.Hour
)

// Dedupe — быстрая проверка повторной доставки payment-request через
// Redis SETNX. Это только оптимизация: жёсткая гарантия идемпотентности —
// unique constraint в outbox, поэтому ошибки Redis не блокируют обработку.
type Dedupe struct {
	rdb *redis.Client
}

// NewDedupe создаёт проверку идемпотентности поверх Redis.
func NewDedupe(rdb *redis.Client) *Dedupe {
	return &Dedupe{rdb: rdb}
}

// key строит ключ запроса: сага + тип операции (списание или возврат).
func (d *Dedupe) key(req *messaging.PaymentRequest) string {
	return fmt.Sprintf("%s%s:%s", dedupeKeyPrefix, req.SagaID, req.PaymentOrderStatus)
}

// Acquire пытается пометить запрос как обрабатываемый.
// false означает, что такой запрос уже обработан (или обрабатывается).
func (d *Dedupe) Acquire(ctx context.Context, req *messaging.PaymentRequest) bool {
	log := logger.FromContext(ctx)

	wasSet, err := d.rdb.SetNX(ctx, d.key(req), "processing", dedupeTTL).Result()
	if err != nil {
		// При ошибке Redis продолжаем — БД защитит от дубликатов
		log.Error().Err(err).
			Str("saga_id", req.SagaID).
			Msg("Ошибка Redis при проверке идемпотентности")
		return true
	}
	return wasSet
}

// Release снимает пометку после неудачной обработки,
// чтобы повторная доставка из Kafka могла пройти заново.
func (d *Dedupe) Release(ctx context.Context, req *messaging.PaymentRequest) {
	log := logger.FromContext(ctx)

	if err := d.rdb.Del(ctx, d.key(req)).Err(); err != nil {
		log.Error().Err(err).
			Str("saga_id", req.SagaID).
			Msg("Ошибка Redis при снятии пометки идемпотентности")
	}
}
