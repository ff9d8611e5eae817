// Package outbox реализует Transactional Outbox Pattern для гарантированной
// доставки сообщений саги в Kafka. В одной локальной транзакции сервис пишет
// бизнес-данные + запись в outbox; отдельный Sweeper читает outbox и публикует
// сообщения. Гарантия — at-least-once, дедупликация на стороне получателя.
//
// Каждый сервис владеет своими таблицами outbox (payment_outbox,
// restaurant_approval_outbox и т.д.), репозиторий параметризуется именем таблицы.
package outbox

import (
	"encoding/json"
	"time"
)

// Status — статус публикации записи outbox.
type Status string

const (
	// StatusStarted — запись создана, ещё не опубликована.
	StatusStarted Status = "STARTED"

	// StatusCompleted — сообщение подтверждено брокером.
	StatusCompleted Status = "COMPLETED"

	// StatusFailed — публикация не удалась, запись будет повторена.
	StatusFailed Status = "FAILED"
)

// SagaStatus — статус шага саги, к которому относится запись.
// Вместе с SagaID образует ключ дедупликации: повторная обработка
// того же шага упирается в unique constraint и молча игнорируется.
type SagaStatus string

const (
	// SagaStarted — сага запущена (исходный запрос на оплату).
	SagaStarted SagaStatus = "STARTED"

	// SagaProcessing — промежуточный шаг выполняется (запрос подтверждения ресторана).
	SagaProcessing SagaStatus = "PROCESSING"

	// SagaSucceeded — сага успешно завершена.
	SagaSucceeded SagaStatus = "SUCCEEDED"

	// SagaCompensating — запущена компенсация (возврат платежа).
	SagaCompensating SagaStatus = "COMPENSATING"

	// SagaCompensated — компенсация завершена.
	SagaCompensated SagaStatus = "COMPENSATED"

	// SagaFailed — шаг завершился отказом без компенсации.
	SagaFailed SagaStatus = "FAILED"
)

// Message — запись в таблице outbox.
type Message struct {
	ID          string            // UUID записи
	SagaID      string            // ID саги (= order_id), ключ Kafka сообщения
	Type        string            // Тип события (payment-request / restaurant-approval-request / ...)
	Topic       string            // Kafka топик
	Payload     []byte            // JSON payload
	Headers     map[string]string // Headers для Kafka (trace_id, correlation_id)
	OrderStatus string            // Снапшот статуса заказа на момент записи
	SagaStatus  SagaStatus        // Статус шага саги (часть ключа дедупликации)
	Status      Status            // Статус публикации
	Version     int               // Версия для optimistic locking
	CreatedAt   time.Time         // Время создания
	ProcessedAt *time.Time        // Время вывода из очереди (nil = в очереди)
	RetryCount  int               // Количество попыток публикации
	LastError   *string           // Последняя ошибка публикации
}

// HeadersJSON возвращает headers в формате JSON для БД.
func (m *Message) HeadersJSON() ([]byte, error) {
	if m.Headers == nil {
		return nil, nil
	}
	return json.Marshal(m.Headers)
}

// SetHeadersFromJSON устанавливает headers из JSON.
func (m *Message) SetHeadersFromJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, &m.Headers)
}
