package outbox

import "time"

// MessageModel — GORM модель записи outbox.
// Имя таблицы задаётся репозиторием через db.Table, одна модель
// обслуживает все таблицы outbox (payment_outbox, restaurant_approval_outbox и т.д.).
//
// Unique constraint (saga_id, saga_status) — ключ дедупликации:
// повторная вставка того же шага саги завершается ошибкой 1062
// и интерпретируется как ErrDuplicate.
type MessageModel struct {
	ID          string     `gorm:"column:id;type:varchar(36);primaryKey"`
	SagaID      string     `gorm:"column:saga_id;type:varchar(36);not null;uniqueIndex:idx_outbox_saga_step"`
	Type        string     `gorm:"column:type;type:varchar(100);not null"`
	Topic       string     `gorm:"column:topic;type:varchar(100);not null"`
	Payload     []byte     `gorm:"column:payload;type:json;not null"`
	Headers     []byte     `gorm:"column:headers;type:json"`
	OrderStatus string     `gorm:"column:order_status;type:varchar(20);not null"`
	SagaStatus  string     `gorm:"column:saga_status;type:varchar(20);not null;uniqueIndex:idx_outbox_saga_step"`
	Status      string     `gorm:"column:outbox_status;type:varchar(20);not null;index:idx_outbox_status"`
	Version     int        `gorm:"column:version;not null;default:0"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	ProcessedAt *time.Time `gorm:"column:processed_at"`
	RetryCount  int        `gorm:"column:retry_count;not null;default:0"`
	LastError   *string    `gorm:"column:last_error;type:text"`
}

// ToDomain конвертирует GORM модель в доменную сущность.
func (m *MessageModel) ToDomain() *Message {
	msg := &Message{
		ID:          m.ID,
		SagaID:      m.SagaID,
		Type:        m.Type,
		Topic:       m.Topic,
		Payload:     m.Payload,
		OrderStatus: m.OrderStatus,
		SagaStatus:  SagaStatus(m.SagaStatus),
		Status:      Status(m.Status),
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		ProcessedAt: m.ProcessedAt,
		RetryCount:  m.RetryCount,
		LastError:   m.LastError,
	}

	if len(m.Headers) > 0 {
		_ = msg.SetHeadersFromJSON(m.Headers)
	}

	return msg
}

// ModelFromDomain конвертирует доменную сущность в GORM модель.
func ModelFromDomain(msg *Message) *MessageModel {
	model := &MessageModel{
		ID:          msg.ID,
		SagaID:      msg.SagaID,
		Type:        msg.Type,
		Topic:       msg.Topic,
		Payload:     msg.Payload,
		OrderStatus: msg.OrderStatus,
		SagaStatus:  string(msg.SagaStatus),
		Status:      string(msg.Status),
		Version:     msg.Version,
		CreatedAt:   msg.CreatedAt,
		ProcessedAt: msg.ProcessedAt,
		RetryCount:  msg.RetryCount,
		LastError:   msg.LastError,
	}

	if msg.Headers != nil {
		if data, err := msg.HeadersJSON(); err == nil {
			model.Headers = data
		}
	}

	return model
}
