package outbox

import (
	"context"
	"errors"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrNotFound — запись outbox не найдена.
var ErrNotFound = errors.New("запись outbox не найдена")

// ErrDuplicate — запись с таким (saga_id, saga_status) уже существует.
// Означает повторную обработку того же шага саги — вызывающий код
// молча игнорирует такую ошибку (at-least-once доставка).
var ErrDuplicate = errors.New("дубликат записи outbox")

// ErrConcurrentUpdate — версия записи изменилась между чтением и записью.
// Другой инстанс сервиса уже обработал эту запись.
var ErrConcurrentUpdate = errors.New("конкурентное обновление записи outbox")

// mysqlDuplicateEntry — код ошибки MySQL при нарушении unique constraint.
const mysqlDuplicateEntry = 1062

// Repository определяет методы работы с таблицей outbox.
// Интерфейс для тестируемости (Dependency Inversion).
type Repository interface {
	// Save создаёт запись вне транзакции вызывающего кода.
	Save(ctx context.Context, msg *Message) error

	// SaveTx создаёт запись внутри транзакции вызывающего кода.
	// Бизнес-данные и outbox пишутся атомарно.
	SaveTx(tx *gorm.DB, msg *Message) error

	// UpdateStatusTx обновляет статусы записи внутри транзакции
	// с проверкой версии (optimistic locking).
	UpdateStatusTx(tx *gorm.DB, msg *Message) error

	// GetPending возвращает записи, ожидающие публикации
	// (STARTED и FAILED в пределах лимита повторов).
	GetPending(ctx context.Context, limit int) ([]*Message, error)

	// GetBySagaAndStatus находит запись по ключу дедупликации.
	GetBySagaAndStatus(ctx context.Context, sagaID string, sagaStatus SagaStatus) (*Message, error)

	// MarkPublished переводит запись STARTED/FAILED -> COMPLETED с проверкой версии.
	MarkPublished(ctx context.Context, id string, version int) error

	// MarkFailed помечает неудачную публикацию: FAILED, retry_count+1, текст ошибки.
	MarkFailed(ctx context.Context, id string, version int, pubErr error) error

	// MarkDeadLetter выводит запись из очереди после исчерпания попыток.
	// Статус остаётся FAILED, processed_at фиксирует момент вывода.
	MarkDeadLetter(ctx context.Context, id string) error

	// DeleteCompletedBefore удаляет опубликованные записи старше указанного времени.
	DeleteCompletedBefore(ctx context.Context, before time.Time) (int64, error)
}

// repository — GORM реализация Repository.
// table задаёт имя таблицы outbox конкретного сервиса.
type repository struct {
	db    *gorm.DB
	table string
}

// NewRepository создаёт репозиторий outbox для указанной таблицы
// (например "payment_outbox" или "restaurant_approval_outbox").
func NewRepository(db *gorm.DB, table string) Repository {
	return &repository{db: db, table: table}
}

// isDuplicateErr распознаёт нарушение unique constraint MySQL.
func isDuplicateErr(err error) bool {
	var mysqlErr *gomysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// Save создаёт запись вне транзакции вызывающего кода.
func (r *repository) Save(ctx context.Context, msg *Message) error {
	return r.SaveTx(r.db.WithContext(ctx), msg)
}

// SaveTx создаёт запись внутри транзакции вызывающего кода.
func (r *repository) SaveTx(tx *gorm.DB, msg *Message) error {
	model := ModelFromDomain(msg)
	if err := tx.Table(r.table).Create(model).Error; err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicate
		}
		return err
	}
	msg.CreatedAt = model.CreatedAt
	return nil
}

// UpdateStatusTx обновляет статусы записи с проверкой версии.
// При несовпадении версии возвращает ErrConcurrentUpdate.
func (r *repository) UpdateStatusTx(tx *gorm.DB, msg *Message) error {
	result := tx.Table(r.table).
		Where("id = ? AND version = ?", msg.ID, msg.Version).
		Updates(map[string]any{
			"outbox_status": string(msg.Status),
			"saga_status":   string(msg.SagaStatus),
			"order_status":  msg.OrderStatus,
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		if isDuplicateErr(result.Error) {
			return ErrDuplicate
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	msg.Version++
	return nil
}

// GetPending возвращает записи STARTED и FAILED, отсортированные по времени создания.
// FIFO по created_at сохраняет порядок сообщений одной саги.
func (r *repository) GetPending(ctx context.Context, limit int) ([]*Message, error) {
	var models []MessageModel

	if err := r.db.WithContext(ctx).Table(r.table).
		Where("processed_at IS NULL AND outbox_status IN ?",
			[]string{string(StatusStarted), string(StatusFailed)}).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}

	result := make([]*Message, len(models))
	for i := range models {
		result[i] = models[i].ToDomain()
	}
	return result, nil
}

// GetBySagaAndStatus находит запись по ключу дедупликации.
func (r *repository) GetBySagaAndStatus(ctx context.Context, sagaID string, sagaStatus SagaStatus) (*Message, error) {
	var model MessageModel

	err := r.db.WithContext(ctx).Table(r.table).
		Where("saga_id = ? AND saga_status = ?", sagaID, string(sagaStatus)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return model.ToDomain(), nil
}

// MarkPublished переводит запись в COMPLETED с проверкой версии.
func (r *repository) MarkPublished(ctx context.Context, id string, version int) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Table(r.table).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]any{
			"outbox_status": string(StatusCompleted),
			"processed_at":  now,
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

// MarkFailed помечает неудачную публикацию.
func (r *repository) MarkFailed(ctx context.Context, id string, version int, pubErr error) error {
	errStr := pubErr.Error()
	result := r.db.WithContext(ctx).Table(r.table).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]any{
			"outbox_status": string(StatusFailed),
			"retry_count":   gorm.Expr("retry_count + 1"),
			"last_error":    errStr,
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

// MarkDeadLetter выводит запись из очереди, сохраняя статус FAILED.
// Запись остаётся в таблице для ручного разбора оператором.
func (r *repository) MarkDeadLetter(ctx context.Context, id string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Table(r.table).
		Where("id = ?", id).
		Update("processed_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCompletedBefore удаляет опубликованные записи старше указанного времени.
// Удаляет пачками по 1000 для предотвращения длинных блокировок.
func (r *repository) DeleteCompletedBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Table(r.table).
		Where("outbox_status = ? AND processed_at IS NOT NULL AND processed_at < ?",
			string(StatusCompleted), before).
		Limit(1000).
		Delete(&MessageModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
