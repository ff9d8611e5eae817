package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"example.com/food-ordering/services/restaurant/internal/domain"
)

// mysqlDuplicateEntry — код ошибки MySQL при нарушении unique constraint.
const mysqlDuplicateEntry = 1062

// ApprovalRepository определяет интерфейс для хранения решений по заказам.
type ApprovalRepository interface {
	// CreateTx создаёт решение внутри транзакции вызывающего кода.
	CreateTx(tx *gorm.DB, approval *domain.OrderApproval) error

	// GetBySagaID возвращает решение по саге.
	GetBySagaID(ctx context.Context, sagaID string) (*domain.OrderApproval, error)
}

// ApprovalModel — GORM модель для таблицы order_approvals.
type ApprovalModel struct {
	ID              string    `gorm:"column:id;type:varchar(36);primaryKey"`
	SagaID          string    `gorm:"column:saga_id;type:varchar(36);not null;uniqueIndex:idx_approvals_saga"`
	OrderID         string    `gorm:"column:order_id;type:varchar(36);not null;index"`
	RestaurantID    string    `gorm:"column:restaurant_id;type:varchar(36);not null"`
	Status          string    `gorm:"column:status;type:varchar(20);not null"`
	FailureMessages []byte    `gorm:"column:failure_messages;type:json"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName возвращает имя таблицы в БД.
func (ApprovalModel) TableName() string {
	return "order_approvals"
}

// approvalRepository — GORM реализация ApprovalRepository.
type approvalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository создаёт новый репозиторий решений.
func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

// CreateTx создаёт решение внутри транзакции вызывающего кода.
// По саге допускается ровно одно решение: повторная вставка упирается
// в unique index saga_id и возвращает ErrDuplicateApproval. Ключ нарочно
// не включает статус — при изменившихся данных повторная оценка могла бы
// дать противоположное решение, и сага получила бы два ответа.
func (r *approvalRepository) CreateTx(tx *gorm.DB, approval *domain.OrderApproval) error {
	model := &ApprovalModel{
		ID:           approval.ID,
		SagaID:       approval.SagaID,
		OrderID:      approval.OrderID,
		RestaurantID: approval.RestaurantID,
		Status:       string(approval.Status),
		CreatedAt:    approval.CreatedAt,
	}

	if len(approval.FailureMessages) > 0 {
		if data, err := json.Marshal(approval.FailureMessages); err == nil {
			model.FailureMessages = data
		}
	}

	if err := tx.Create(model).Error; err != nil {
		var mysqlErr *gomysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return domain.ErrDuplicateApproval
		}
		return err
	}
	return nil
}

// GetBySagaID возвращает решение по саге.
func (r *approvalRepository) GetBySagaID(ctx context.Context, sagaID string) (*domain.OrderApproval, error) {
	var model ApprovalModel

	if err := r.db.WithContext(ctx).
		Where("saga_id = ?", sagaID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrApprovalNotFound
		}
		return nil, err
	}

	approval := &domain.OrderApproval{
		ID:           model.ID,
		SagaID:       model.SagaID,
		OrderID:      model.OrderID,
		RestaurantID: model.RestaurantID,
		Status:       domain.ApprovalStatus(model.Status),
		CreatedAt:    model.CreatedAt,
	}

	if len(model.FailureMessages) > 0 {
		_ = json.Unmarshal(model.FailureMessages, &approval.FailureMessages)
	}

	return approval, nil
}
