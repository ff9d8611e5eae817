package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"example.com/food-ordering/pkg/money"
	"example.com/food-ordering/services/payment/internal/domain"
)

// ErrConcurrentUpdate — версия кредитного счёта изменилась между чтением
// и записью. Конкурентное списание, запрос нужно обработать заново.
var ErrConcurrentUpdate = errors.New("конкурентное обновление кредитного счёта")

// CreditRepository определяет интерфейс для работы со счетами клиентов.
type CreditRepository interface {
	// GetEntryByCustomerID возвращает кредитный счёт клиента.
	GetEntryByCustomerID(ctx context.Context, customerID string) (*domain.CreditEntry, error)

	// UpdateEntryTx сохраняет баланс счёта внутри транзакции
	// с проверкой версии (optimistic locking).
	UpdateEntryTx(tx *gorm.DB, entry *domain.CreditEntry) error

	// AddHistoryTx добавляет операцию в историю счёта внутри транзакции.
	AddHistoryTx(tx *gorm.DB, entry *domain.CreditHistoryEntry) error

	// ListHistoryByCustomerID возвращает все операции по счёту клиента.
	ListHistoryByCustomerID(ctx context.Context, customerID string) ([]domain.CreditHistoryEntry, error)
}

// CreditEntryModel — GORM модель для таблицы credit_entries.
type CreditEntryModel struct {
	ID                string          `gorm:"column:id;type:varchar(36);primaryKey"`
	CustomerID        string          `gorm:"column:customer_id;type:varchar(36);not null;uniqueIndex"`
	TotalCreditAmount decimal.Decimal `gorm:"column:total_credit_amount;type:decimal(10,2);not null"`
	Version           int             `gorm:"column:version;not null;default:0"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (CreditEntryModel) TableName() string {
	return "credit_entries"
}

// CreditHistoryModel — GORM модель для таблицы credit_history.
type CreditHistoryModel struct {
	ID         string          `gorm:"column:id;type:varchar(36);primaryKey"`
	CustomerID string          `gorm:"column:customer_id;type:varchar(36);not null;index"`
	Amount     decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null"`
	Type       string          `gorm:"column:type;type:varchar(10);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName возвращает имя таблицы в БД.
func (CreditHistoryModel) TableName() string {
	return "credit_history"
}

// creditRepository — GORM реализация CreditRepository.
type creditRepository struct {
	db *gorm.DB
}

// NewCreditRepository создаёт новый репозиторий кредитных счетов.
func NewCreditRepository(db *gorm.DB) CreditRepository {
	return &creditRepository{db: db}
}

// GetEntryByCustomerID возвращает кредитный счёт клиента.
func (r *creditRepository) GetEntryByCustomerID(ctx context.Context, customerID string) (*domain.CreditEntry, error) {
	var model CreditEntryModel

	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCreditEntryNotFound
		}
		return nil, err
	}

	return &domain.CreditEntry{
		ID:                model.ID,
		CustomerID:        model.CustomerID,
		TotalCreditAmount: money.New(model.TotalCreditAmount),
		Version:           model.Version,
	}, nil
}

// UpdateEntryTx сохраняет баланс счёта с проверкой версии.
// При несовпадении версии возвращает ErrConcurrentUpdate.
func (r *creditRepository) UpdateEntryTx(tx *gorm.DB, entry *domain.CreditEntry) error {
	result := tx.Model(&CreditEntryModel{}).
		Where("id = ? AND version = ?", entry.ID, entry.Version).
		Updates(map[string]any{
			"total_credit_amount": entry.TotalCreditAmount.Amount,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	entry.Version++
	return nil
}

// AddHistoryTx добавляет операцию в историю счёта.
func (r *creditRepository) AddHistoryTx(tx *gorm.DB, entry *domain.CreditHistoryEntry) error {
	model := &CreditHistoryModel{
		ID:         entry.ID,
		CustomerID: entry.CustomerID,
		Amount:     entry.Amount.Amount,
		Type:       string(entry.Type),
		CreatedAt:  entry.CreatedAt,
	}

	return tx.Create(model).Error
}

// ListHistoryByCustomerID возвращает все операции по счёту клиента.
func (r *creditRepository) ListHistoryByCustomerID(ctx context.Context, customerID string) ([]domain.CreditHistoryEntry, error) {
	var models []CreditHistoryModel

	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	history := make([]domain.CreditHistoryEntry, len(models))
	for i, m := range models {
		history[i] = domain.CreditHistoryEntry{
			ID:         m.ID,
			CustomerID: m.CustomerID,
			Amount:     money.New(m.Amount),
			Type:       domain.TransactionType(m.Type),
			CreatedAt:  m.CreatedAt,
		}
	}

	return history, nil
}
