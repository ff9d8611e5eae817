package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/food-ordering/services/order/internal/domain"
)

// CustomerRepository — локальная реплика клиентов в схеме Order Service.
// Пополняется консьюмером топика customer.
type CustomerRepository interface {
	// Upsert сохраняет клиента. Повторное событие с тем же ID — no-op.
	Upsert(ctx context.Context, customer *domain.Customer) error

	// GetByID возвращает клиента из реплики.
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

// CustomerModel — GORM модель для таблицы customers (реплика).
type CustomerModel struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Username  string    `gorm:"column:username;type:varchar(100);not null"`
	FirstName string    `gorm:"column:first_name;type:varchar(100)"`
	LastName  string    `gorm:"column:last_name;type:varchar(100)"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName возвращает имя таблицы в БД.
func (CustomerModel) TableName() string {
	return "customers"
}

// customerRepository — GORM реализация CustomerRepository.
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository создаёт репозиторий реплики клиентов.
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Upsert сохраняет клиента. События customer доставляются at-least-once,
// поэтому повторная вставка молча игнорируется.
func (r *customerRepository) Upsert(ctx context.Context, customer *domain.Customer) error {
	model := &CustomerModel{
		ID:        customer.ID,
		Username:  customer.Username,
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model).Error
}

// GetByID возвращает клиента из реплики.
func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	var model CustomerModel

	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}

	return &domain.Customer{
		ID:        model.ID,
		Username:  model.Username,
		FirstName: model.FirstName,
		LastName:  model.LastName,
		CreatedAt: model.CreatedAt,
	}, nil
}
