package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"example.com/food-ordering/pkg/money"
	"example.com/food-ordering/services/order/internal/domain"
)

// RestaurantRepository — снапшот ресторанов и их меню в схеме Order Service.
// Используется при создании заказа для сверки позиций с меню.
type RestaurantRepository interface {
	// GetByID возвращает ресторан с меню.
	GetByID(ctx context.Context, id string) (*domain.Restaurant, error)
}

// RestaurantModel — GORM модель для таблицы restaurants.
type RestaurantModel struct {
	ID       string         `gorm:"column:id;type:varchar(36);primaryKey"`
	Name     string         `gorm:"column:name;type:varchar(255);not null"`
	Active   bool           `gorm:"column:active;not null;default:true"`
	Products []ProductModel `gorm:"foreignKey:RestaurantID;references:ID"`
}

// TableName возвращает имя таблицы в БД.
func (RestaurantModel) TableName() string {
	return "restaurants"
}

// ProductModel — GORM модель для таблицы restaurant_products.
type ProductModel struct {
	ID           string          `gorm:"column:id;type:varchar(36);primaryKey"`
	RestaurantID string          `gorm:"column:restaurant_id;type:varchar(36);not null;index"`
	Name         string          `gorm:"column:name;type:varchar(255);not null"`
	Price        decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null"`
	Available    bool            `gorm:"column:available;not null;default:true"`
}

// TableName возвращает имя таблицы в БД.
func (ProductModel) TableName() string {
	return "restaurant_products"
}

// restaurantRepository — GORM реализация RestaurantRepository.
type restaurantRepository struct {
	db *gorm.DB
}

// NewRestaurantRepository создаёт репозиторий снапшота ресторанов.
func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

// GetByID возвращает ресторан с меню.
func (r *restaurantRepository) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	var model RestaurantModel

	if err := r.db.WithContext(ctx).
		Preload("Products").
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRestaurantNotFound
		}
		return nil, err
	}

	restaurant := &domain.Restaurant{
		ID:       model.ID,
		Name:     model.Name,
		Active:   model.Active,
		Products: make([]domain.Product, len(model.Products)),
	}

	for i, p := range model.Products {
		restaurant.Products[i] = domain.Product{
			ID:        p.ID,
			Name:      p.Name,
			Price:     money.New(p.Price),
			Available: p.Available,
		}
	}

	return restaurant, nil
}
