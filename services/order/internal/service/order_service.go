// Package service содержит бизнес-логику Order Service.
package service

import (
	"context"
	"errors"
	"fmt"

	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/services/order/internal/domain"
	"example.com/food-ordering/services/order/internal/repository"
	"example.com/food-ordering/services/order/internal/saga"
)

// OrderService определяет интерфейс бизнес-логики заказов.
type OrderService interface {
	// CreateOrder валидирует и создаёт новый заказ, запуская сагу оплаты.
	// Заказ приходит от handler с заполненными полями, но без ID —
	// идентификаторы и статус назначаются здесь.
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)

	// TrackOrder возвращает заказ по публичному tracking ID.
	TrackOrder(ctx context.Context, trackingID string) (*domain.Order, error)
}

// orderService — реализация OrderService.
type orderService struct {
	orders      repository.OrderRepository
	customers   repository.CustomerRepository
	restaurants repository.RestaurantRepository
	engine      saga.Engine
}

// NewOrderService создаёт новый сервис заказов.
func NewOrderService(
	orders repository.OrderRepository,
	customers repository.CustomerRepository,
	restaurants repository.RestaurantRepository,
	engine saga.Engine,
) OrderService {
	return &orderService{
		orders:      orders,
		customers:   customers,
		restaurants: restaurants,
		engine:      engine,
	}
}

// CreateOrder валидирует заказ против локальных реплик клиентов и ресторанов,
// инициализирует его и атомарно создаёт вместе с запросом на оплату в outbox.
func (s *orderService) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	// Клиент должен существовать в локальной реплике (заполняется из топика customer)
	if _, err := s.customers.GetByID(ctx, order.CustomerID); err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			log.Warn().
				Str("customer_id", order.CustomerID).
				Msg("Попытка создать заказ от неизвестного клиента")
			return nil, err
		}
		return nil, fmt.Errorf("ошибка проверки клиента: %w", err)
	}

	// Ресторан и его меню — проверяем доступность и цены позиций
	restaurant, err := s.restaurants.GetByID(ctx, order.RestaurantID)
	if err != nil {
		if errors.Is(err, domain.ErrRestaurantNotFound) {
			log.Warn().
				Str("restaurant_id", order.RestaurantID).
				Msg("Попытка создать заказ в неизвестном ресторане")
			return nil, err
		}
		return nil, fmt.Errorf("ошибка проверки ресторана: %w", err)
	}

	if err := restaurant.ValidateOrderItems(order.Items); err != nil {
		log.Warn().
			Err(err).
			Str("restaurant_id", order.RestaurantID).
			Msg("Позиции заказа не прошли проверку по меню ресторана")
		return nil, err
	}

	// Назначаем ID, tracking ID и статус PENDING, проверяем инварианты цены
	if err := order.ValidateAndInitialize(); err != nil {
		log.Warn().
			Err(err).
			Str("customer_id", order.CustomerID).
			Msg("Ошибка валидации заказа")
		return nil, err
	}

	// Заказ + запрос на оплату создаются в одной транзакции (Outbox Pattern)
	if err := s.engine.Start(ctx, order); err != nil {
		log.Error().
			Err(err).
			Str("customer_id", order.CustomerID).
			Msg("Ошибка создания заказа с сагой")
		return nil, fmt.Errorf("ошибка создания заказа: %w", err)
	}

	log.Info().
		Str("order_id", order.ID).
		Str("tracking_id", order.TrackingID).
		Str("customer_id", order.CustomerID).
		Str("price", order.Price.String()).
		Int("items_count", len(order.Items)).
		Msg("Заказ успешно создан")

	return order, nil
}

// TrackOrder возвращает заказ по tracking ID.
func (s *orderService) TrackOrder(ctx context.Context, trackingID string) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	order, err := s.orders.GetByTrackingID(ctx, trackingID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			log.Debug().
				Str("tracking_id", trackingID).
				Msg("Заказ не найден по tracking ID")
			return nil, err
		}
		return nil, fmt.Errorf("ошибка получения заказа: %w", err)
	}

	return order, nil
}
