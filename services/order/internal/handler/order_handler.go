package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/pkg/money"
	"example.com/food-ordering/services/order/internal/domain"
	"example.com/food-ordering/services/order/internal/service"
)

// OrderHandler — обработчик заказов.
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler создаёт новый обработчик заказов.
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// === Request/Response DTOs ===

// CreateOrderRequest — запрос на создание заказа.
type CreateOrderRequest struct {
	CustomerID   string                   `json:"customer_id" binding:"required,uuid"`
	RestaurantID string                   `json:"restaurant_id" binding:"required,uuid"`
	Address      AddressRequest           `json:"address" binding:"required"`
	Price        decimal.Decimal          `json:"price" binding:"required"`
	Items        []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// AddressRequest — адрес доставки в запросе.
type AddressRequest struct {
	Street     string `json:"street" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	City       string `json:"city" binding:"required"`
}

// CreateOrderItemRequest — позиция в запросе на создание заказа.
type CreateOrderItemRequest struct {
	ProductID string          `json:"product_id" binding:"required,uuid"`
	Quantity  int32           `json:"quantity" binding:"required,min=1"`
	Price     decimal.Decimal `json:"price" binding:"required"`
	SubTotal  decimal.Decimal `json:"sub_total" binding:"required"`
}

// CreateOrderResponse — ответ на создание заказа.
type CreateOrderResponse struct {
	OrderTrackingID string `json:"order_tracking_id"`
	OrderStatus     string `json:"order_status"`
	Message         string `json:"message"`
}

// TrackOrderResponse — статус заказа по tracking ID.
type TrackOrderResponse struct {
	OrderTrackingID string   `json:"order_tracking_id"`
	OrderStatus     string   `json:"order_status"`
	FailureMessages []string `json:"failure_messages,omitempty"`
}

// === Handlers ===

// CreateOrder создаёт новый заказ и запускает сагу оплаты.
// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на создание заказа")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	order := toDomainOrder(&req)

	result, err := h.orderService.CreateOrder(ctx, order)
	if err != nil {
		handleDomainError(c, err, "CreateOrder")
		return
	}

	c.JSON(http.StatusCreated, CreateOrderResponse{
		OrderTrackingID: result.TrackingID,
		OrderStatus:     string(result.Status),
		Message:         "Order created successfully",
	})
}

// TrackOrder возвращает статус заказа по tracking ID.
// GET /api/v1/orders/track/:trackingId
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	ctx := c.Request.Context()

	trackingID := c.Param("trackingId")
	if trackingID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Tracking ID обязателен",
		})
		return
	}

	order, err := h.orderService.TrackOrder(ctx, trackingID)
	if err != nil {
		handleDomainError(c, err, "TrackOrder")
		return
	}

	c.JSON(http.StatusOK, TrackOrderResponse{
		OrderTrackingID: order.TrackingID,
		OrderStatus:     string(order.Status),
		FailureMessages: order.FailureMessages,
	})
}

// toDomainOrder преобразует request DTO в доменную сущность.
func toDomainOrder(req *CreateOrderRequest) *domain.Order {
	items := make([]domain.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     money.New(item.Price),
			SubTotal:  money.New(item.SubTotal),
		}
	}

	return &domain.Order{
		CustomerID:   req.CustomerID,
		RestaurantID: req.RestaurantID,
		DeliveryAddress: domain.Address{
			Street:     req.Address.Street,
			PostalCode: req.Address.PostalCode,
			City:       req.Address.City,
		},
		Items: items,
		Price: money.New(req.Price),
	}
}
