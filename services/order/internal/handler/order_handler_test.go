// Package handler содержит unit тесты для OrderHandler.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/food-ordering/services/order/internal/domain"
)

// MockOrderService — мок для service.OrderService.
type MockOrderService struct {
	CreateOrderFunc func(ctx context.Context, order *domain.Order) (*domain.Order, error)
	TrackOrderFunc  func(ctx context.Context, trackingID string) (*domain.Order, error)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, order)
	}
	return nil, nil
}

func (m *MockOrderService) TrackOrder(ctx context.Context, trackingID string) (*domain.Order, error) {
	if m.TrackOrderFunc != nil {
		return m.TrackOrderFunc(ctx, trackingID)
	}
	return nil, nil
}

// setupTestRouter создаёт Gin router для тестов.
func setupTestRouter(h *OrderHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.POST("/api/v1/orders", h.CreateOrder)
	r.GET("/api/v1/orders/track/:trackingId", h.TrackOrder)

	return r
}

// validCreateOrderRequest возвращает валидный запрос на создание заказа.
func validCreateOrderRequest() CreateOrderRequest {
	return CreateOrderRequest{
		CustomerID:   "550e8400-e29b-41d4-a716-446655440001",
		RestaurantID: "550e8400-e29b-41d4-a716-446655440002",
		Address: AddressRequest{
			Street:     "Тверская 1",
			PostalCode: "125009",
			City:       "Москва",
		},
		Price: decimal.RequireFromString("100.00"),
		Items: []CreateOrderItemRequest{
			{
				ProductID: "550e8400-e29b-41d4-a716-446655440003",
				Quantity:  2,
				Price:     decimal.RequireFromString("50.00"),
				SubTotal:  decimal.RequireFromString("100.00"),
			},
		},
	}
}

func performRequest(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateOrderHandler_Success(t *testing.T) {
	mockService := &MockOrderService{
		CreateOrderFunc: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
			order.ID = "order-1"
			order.TrackingID = "tracking-1"
			order.Status = domain.OrderStatusPending
			return order, nil
		},
	}
	router := setupTestRouter(NewOrderHandler(mockService))

	w := performRequest(t, router, http.MethodPost, "/api/v1/orders", validCreateOrderRequest())

	require.Equal(t, http.StatusCreated, w.Code)

	var resp CreateOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "tracking-1", resp.OrderTrackingID)
	assert.Equal(t, "PENDING", resp.OrderStatus)
	assert.Equal(t, "Order created successfully", resp.Message)
}

func TestCreateOrderHandler_InvalidBody(t *testing.T) {
	called := false
	mockService := &MockOrderService{
		CreateOrderFunc: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
			called = true
			return order, nil
		},
	}
	router := setupTestRouter(NewOrderHandler(mockService))

	// customer_id не UUID
	req := validCreateOrderRequest()
	req.CustomerID = "not-a-uuid"

	w := performRequest(t, router, http.MethodPost, "/api/v1/orders", req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called, "сервис не должен вызываться для невалидного запроса")
}

func TestCreateOrderHandler_EmptyItems(t *testing.T) {
	router := setupTestRouter(NewOrderHandler(&MockOrderService{}))

	req := validCreateOrderRequest()
	req.Items = nil

	w := performRequest(t, router, http.MethodPost, "/api/v1/orders", req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderHandler_CustomerNotFound(t *testing.T) {
	mockService := &MockOrderService{
		CreateOrderFunc: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
			return nil, domain.ErrCustomerNotFound
		},
	}
	router := setupTestRouter(NewOrderHandler(mockService))

	w := performRequest(t, router, http.MethodPost, "/api/v1/orders", validCreateOrderRequest())

	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error)
}

func TestCreateOrderHandler_PriceMismatch(t *testing.T) {
	mockService := &MockOrderService{
		CreateOrderFunc: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
			return nil, domain.ErrPriceMismatch
		},
	}
	router := setupTestRouter(NewOrderHandler(mockService))

	w := performRequest(t, router, http.MethodPost, "/api/v1/orders", validCreateOrderRequest())

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Error)
}

func TestTrackOrderHandler_Success(t *testing.T) {
	mockService := &MockOrderService{
		TrackOrderFunc: func(ctx context.Context, trackingID string) (*domain.Order, error) {
			return &domain.Order{
				ID:              "order-1",
				TrackingID:      trackingID,
				Status:          domain.OrderStatusCancelled,
				FailureMessages: []string{"Customer has no enough credit"},
			}, nil
		},
	}
	router := setupTestRouter(NewOrderHandler(mockService))

	w := performRequest(t, router, http.MethodGet, "/api/v1/orders/track/tracking-1", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp TrackOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "tracking-1", resp.OrderTrackingID)
	assert.Equal(t, "CANCELLED", resp.OrderStatus)
	assert.Equal(t, []string{"Customer has no enough credit"}, resp.FailureMessages)
}

func TestTrackOrderHandler_NotFound(t *testing.T) {
	mockService := &MockOrderService{
		TrackOrderFunc: func(ctx context.Context, trackingID string) (*domain.Order, error) {
			return nil, domain.ErrOrderNotFound
		},
	}
	router := setupTestRouter(NewOrderHandler(mockService))

	w := performRequest(t, router, http.MethodGet, "/api/v1/orders/track/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
