package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/food-ordering/pkg/money"
)

// testRestaurant возвращает активный ресторан с двумя продуктами.
func testRestaurant() *Restaurant {
	return &Restaurant{
		ID:     "restaurant-1",
		Name:   "Тестовый ресторан",
		Active: true,
		Products: []Product{
			{ID: "product-1", Name: "Пицца", Price: money.MustFromString("25.00"), Available: true},
			{ID: "product-2", Name: "Паста", Price: money.MustFromString("50.00"), Available: true},
		},
	}
}

// testOrder: 2 x 25.00 + 3 x 50.00 = 200.00
func testOrderProducts() []OrderProduct {
	return []OrderProduct{
		{ID: "product-1", Quantity: 2},
		{ID: "product-2", Quantity: 3},
	}
}

func TestEvaluateOrder_Approved(t *testing.T) {
	restaurant := testRestaurant()

	approval := restaurant.EvaluateOrder("saga-1", "order-1", testOrderProducts(), money.MustFromString("200.00"))

	assert.Equal(t, ApprovalApproved, approval.Status)
	assert.True(t, approval.IsApproved())
	assert.Empty(t, approval.FailureMessages)
	assert.Equal(t, "saga-1", approval.SagaID)
	assert.Equal(t, "restaurant-1", approval.RestaurantID)
	assert.NotEmpty(t, approval.ID)
}

func TestEvaluateOrder_InactiveRestaurant(t *testing.T) {
	restaurant := testRestaurant()
	restaurant.Active = false

	approval := restaurant.EvaluateOrder("saga-1", "order-1", testOrderProducts(), money.MustFromString("200.00"))

	assert.Equal(t, ApprovalRejected, approval.Status)
	require.Len(t, approval.FailureMessages, 1)
	assert.Contains(t, approval.FailureMessages[0], "is not active")
}

func TestEvaluateOrder_ProductNotAvailable(t *testing.T) {
	restaurant := testRestaurant()
	restaurant.Products[1].Available = false

	approval := restaurant.EvaluateOrder("saga-1", "order-1", testOrderProducts(), money.MustFromString("200.00"))

	assert.Equal(t, ApprovalRejected, approval.Status)
	require.Len(t, approval.FailureMessages, 1)
	assert.Contains(t, approval.FailureMessages[0], "product-2")
	assert.Contains(t, approval.FailureMessages[0], "is not available")
}

func TestEvaluateOrder_UnknownProduct(t *testing.T) {
	restaurant := testRestaurant()

	products := []OrderProduct{{ID: "product-999", Quantity: 1}}

	approval := restaurant.EvaluateOrder("saga-1", "order-1", products, money.MustFromString("10.00"))

	assert.Equal(t, ApprovalRejected, approval.Status)
	assert.Contains(t, approval.FailureMessages[0], "product-999")
}

func TestEvaluateOrder_PriceMismatch(t *testing.T) {
	restaurant := testRestaurant()

	// Сумма по меню 200.00, в запросе 150.00
	approval := restaurant.EvaluateOrder("saga-1", "order-1", testOrderProducts(), money.MustFromString("150.00"))

	assert.Equal(t, ApprovalRejected, approval.Status)
	require.Len(t, approval.FailureMessages, 1)
	assert.Contains(t, approval.FailureMessages[0], "is not correct for order")
}

func TestEvaluateOrder_CollectsAllUnavailableProducts(t *testing.T) {
	restaurant := testRestaurant()
	restaurant.Products[0].Available = false
	restaurant.Products[1].Available = false

	approval := restaurant.EvaluateOrder("saga-1", "order-1", testOrderProducts(), money.MustFromString("200.00"))

	// Все недоступные продукты перечислены в причинах
	assert.Equal(t, ApprovalRejected, approval.Status)
	assert.Len(t, approval.FailureMessages, 2)
}
