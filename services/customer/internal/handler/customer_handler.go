package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/services/customer/internal/domain"
	"example.com/food-ordering/services/customer/internal/service"
)

// CustomerHandler — обработчик реестра клиентов.
type CustomerHandler struct {
	customerService service.CustomerService
}

// NewCustomerHandler создаёт новый обработчик клиентов.
func NewCustomerHandler(customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// === Request/Response DTOs ===

// CreateCustomerRequest — запрос на регистрацию клиента.
type CreateCustomerRequest struct {
	Username  string `json:"username" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

// CustomerResponse — представление клиента в ответе.
type CustomerResponse struct {
	CustomerID string `json:"customer_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Message    string `json:"message,omitempty"`
}

// === Handlers ===

// CreateCustomer регистрирует нового клиента.
// POST /api/v1/customers
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на регистрацию клиента")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	customer := &domain.Customer{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	result, err := h.customerService.CreateCustomer(ctx, customer)
	if err != nil {
		handleDomainError(c, err, "CreateCustomer")
		return
	}

	c.JSON(http.StatusCreated, CustomerResponse{
		CustomerID: result.ID,
		Username:   result.Username,
		FirstName:  result.FirstName,
		LastName:   result.LastName,
		Message:    "Customer created successfully",
	})
}

// GetCustomer возвращает клиента по ID.
// GET /api/v1/customers/:customerId
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	ctx := c.Request.Context()

	customerID := c.Param("customerId")
	if customerID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Customer ID обязателен",
		})
		return
	}

	customer, err := h.customerService.GetCustomer(ctx, customerID)
	if err != nil {
		handleDomainError(c, err, "GetCustomer")
		return
	}

	c.JSON(http.StatusOK, CustomerResponse{
		CustomerID: customer.ID,
		Username:   customer.Username,
		FirstName:  customer.FirstName,
		LastName:   customer.LastName,
	})
}
