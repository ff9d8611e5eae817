package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/services/customer/internal/domain"
)

// ErrorResponse — стандартный формат ошибки API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleDomainError отображает доменные ошибки в HTTP статусы.
func handleDomainError(c *gin.Context, err error, operation string) {
	log := logger.FromContext(c.Request.Context())

	switch {
	case errors.Is(err, domain.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})

	case errors.Is(err, domain.ErrUsernameTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})

	case errors.Is(err, domain.ErrInvalidUsername),
		errors.Is(err, domain.ErrInvalidName):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})

	default:
		log.Error().Err(err).Str("operation", operation).Msg("Внутренняя ошибка")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Внутренняя ошибка сервера",
		})
	}
}
