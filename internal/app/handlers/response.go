package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/linemk/food-delivery/internal/domain/models"
)

// Тексты ответов совпадают с тем, что ожидает фронтенд
const (
	msgError          = "Error"
	msgNotAdmin       = "You are not an admin"
	msgOrderNotFound  = "Order not found"
	msgInvalidRequest = "Invalid request"
	msgInvalidDetails = "Invalid Razorpay details"
	msgVerifyFailed   = "Payment Verification Failed"
	msgVerified       = "Payment Verified"
	msgStatusUpdated  = "Status Updated Successfully"
	msgInternalError  = "Internal Server Error"
)

var validate = validator.New()

// Response — общий ответ {success, message}
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OrdersResponse — список заказов
type OrdersResponse struct {
	Success bool            `json:"success"`
	Data    []*models.Order `json:"data"`
}

func ordersResponse(orders []*models.Order) OrdersResponse {
	if orders == nil {
		orders = []*models.Order{}
	}
	return OrdersResponse{Success: true, Data: orders}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// fail — мягкая ошибка: HTTP 200 и success=false
func fail(w http.ResponseWriter, logger *slog.Logger, message string) {
	writeJSON(w, logger, http.StatusOK, Response{Success: false, Message: message})
}
