package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/food-delivery/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/food-delivery/internal/service"
)

// UpdateStatusRequest — статус может быть любой строкой
type UpdateStatusRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Status  string `json:"status"`
}

// ListOrdersHandler обрабатывает запрос GET /api/order/list (только для админа)
func ListOrdersHandler(log *slog.Logger, adminService service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orders, err := adminService.ListOrders(r.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrNotAdmin) {
				fail(w, logger, msgNotAdmin)
				return
			}
			logger.Error("failed to list orders", slog.Any("error", err))
			fail(w, logger, msgError)
			return
		}

		writeJSON(w, logger, http.StatusOK, ordersResponse(orders))
	}
}

// UpdateStatusHandler обрабатывает запрос POST /api/order/status (только для админа)
func UpdateStatusHandler(log *slog.Logger, adminService service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateStatusHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			fail(w, logger, msgError)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			fail(w, logger, msgError)
			return
		}

		err := adminService.UpdateStatus(r.Context(), userID, req.OrderID, req.Status)
		switch {
		case err == nil:
			writeJSON(w, logger, http.StatusOK, Response{Success: true, Message: msgStatusUpdated})
		case errors.Is(err, service.ErrNotAdmin):
			fail(w, logger, msgNotAdmin)
		case errors.Is(err, service.ErrOrderNotFound):
			fail(w, logger, msgOrderNotFound)
		default:
			logger.Error("failed to update status", slog.Any("error", err))
			fail(w, logger, msgError)
		}
	}
}
