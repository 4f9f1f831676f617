package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/food-delivery/internal/domain/models"
	"github.com/linemk/food-delivery/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/food-delivery/internal/service"
)

// PlaceOrderRequest — тело запроса на оформление заказа.
// Amount сохраняется в заказе, но сумма к оплате пересчитывается по позициям
type PlaceOrderRequest struct {
	Items   []models.Item  `json:"items" validate:"dive"`
	Amount  float64        `json:"amount"`
	Address models.Address `json:"address"`
}

type PlaceOrderResponse struct {
	Success         bool    `json:"success"`
	OrderID         string  `json:"orderId"`
	RazorpayOrderID string  `json:"razorpayOrderId"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
}

// PlaceOrderHandler обрабатывает запрос POST /api/order/place
func PlaceOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PlaceOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req PlaceOrderRequest
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

		res, err := orderService.PlaceOrder(r.Context(), service.PlaceOrderInput{
			UserID:  userID,
			Items:   req.Items,
			Amount:  req.Amount,
			Address: req.Address,
		})
		if err != nil {
			logger.Error("failed to place order", slog.Any("error", err))
			fail(w, logger, msgError)
			return
		}

		writeJSON(w, logger, http.StatusOK, PlaceOrderResponse{
			Success:         true,
			OrderID:         res.OrderID,
			RazorpayOrderID: res.GatewayOrderID,
			Amount:          res.Amount.InexactFloat64(),
			Currency:        res.Currency,
		})
	}
}

// UserOrdersHandler обрабатывает запрос POST /api/order/userorders
func UserOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UserOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orders, err := orderService.UserOrders(r.Context(), userID)
		if err != nil {
			logger.Error("failed to get user orders", slog.Any("error", err))
			fail(w, logger, msgError)
			return
		}

		writeJSON(w, logger, http.StatusOK, ordersResponse(orders))
	}
}
