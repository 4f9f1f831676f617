package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/food-delivery/internal/lib/metrics"
	"github.com/linemk/food-delivery/internal/service"
)

// VerifyRequest — данные, которые клиент получает от Razorpay после оплаты
type VerifyRequest struct {
	OrderID           string `json:"orderId"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// VerifyHandler обрабатывает запрос POST /api/order/verify.
// В отличие от остальных эндпоинтов, ошибки отдаются с кодами 404/400/500
func VerifyHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.VerifyHandler"
		logger := log.With(slog.String("op", op))

		var req VerifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			metrics.PaymentVerifications.WithLabelValues("invalid").Inc()
			writeJSON(w, logger, http.StatusBadRequest, Response{Message: msgInvalidRequest})
			return
		}

		err := orderService.VerifyPayment(r.Context(), service.VerifyPaymentInput{
			OrderID:        req.OrderID,
			PaymentID:      req.RazorpayPaymentID,
			GatewayOrderID: req.RazorpayOrderID,
			Signature:      req.RazorpaySignature,
		})

		switch {
		case err == nil:
			metrics.PaymentVerifications.WithLabelValues("verified").Inc()
			writeJSON(w, logger, http.StatusOK, Response{Success: true, Message: msgVerified})
		case errors.Is(err, service.ErrOrderNotFound):
			metrics.PaymentVerifications.WithLabelValues("not_found").Inc()
			writeJSON(w, logger, http.StatusNotFound, Response{Message: msgOrderNotFound})
		case errors.Is(err, service.ErrInvalidPaymentDetails):
			metrics.PaymentVerifications.WithLabelValues("invalid").Inc()
			writeJSON(w, logger, http.StatusBadRequest, Response{Message: msgInvalidDetails})
		case errors.Is(err, service.ErrVerificationFailed):
			metrics.PaymentVerifications.WithLabelValues("mismatch").Inc()
			writeJSON(w, logger, http.StatusBadRequest, Response{Message: msgVerifyFailed})
		default:
			logger.Error("failed to verify payment", slog.Any("error", err))
			metrics.PaymentVerifications.WithLabelValues("error").Inc()
			writeJSON(w, logger, http.StatusInternalServerError, Response{Message: msgInternalError})
		}
	}
}
