package service

import (
	"context"
	"errors"

	"github.com/linemk/food-delivery/internal/payment"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidPaymentDetails = errors.New("invalid payment details")
	ErrVerificationFailed    = errors.New("payment verification failed")
	ErrNotAdmin              = errors.New("user is not an admin")
)

// PaymentGateway — платёжный шлюз: создание заказа и проверка подписи колбэка
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req payment.OrderRequest) (*payment.Order, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}
