package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	razorpay "github.com/razorpay/razorpay-go"
)

// OrderRequest — параметры заказа на стороне платёжного шлюза
type OrderRequest struct {
	Amount   int64 // в минимальных единицах валюты (пайсы)
	Currency string
	Receipt  string // id локального заказа
}

// Order — заказ, созданный на стороне шлюза
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Status   string
}

var ErrBadGatewayResponse = errors.New("unexpected gateway response")

// orderCreator — часть SDK, которой мы пользуемся
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay — клиент платёжного шлюза
type Razorpay struct {
	log    *slog.Logger
	orders orderCreator
	secret string
}

// NewRazorpay создаёт клиента; keySecret используется и для API, и для проверки подписи
func NewRazorpay(log *slog.Logger, keyID, keySecret string) *Razorpay {
	client := razorpay.NewClient(keyID, keySecret)
	return newRazorpay(log, client.Order, keySecret)
}

func newRazorpay(log *slog.Logger, orders orderCreator, secret string) *Razorpay {
	return &Razorpay{
		log:    log,
		orders: orders,
		secret: secret,
	}
}

// CreateOrder создаёт заказ в шлюзе. SDK не принимает контекст,
// поэтому отменённый запрос просто не доходит до шлюза
func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	const op = "payment.Razorpay.CreateOrder"
	logger := r.log.With(slog.String("op", op), slog.String("receipt", req.Receipt))

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	body, err := r.orders.Create(map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}, nil)
	if err != nil {
		logger.Error("gateway order creation failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		logger.Error("gateway response has no order id", slog.Any("body", body))
		return nil, fmt.Errorf("%s: %w", op, ErrBadGatewayResponse)
	}

	order := &Order{ID: id, Currency: req.Currency, Amount: req.Amount}
	// числа из JSON приходят как float64
	if amount, ok := body["amount"].(float64); ok {
		order.Amount = int64(amount)
	}
	if currency, ok := body["currency"].(string); ok {
		order.Currency = currency
	}
	order.Status, _ = body["status"].(string)

	logger.Debug("gateway order created", slog.String("gatewayOrderID", id), slog.Int64("amount", order.Amount))
	return order, nil
}

// VerifySignature проверяет подпись колбэка об оплате
func (r *Razorpay) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return VerifySignature(r.secret, gatewayOrderID, paymentID, signature)
}
