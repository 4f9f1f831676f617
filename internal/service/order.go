package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/linemk/food-delivery/internal/domain/models"
	"github.com/linemk/food-delivery/internal/payment"
	"github.com/linemk/food-delivery/internal/storage"
)

// OrderService определяет операции пользователя с заказами.
type OrderService interface {
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlaceOrderResult, error)
	VerifyPayment(ctx context.Context, in VerifyPaymentInput) error
	UserOrders(ctx context.Context, userID string) ([]*models.Order, error)
}

type PlaceOrderInput struct {
	UserID  string
	Items   []models.Item
	Amount  float64
	Address models.Address
}

type PlaceOrderResult struct {
	OrderID        string
	GatewayOrderID string
	Amount         decimal.Decimal // в основных единицах валюты
	Currency       string
}

type VerifyPaymentInput struct {
	OrderID        string
	PaymentID      string
	GatewayOrderID string
	Signature      string
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	orderRepo   storage.OrderStorage
	userRepo    storage.UserStorage
	gateway     PaymentGateway
	currency    string
	deliveryFee decimal.Decimal
}

func NewOrderService(
	log *slog.Logger,
	db *sql.DB,
	orderRepo storage.OrderStorage,
	userRepo storage.UserStorage,
	gateway PaymentGateway,
	currency string,
	deliveryFee decimal.Decimal,
) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		currency:    currency,
		deliveryFee: deliveryFee,
	}
}

// PlaceOrder сохраняет заказ и очищает корзину в одной транзакции, затем создаёт заказ в платёжном шлюзе.
// Если шлюз недоступен, локальный заказ остаётся неоплаченным; компенсации нет
func (s *orderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlaceOrderResult, error) {
	const op = "service.OrderService.PlaceOrder"
	logger := s.log.With(slog.String("op", op), slog.String("userID", in.UserID))
	logger.Info("placing order", slog.Int("items", len(in.Items)))

	// сумму проверяем до записи заказа, чтобы не оставить заказ, который шлюз не примет
	charge := Charge(in.Items, s.deliveryFee)
	subunits, err := ToSubunits(charge)
	if err != nil {
		logger.Warn("charge out of range", slog.String("charge", charge.String()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	orderID, err := s.orderRepo.CreateOrder(ctx, tx, &models.Order{
		UserID:  in.UserID,
		Items:   in.Items,
		Amount:  in.Amount,
		Address: in.Address,
	})
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	if err := s.userRepo.ClearCartTx(ctx, tx, in.UserID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to clear cart: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger = logger.With(slog.String("orderID", orderID), slog.String("charge", charge.String()))

	gwOrder, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:   subunits,
		Currency: s.currency,
		Receipt:  orderID,
	})
	if err != nil {
		logger.Warn("order saved but gateway order was not created", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create gateway order: %w", op, err)
	}

	logger.Info("order placed", slog.String("gatewayOrderID", gwOrder.ID))
	return &PlaceOrderResult{
		OrderID:        orderID,
		GatewayOrderID: gwOrder.ID,
		Amount:         charge,
		Currency:       s.currency,
	}, nil
}

// VerifyPayment проверяет подпись колбэка шлюза и отмечает заказ оплаченным.
// Порядок проверок: заказ существует, все поля шлюза заполнены, подпись совпадает
func (s *orderService) VerifyPayment(ctx context.Context, in VerifyPaymentInput) error {
	const op = "service.OrderService.VerifyPayment"
	logger := s.log.With(
		slog.String("op", op),
		slog.String("orderID", in.OrderID),
		slog.String("gatewayOrderID", in.GatewayOrderID),
		slog.String("paymentID", in.PaymentID),
	)
	logger.Info("verifying payment")

	if _, err := uuid.Parse(in.OrderID); err != nil {
		logger.Warn("malformed order id")
		return ErrOrderNotFound
	}

	if _, err := s.orderRepo.GetOrderByID(ctx, in.OrderID); err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Warn("order not found")
			return ErrOrderNotFound
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	if in.PaymentID == "" || in.GatewayOrderID == "" || in.Signature == "" {
		logger.Warn("missing gateway payment details")
		return ErrInvalidPaymentDetails
	}

	if !s.gateway.VerifySignature(in.GatewayOrderID, in.PaymentID, in.Signature) {
		logger.Warn("signature mismatch")
		return ErrVerificationFailed
	}

	if err := s.orderRepo.SetPaymentVerified(ctx, in.OrderID); err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		logger.Error("failed to mark order as paid", slog.Any("error", err))
		return fmt.Errorf("%s: failed to mark order as paid: %w", op, err)
	}

	logger.Info("payment verified")
	return nil
}

func (s *orderService) UserOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	const op = "service.OrderService.UserOrders"
	s.log.Info("getting user orders", slog.String("op", op), slog.String("userID", userID))

	// заказов у такого пользователя быть не может
	if _, err := uuid.Parse(userID); err != nil {
		s.log.Warn("malformed user id", slog.String("op", op), slog.String("userID", userID))
		return []*models.Order{}, nil
	}

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}
	return orders, nil
}
