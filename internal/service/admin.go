package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/linemk/food-delivery/internal/domain/models"
	"github.com/linemk/food-delivery/internal/storage"
)

// AdminService — операции админ-панели. Доступ есть только у пользователей с ролью "admin"
type AdminService interface {
	ListOrders(ctx context.Context, requesterID string) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, requesterID, orderID, status string) error
}

type adminService struct {
	log       *slog.Logger
	userRepo  storage.UserStorage
	orderRepo storage.OrderStorage
}

func NewAdminService(log *slog.Logger, userRepo storage.UserStorage, orderRepo storage.OrderStorage) AdminService {
	return &adminService{
		log:       log,
		userRepo:  userRepo,
		orderRepo: orderRepo,
	}
}

func (s *adminService) ListOrders(ctx context.Context, requesterID string) ([]*models.Order, error) {
	const op = "service.AdminService.ListOrders"
	logger := s.log.With(slog.String("op", op), slog.String("requesterID", requesterID))

	if err := s.requireAdmin(ctx, logger, requesterID); err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		logger.Error("failed to get orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}
	return orders, nil
}

// UpdateStatus перезаписывает статус заказа как есть: набор допустимых статусов не фиксирован
func (s *adminService) UpdateStatus(ctx context.Context, requesterID, orderID, status string) error {
	const op = "service.AdminService.UpdateStatus"
	logger := s.log.With(
		slog.String("op", op),
		slog.String("requesterID", requesterID),
		slog.String("orderID", orderID),
		slog.String("status", status),
	)

	if err := s.requireAdmin(ctx, logger, requesterID); err != nil {
		return err
	}

	if _, err := uuid.Parse(orderID); err != nil {
		logger.Warn("malformed order id")
		return ErrOrderNotFound
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Warn("order not found")
			return ErrOrderNotFound
		}
		logger.Error("failed to update status", slog.Any("error", err))
		return fmt.Errorf("%s: failed to update status: %w", op, err)
	}

	logger.Info("order status updated")
	return nil
}

// requireAdmin: неизвестный пользователь тоже получает ErrNotAdmin
func (s *adminService) requireAdmin(ctx context.Context, logger *slog.Logger, userID string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("requester not found")
			return ErrNotAdmin
		}
		logger.Error("failed to get requester", slog.Any("error", err))
		return fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsAdmin() {
		logger.Warn("requester is not an admin", slog.String("role", user.Role))
		return ErrNotAdmin
	}
	return nil
}
