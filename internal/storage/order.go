package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/linemk/food-delivery/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrder вставляет новый заказ в рамках транзакции и возвращает сгенерированный БД id.
	CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (string, error)
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID string) ([]*models.Order, error)
	GetAllOrders(ctx context.Context) ([]*models.Order, error)
	// SetPaymentVerified выставляет флаг оплаты; повторный вызов ничего не меняет.
	SetPaymentVerified(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status string) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const orderColumns = "id, user_id, items, amount, address, status, payment, date"

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*models.Order, error) {
	order := &models.Order{}
	var items, address []byte
	if err := row.Scan(&order.ID, &order.UserID, &items, &order.Amount, &address, &order.Status, &order.Payment, &order.Date); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	if err := json.Unmarshal(address, &order.Address); err != nil {
		return nil, fmt.Errorf("failed to decode address: %w", err)
	}
	return order, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (string, error) {
	items := order.Items
	if items == nil {
		items = []models.Item{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode items: %w", err)
	}
	addressJSON, err := json.Marshal(order.Address)
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}

	var id string
	query := `INSERT INTO orders (user_id, items, amount, address) 
	          VALUES ($1, $2, $3, $4) RETURNING id`
	err = tx.QueryRowContext(ctx, query, order.UserID, itemsJSON, order.Amount, addressJSON).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}
	return id, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// GetOrdersByUserID возвращает заказы пользователя в порядке хранения, без пагинации.
func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID string) ([]*models.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = $1", userID)
}

func (r *orderRepository) GetAllOrders(ctx context.Context) ([]*models.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders")
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		// по id, который не является uuid, заказов нет
		if isInvalidID(err) {
			return []*models.Order{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) SetPaymentVerified(ctx context.Context, id string) error {
	return r.update(ctx, "UPDATE orders SET payment = TRUE WHERE id = $1", id)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	return r.update(ctx, "UPDATE orders SET status = $1 WHERE id = $2", status, id)
}

func (r *orderRepository) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isInvalidID(err) {
			return ErrOrderNotFound
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
