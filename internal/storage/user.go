package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/linemk/food-delivery/internal/domain/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserStorage interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ClearCartTx(ctx context.Context, tx *sql.Tx, id string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	row := r.db.QueryRowContext(ctx, "SELECT id, name, email, role, cart_data FROM users WHERE id = $1", id)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CartData); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ClearCartTx очищает корзину пользователя.
// Отсутствующий пользователь не считается ошибкой: заказ всё равно оформляется
func (r *userRepository) ClearCartTx(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, "UPDATE users SET cart_data = '{}'::jsonb WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// isInvalidID — postgres не смог привести строку к uuid
func isInvalidID(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "22P02" // invalid_text_representation
	}
	return false
}
