package models

// RoleAdmin — единственная роль с доступом к админским эндпоинтам
const RoleAdmin = "admin"

// User представляет пользователя
type User struct {
	ID       string
	Name     string
	Email    string
	Role     string
	CartData []byte // корзина хранится как есть (jsonb)
}

// IsAdmin сравнивает роль строго, с учётом регистра
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
