// internal/membership/service.go
package membership

import "context"

// NewUser carries the fields accepted when an administrator creates an
// account.
type NewUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     Role   `json:"role"`
}

// UserUpdate is a partial update; nil fields are left untouched. A new
// password is rehashed before storage.
type UserUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Phone    *string `json:"phone"`
	Role     *Role   `json:"role"`
}

// Service defines the interface for the membership service.
type Service interface {
	CreateUser(ctx context.Context, nu NewUser) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context, role *Role) ([]*User, error)
	UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*User, error)
	ChangeRole(ctx context.Context, id int64, role Role) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
	Authenticate(ctx context.Context, email, password string) (*User, string, error)
}
