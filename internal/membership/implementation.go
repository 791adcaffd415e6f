// internal/membership/implementation.go
package membership

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/NureKhodanytskaYelyzaveta/ark-pzpi-23-3-khodanytska-yelyzaveta/internal/store"
)

// service implements the Service interface.
type service struct {
	db        *sql.DB
	jwtSecret []byte
	loginRate *rate.Limiter
}

// NewService creates a new membership service instance.
func NewService(db *sql.DB, jwtSecret []byte) Service {
	return &service{
		db:        db,
		jwtSecret: jwtSecret,
		loginRate: rate.NewLimiter(rate.Every(time.Minute), 5), // 5 attempts per minute
	}
}

const userColumns = `user_id, name, email, COALESCE(phone, ''), role, created_at, password_hash, password_salt`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.CreatedAt,
		&user.PasswordHash,
		&user.Salt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser registers a new account. Email uniqueness is enforced by the
// database; a losing concurrent insert surfaces as ErrEmailTaken.
func (s *service) CreateUser(ctx context.Context, nu NewUser) (*User, error) {
	if nu.Name == "" || nu.Email == "" || nu.Password == "" {
		return nil, fmt.Errorf("name, email and password are required")
	}
	if nu.Role == "" {
		nu.Role = RoleReader
	}
	if !nu.Role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, salt, err := hashPassword(nu.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (name, email, password_hash, password_salt, phone, role)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		RETURNING ` + userColumns
	user, err := scanUser(s.db.QueryRowContext(ctx, query, nu.Name, nu.Email, hash, salt, nu.Phone, nu.Role))
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *service) GetUser(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns all users, optionally filtered by role.
func (s *service) ListUsers(ctx context.Context, role *Role) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if role != nil {
		if !role.Valid() {
			return nil, ErrInvalidRole
		}
		query += ` WHERE role = $1`
		args = append(args, *role)
	}
	query += ` ORDER BY user_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// UpdateUser applies a partial update, rehashing the password if one is
// provided.
func (s *service) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*User, error) {
	if upd.Role != nil && !upd.Role.Valid() {
		return nil, ErrInvalidRole
	}

	var user *User
	err := store.WithinTx(ctx, s.db, "membership.update_user", func(tx *sql.Tx) error {
		query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1 FOR UPDATE`
		current, err := scanUser(tx.QueryRowContext(ctx, query, id))
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		if upd.Name != nil {
			current.Name = *upd.Name
		}
		if upd.Email != nil {
			current.Email = *upd.Email
		}
		if upd.Phone != nil {
			current.Phone = *upd.Phone
		}
		if upd.Role != nil {
			current.Role = *upd.Role
		}
		if upd.Password != nil {
			hash, salt, err := hashPassword(*upd.Password)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			current.PasswordHash = hash
			current.Salt = salt
		}

		updateQuery := `
			UPDATE users
			SET name = $1, email = $2, password_hash = $3, password_salt = $4,
			    phone = NULLIF($5, ''), role = $6
			WHERE user_id = $7
		`
		_, err = tx.ExecContext(ctx, updateQuery,
			current.Name, current.Email, current.PasswordHash, current.Salt,
			current.Phone, current.Role, id)
		if err != nil {
			if store.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("update user: %w", err)
		}

		user = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ChangeRole sets a user's role.
func (s *service) ChangeRole(ctx context.Context, id int64, role Role) (*User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	return s.UpdateUser(ctx, id, UserUpdate{Role: &role})
}

// DeleteUser removes an account. Loans and reservations referencing it are
// removed by the schema's cascade rules; that is storage-level cleanup, not
// a business decision.
func (s *service) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Authenticate verifies credentials and issues a signed token.
func (s *service) Authenticate(ctx context.Context, email, password string) (*User, string, error) {
	if !s.loginRate.Allow() {
		return nil, "", ErrRateLimited
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get user by email: %w", err)
	}

	ok, err := verifyPassword(password, user.Salt, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, "", ErrInvalidCredentials
	}

	token, err := SignToken(s.jwtSecret, user)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return user, token, nil
}
