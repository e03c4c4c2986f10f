package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_user_store.go -package=mocks swiftly/internal/storage UserStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// UserStore defines the interface for user storage operations.
type UserStore interface {
	// Create inserts a new user with the given name.
	// Returns ErrDuplicateUser if the name is already taken.
	Create(ctx context.Context, name string) (*User, error)
	// GetByName gets a user by name. Returns ErrUserNotFound if not found.
	GetByName(ctx context.Context, name string) (*User, error)
}

// UserRepo provides methods for user operations.
// It implements the UserStore interface.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user with the given name.
func (r *UserRepo) Create(ctx context.Context, name string) (*User, error) {
	user := &User{
		ID:      uuid.New().String(),
		Name:    name,
		Created: nowUTC(),
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, created) VALUES (?, ?, ?)`,
		user.ID, user.Name, formatTimestamp(user.Created),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// GetByName gets a user by name.
func (r *UserRepo) GetByName(ctx context.Context, name string) (*User, error) {
	var user User
	var createdStr string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created FROM users WHERE name = ?`,
		name,
	).Scan(&user.ID, &user.Name, &createdStr)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user.Created, err = parseTimestamp(createdStr)
	if err != nil {
		return nil, err
	}

	return &user, nil
}
