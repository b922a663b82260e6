package users

import "context"

// Repository persists user accounts.
type Repository interface {
	// Create inserts a new user; a duplicate login yields
	// common.ErrLoginAlreadyExists.
	Create(ctx context.Context, user *User) error

	// FindByLogin returns the user or common.ErrNotFound.
	FindByLogin(ctx context.Context, login string) (*User, error)
}
