package repository

import (
	"context"

	"github.com/martijn/userboard/internal/core/domain"
)

type UserRepository interface {
	// Create inserts user and sets user.ID to the assigned id.
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	// List returns all users ordered by creation time.
	List(ctx context.Context) ([]*domain.User, error)
}
