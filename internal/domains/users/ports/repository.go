package ports

import (
	"context"
	"errors"

	"github.com/Apurer/orderflow/internal/domains/users/domain"
)

var ErrNotFound = errors.New("user not found")

// Repository persists directory entries.
type Repository interface {
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// List returns every user, or only those holding role when it is set.
	List(ctx context.Context, role domain.Role) ([]*domain.User, error)
}
