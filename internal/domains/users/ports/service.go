package ports

import (
	"context"

	"github.com/Apurer/orderflow/internal/domains/users/domain"
)

// Service exposes user directory use cases to adapters.
type Service interface {
	Register(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, role domain.Role) ([]*domain.User, error)
	// DisplayName resolves the name shown in routing notes.
	DisplayName(ctx context.Context, id string) (string, error)
}
