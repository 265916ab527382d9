package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Apurer/orderflow/internal/domains/users/domain"
	"github.com/Apurer/orderflow/internal/domains/users/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory user directory.
type Repository struct {
	users sync.Map
}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	clone := *user
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.users.Store(clone.ID, clone)
	return &clone, nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.User, error) {
	value, ok := r.users.Load(id)
	if !ok {
		return nil, ports.ErrNotFound
	}
	user := value.(domain.User)
	return &user, nil
}

func (r *Repository) List(_ context.Context, role domain.Role) ([]*domain.User, error) {
	var users []*domain.User
	r.users.Range(func(_, value any) bool {
		user := value.(domain.User)
		if role == "" || user.Role == role {
			users = append(users, &user)
		}
		return true
	})
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}
