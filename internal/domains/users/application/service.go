package application

import (
	"context"
	"errors"
	"strings"

	"github.com/Apurer/orderflow/internal/domains/users/domain"
	"github.com/Apurer/orderflow/internal/domains/users/ports"
)

// Service exposes user directory use cases.
type Service struct {
	repo ports.Repository
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Register(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	if err := user.Validate(); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) List(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	if role != "" && !role.Valid() {
		return nil, mapError(domain.ErrInvalidRole)
	}
	return s.repo.List(ctx, role)
}

func (s *Service) DisplayName(ctx context.Context, id string) (string, error) {
	user, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return "", err
	}
	return user.Name, nil
}

var _ ports.Service = (*Service)(nil)
