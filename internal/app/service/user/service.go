package user

import (
	"context"

	"go.uber.org/zap"

	"github.com/letrasvivas/bookapi/internal/models"
	"github.com/letrasvivas/bookapi/internal/store"
	"github.com/letrasvivas/bookapi/pkg/apperr"
	"github.com/letrasvivas/bookapi/pkg/tool"
)

type Service struct {
	users store.UserStore
	log   *zap.SugaredLogger
}

func NewService(users store.UserStore, log *zap.SugaredLogger) *Service {
	return &Service{users: users, log: log}
}

type CreateParams struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Age         int
}

// UpdateParams is a partial update: nil fields are left unchanged.
type UpdateParams struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
	Age         *int
	IsActive    *bool
}

func (s *Service) Create(ctx context.Context, p *CreateParams) (*models.User, error) {
	exists, err := s.users.ExistsByEmail(ctx, p.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflictf("user already exists with email: %s", p.Email)
	}

	user := &models.User{
		ID:          tool.GenerateUUIDV7(),
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		Age:         p.Age,
		IsActive:    true,
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	return s.users.Get(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *Service) List(ctx context.Context, from, size int) ([]*models.User, int64, error) {
	return s.users.List(ctx, from, size)
}

func (s *Service) Update(ctx context.Context, id string, p *UpdateParams) (*models.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Email != nil && *p.Email != user.Email {
		taken, err := s.users.ExistsByEmail(ctx, *p.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Conflictf("user already exists with email: %s", *p.Email)
		}
		user.Email = *p.Email
	}
	if p.FirstName != nil {
		user.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		user.LastName = *p.LastName
	}
	if p.PhoneNumber != nil {
		user.PhoneNumber = *p.PhoneNumber
	}
	if p.Age != nil {
		user.Age = *p.Age
	}
	if p.IsActive != nil {
		user.IsActive = *p.IsActive
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}

func (s *Service) SearchByName(ctx context.Context, term string) ([]*models.User, error) {
	return s.users.SearchByName(ctx, term)
}

func (s *Service) ListByActive(ctx context.Context, active bool) ([]*models.User, error) {
	return s.users.FindByActive(ctx, active)
}
