package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/letrasvivas/bookapi/internal/models"
	"github.com/letrasvivas/bookapi/pkg/apperr"
)

// UserStore provides user persistence. It doubles as the user-existence
// collaborator the subscription lifecycle engine depends on.
type UserStore interface {
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, from, size int) ([]*models.User, int64, error)
	FindByActive(ctx context.Context, active bool) ([]*models.User, error)
	SearchByName(ctx context.Context, term string) ([]*models.User, error)
}

type userStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) UserStore {
	return &userStore{db: db}
}

func (s *userStore) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("user not found with id: %s", id)
		}
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return &user, nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("user not found with email: %s", email)
		}
		return nil, fmt.Errorf("failed to load user by email: %w", err)
	}
	return &user, nil
}

func (s *userStore) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (s *userStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (s *userStore) Save(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflictf("user already exists with email: %s", user.Email)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFoundf("user not found with id: %s", id)
	}
	return nil
}

func (s *userStore) List(ctx context.Context, from, size int) ([]*models.User, int64, error) {
	if size <= 0 {
		size = 10
	}
	if from < 0 {
		from = 0
	}
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	var users []*models.User
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Offset(from).
		Limit(size).
		Find(&users).Error
	return users, total, err
}

func (s *userStore) FindByActive(ctx context.Context, active bool) ([]*models.User, error) {
	var users []*models.User
	err := s.db.WithContext(ctx).Where("is_active = ?", active).Find(&users).Error
	return users, err
}

func (s *userStore) SearchByName(ctx context.Context, term string) ([]*models.User, error) {
	var users []*models.User
	pattern := "%" + strings.ToLower(term) + "%"
	err := s.db.WithContext(ctx).
		Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", pattern, pattern).
		Find(&users).Error
	return users, err
}
