package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/letrasvivas/bookapi/internal/models"
	"github.com/letrasvivas/bookapi/pkg/apperr"
	"github.com/letrasvivas/bookapi/pkg/types"
)

// SubscriptionStore is the persistence boundary consumed by the lifecycle
// engine and the reporting service. List reads return empty slices when
// nothing matches; only Get and Delete distinguish not-found.
type SubscriptionStore interface {
	Get(ctx context.Context, id string) (*models.Subscription, error)
	Save(ctx context.Context, sub *models.Subscription) error
	SaveAll(ctx context.Context, subs []*models.Subscription) error
	Delete(ctx context.Context, id string) error

	FindByUser(ctx context.Context, userID string) ([]*models.Subscription, error)
	FindByUserAndPlanWithStatus(ctx context.Context, userID, planName string, status types.SubscriptionStatus) ([]*models.Subscription, error)
	FindByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*models.Subscription, error)
	FindActiveByUser(ctx context.Context, userID string, asOf types.Date) ([]*models.Subscription, error)
	FindExpiredButStillActive(ctx context.Context, asOf types.Date) ([]*models.Subscription, error)
	FindExpiringWithin(ctx context.Context, asOf, horizon types.Date) ([]*models.Subscription, error)
	FindByPlanNameLike(ctx context.Context, term string) ([]*models.Subscription, error)
	FindByPriceBetween(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*models.Subscription, error)

	SumPriceInRange(ctx context.Context, start, end types.Date) (decimal.Decimal, error)
	CountByStatus(ctx context.Context, status types.SubscriptionStatus) (int64, error)
	MostPopularPlans(ctx context.Context) ([]PlanPopularity, error)

	Search(ctx context.Context, req *SearchSubscriptionsRequest) (*SearchSubscriptionsResponse, error)
}

type PlanPopularity struct {
	PlanName          string `json:"plan_name"`
	SubscriptionCount int64  `json:"subscription_count"`
}

type SearchSubscriptionsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type SearchSubscriptionsResponse struct {
	Items []*models.Subscription `json:"items"`
	Total int64                  `json:"total"`
}

type subscriptionStore struct {
	db *gorm.DB
}

func NewSubscriptionStore(db *gorm.DB) SubscriptionStore {
	return &subscriptionStore{db: db}
}

func (s *subscriptionStore) Get(ctx context.Context, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("subscription not found with id: %s", id)
		}
		return nil, fmt.Errorf("failed to load subscription %s: %w", id, err)
	}
	return &sub, nil
}

func (s *subscriptionStore) Save(ctx context.Context, sub *models.Subscription) error {
	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflictf("duplicate active subscription for user %s and plan %q", sub.UserID, sub.PlanName)
		}
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

func (s *subscriptionStore) SaveAll(ctx context.Context, subs []*models.Subscription) error {
	if len(subs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sub := range subs {
			if err := tx.Save(sub).Error; err != nil {
				return fmt.Errorf("failed to save subscription %s: %w", sub.ID, err)
			}
		}
		return nil
	})
}

func (s *subscriptionStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Subscription{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFoundf("subscription not found with id: %s", id)
	}
	return nil
}

func (s *subscriptionStore) FindByUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&subs).Error
	return subs, err
}

func (s *subscriptionStore) FindByUserAndPlanWithStatus(ctx context.Context, userID, planName string, status types.SubscriptionStatus) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND plan_name = ? AND status = ?", userID, planName, status).
		Find(&subs).Error
	return subs, err
}

func (s *subscriptionStore) FindByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at desc").
		Find(&subs).Error
	return subs, err
}

func (s *subscriptionStore) FindActiveByUser(ctx context.Context, userID string, asOf types.Date) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND end_date >= ?", userID, types.SubscriptionStatusActive, asOf).
		Find(&subs).Error
	return subs, err
}

func (s *subscriptionStore) FindExpiredButStillActive(ctx context.Context, asOf types.Date) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", types.SubscriptionStatusActive, asOf).
		Find(&subs).Error
	return subs, err
}

func (s *subscriptionStore) FindExpiringWithin(ctx context.Context, asOf, horizon types.Date) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("status = ? AND end_date >= ? AND end_date <= ?", types.SubscriptionStatusActive, asOf, horizon).
		Order("end_date asc").
		Find(&subs).Error
	return subs, err
}

func (s *subscriptionStore) FindByPlanNameLike(ctx context.Context, term string) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("LOWER(plan_name) LIKE ?", "%"+strings.ToLower(term)+"%").
		Find(&subs).Error
	return subs, err
}

func (s *subscriptionStore) FindByPriceBetween(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("price >= ? AND price <= ?", minPrice, maxPrice).
		Order("price asc").
		Find(&subs).Error
	return subs, err
}

func (s *subscriptionStore) SumPriceInRange(ctx context.Context, start, end types.Date) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Select("COALESCE(SUM(price), 0)").
		Where("start_date >= ? AND start_date <= ?", start, end).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum subscription prices: %w", err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	// SQLite sums NUMERIC affinity columns as floats; round back to cents.
	return sum.Decimal.Round(2), nil
}

func (s *subscriptionStore) CountByStatus(ctx context.Context, status types.SubscriptionStatus) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (s *subscriptionStore) MostPopularPlans(ctx context.Context) ([]PlanPopularity, error) {
	var rows []PlanPopularity
	err := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Select("plan_name, COUNT(*) AS subscription_count").
		Group("plan_name").
		Order("subscription_count DESC, plan_name ASC").
		Scan(&rows).Error
	return rows, err
}

// Search implements the paginated admin listing with filters.
func (s *subscriptionStore) Search(ctx context.Context, req *SearchSubscriptionsRequest) (*SearchSubscriptionsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.Subscription{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd{Filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}

	var rows []*models.Subscription
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return &SearchSubscriptionsResponse{Items: rows, Total: total}, nil
}
