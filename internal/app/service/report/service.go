package report

import (
	"context"
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/letrasvivas/bookapi/internal/models"
	"github.com/letrasvivas/bookapi/internal/store"
	"github.com/letrasvivas/bookapi/pkg/types"
)

// Service derives revenue, expiry and popularity figures from the
// subscription store. It never writes.
type Service struct {
	subs store.SubscriptionStore
	log  *zap.SugaredLogger
}

func New(subs store.SubscriptionStore, log *zap.SugaredLogger) *Service {
	return &Service{subs: subs, log: log}
}

// Revenue sums the price of subscriptions whose start date falls inside
// [start, end]. An empty range yields zero, not an error.
func (s *Service) Revenue(ctx context.Context, start, end types.Date) (decimal.Decimal, error) {
	return s.subs.SumPriceInRange(ctx, start, end)
}

// ExpiringSoon lists ACTIVE subscriptions whose end date falls within
// [asOf, asOf + daysAhead].
func (s *Service) ExpiringSoon(ctx context.Context, daysAhead int, asOf types.Date) ([]*models.Subscription, error) {
	return s.subs.FindExpiringWithin(ctx, asOf, asOf.AddDays(daysAhead))
}

// MostPopularPlans ranks plan names by subscription count, descending; ties
// break alphabetically so the order is deterministic.
func (s *Service) MostPopularPlans(ctx context.Context) ([]store.PlanPopularity, error) {
	return s.subs.MostPopularPlans(ctx)
}

func (s *Service) CountByStatus(ctx context.Context, status types.SubscriptionStatus) (int64, error) {
	return s.subs.CountByStatus(ctx, status)
}

type Statistics struct {
	StatusCounts        map[types.SubscriptionStatus]int64 `json:"status_counts"`
	CurrentMonthRevenue decimal.Decimal                    `json:"current_month_revenue"`
}

var statisticStatuses = []types.SubscriptionStatus{
	types.SubscriptionStatusActive,
	types.SubscriptionStatusInactive,
	types.SubscriptionStatusSuspended,
	types.SubscriptionStatusExpired,
	types.SubscriptionStatusCancelled,
}

// Statistics gathers per-status counts plus month-to-date revenue. The
// counts are fetched concurrently; the first store error wins.
func (s *Service) Statistics(ctx context.Context, asOf types.Date) (*Statistics, error) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(statisticStatuses))
	resChan := make(chan *lo.Entry[types.SubscriptionStatus, int64], len(statisticStatuses))

	for _, status := range statisticStatuses {
		wg.Add(1)
		go func(status types.SubscriptionStatus) {
			defer wg.Done()
			count, err := s.subs.CountByStatus(ctx, status)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[types.SubscriptionStatus, int64]{Key: status, Value: count}
		}(status)
	}

	wg.Wait()
	close(errChan)
	close(resChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	counts := make(map[types.SubscriptionStatus]int64, len(statisticStatuses))
	for entry := range resChan {
		counts[entry.Key] = entry.Value
	}

	revenue, err := s.subs.SumPriceInRange(ctx, asOf.StartOfMonth(), asOf)
	if err != nil {
		return nil, err
	}

	return &Statistics{StatusCounts: counts, CurrentMonthRevenue: revenue}, nil
}
