package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/letrasvivas/bookapi/internal/models"
	"github.com/letrasvivas/bookapi/pkg/apperr"
	"github.com/letrasvivas/bookapi/pkg/tool"
	"github.com/letrasvivas/bookapi/pkg/types"
)

func newSubscription(userID, plan string, price string, start types.Date, months int, status types.SubscriptionStatus) *models.Subscription {
	return &models.Subscription{
		ID:             tool.GenerateUUIDV7(),
		UserID:         userID,
		PlanName:       plan,
		Price:          decimal.RequireFromString(price),
		StartDate:      start,
		EndDate:        models.ComputeEndDate(start, months),
		DurationMonths: months,
		Status:         status,
	}
}

func TestSubscriptionStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewSubscriptionStore(newTestDB(t))

	start := types.NewDate(2026, time.January, 15)
	sub := newSubscription(tool.GenerateUUIDV7(), "Premium", "29.99", start, 12, types.SubscriptionStatusActive)
	require.NoError(t, s.Save(ctx, sub))

	got, err := s.Get(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, sub.PlanName, got.PlanName)
	require.True(t, got.Price.Equal(decimal.RequireFromString("29.99")))
	require.True(t, got.StartDate.Equal(start))
	require.True(t, got.EndDate.Equal(types.NewDate(2027, time.January, 15)))

	_, err = s.Get(ctx, tool.GenerateUUIDV7())
	require.True(t, apperr.IsNotFound(err))
}

func TestSubscriptionStoreDuplicateActivePlan(t *testing.T) {
	ctx := context.Background()
	s := NewSubscriptionStore(newTestDB(t))

	userID := tool.GenerateUUIDV7()
	start := types.NewDate(2026, time.March, 1)
	require.NoError(t, s.Save(ctx, newSubscription(userID, "Premium", "29.99", start, 12, types.SubscriptionStatusActive)))

	// second ACTIVE row for the same user and plan violates the partial index
	err := s.Save(ctx, newSubscription(userID, "Premium", "29.99", start, 12, types.SubscriptionStatusActive))
	require.True(t, apperr.IsConflict(err))

	// a CANCELLED row for the same plan is fine
	require.NoError(t, s.Save(ctx, newSubscription(userID, "Premium", "29.99", start, 12, types.SubscriptionStatusCancelled)))
	// and so is the same plan for a different user
	require.NoError(t, s.Save(ctx, newSubscription(tool.GenerateUUIDV7(), "Premium", "29.99", start, 12, types.SubscriptionStatusActive)))
}

func TestSubscriptionStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewSubscriptionStore(newTestDB(t))

	sub := newSubscription(tool.GenerateUUIDV7(), "Basic", "9.99", types.NewDate(2026, time.May, 1), 1, types.SubscriptionStatusActive)
	require.NoError(t, s.Save(ctx, sub))
	require.NoError(t, s.Delete(ctx, sub.ID))
	require.True(t, apperr.IsNotFound(s.Delete(ctx, sub.ID)))
}

func TestSubscriptionStoreFindActiveByUser(t *testing.T) {
	ctx := context.Background()
	s := NewSubscriptionStore(newTestDB(t))

	userID := tool.GenerateUUIDV7()
	asOf := types.NewDate(2026, time.August, 31)

	running := newSubscription(userID, "Premium", "29.99", asOf.AddMonths(-1), 12, types.SubscriptionStatusActive)
	endsToday := newSubscription(userID, "Basic", "9.99", asOf.AddMonths(-1), 1, types.SubscriptionStatusActive)
	ended := newSubscription(userID, "Trial", "0.99", asOf.AddMonths(-3), 1, types.SubscriptionStatusActive)
	cancelled := newSubscription(userID, "Gold", "49.99", asOf.AddMonths(-1), 12, types.SubscriptionStatusCancelled)
	for _, sub := range []*models.Subscription{running, endsToday, ended, cancelled} {
		require.NoError(t, s.Save(ctx, sub))
	}

	got, err := s.FindActiveByUser(ctx, userID, asOf)
	require.NoError(t, err)
	ids := []string{got[0].ID, got[1].ID}
	require.Len(t, got, 2)
	require.Contains(t, ids, running.ID)
	require.Contains(t, ids, endsToday.ID)
}

func TestSubscriptionStoreFindExpiredButStillActive(t *testing.T) {
	ctx := context.Background()
	s := NewSubscriptionStore(newTestDB(t))

	asOf := types.NewDate(2026, time.August, 31)
	stale := newSubscription(tool.GenerateUUIDV7(), "Premium", "29.99", asOf.AddMonths(-2), 1, types.SubscriptionStatusActive)
	endsToday := newSubscription(tool.GenerateUUIDV7(), "Basic", "9.99", asOf.AddMonths(-1), 1, types.SubscriptionStatusActive)
	alreadyExpired := newSubscription(tool.GenerateUUIDV7(), "Trial", "0.99", asOf.AddMonths(-2), 1, types.SubscriptionStatusExpired)
	for _, sub := range []*models.Subscription{stale, endsToday, alreadyExpired} {
		require.NoError(t, s.Save(ctx, sub))
	}

	got, err := s.FindExpiredButStillActive(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, stale.ID, got[0].ID)
}

func TestSubscriptionStoreFindExpiringWithin(t *testing.T) {
	ctx := context.Background()
	s := NewSubscriptionStore(newTestDB(t))

	asOf := types.NewDate(2026, time.August, 1)
	soon := newSubscription(tool.GenerateUUIDV7(), "Basic", "9.99", asOf.AddMonths(-1).AddDays(10), 1, types.SubscriptionStatusActive)
	sooner := newSubscription(tool.GenerateUUIDV7(), "Premium", "29.99", asOf.AddMonths(-1).AddDays(5), 1, types.SubscriptionStatusActive)
	far := newSubscription(tool.GenerateUUIDV7(), "Gold", "49.99", asOf, 12, types.SubscriptionStatusActive)
	for _, sub := range []*models.Subscription{soon, sooner, far} {
		require.NoError(t, s.Save(ctx, sub))
	}

	got, err := s.FindExpiringWithin(ctx, asOf, asOf.AddDays(30))
	require.NoError(t, err)
	require.Len(t, got, 2)
	// ordered by end date ascending
	require.Equal(t, sooner.ID, got[0].ID)
	require.Equal(t, soon.ID, got[1].ID)
}

func TestSubscriptionStoreFindByPlanNameLike(t *testing.T) {
	ctx := context.Background()
	s := NewSubscriptionStore(newTestDB(t))

	start := types.NewDate(2026, time.June, 1)
	premium := newSubscription(tool.GenerateUUIDV7(), "Premium Plus", "39.99", start, 12, types.SubscriptionStatusActive)
	basic := newSubscription(tool.GenerateUUIDV7(), "Basic", "9.99", start, 12, types.SubscriptionStatusActive)
	require.NoError(t, s.Save(ctx, premium))
	require.NoError(t, s.Save(ctx, basic))

	got, err := s.FindByPlanNameLike(ctx, "PREM")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, premium.ID, got[0].ID)
}

func TestSubscriptionStoreFindByPriceBetween(t *testing.T) {
	ctx := context.Background()
	s := NewSubscriptionStore(newTestDB(t))

	start := types.NewDate(2026, time.June, 1)
	for _, p := range []string{"9.99", "19.99", "49.99"} {
		require.NoError(t, s.Save(ctx, newSubscription(tool.GenerateUUIDV7(), "Plan "+p, p, start, 12, types.SubscriptionStatusActive)))
	}

	got, err := s.FindByPriceBetween(ctx, decimal.RequireFromString("10.00"), decimal.RequireFromString("49.99"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.True(t, got[0].Price.Equal(decimal.RequireFromString("19.99")))
	require.True(t, got[1].Price.Equal(decimal.RequireFromString("49.99")))
}

func TestSubscriptionStoreSumPriceInRange(t *testing.T) {
	ctx := context.Background()
	s := NewSubscriptionStore(newTestDB(t))

	require.NoError(t, s.Save(ctx, newSubscription(tool.GenerateUUIDV7(), "Premium", "29.99", types.NewDate(2026, time.June, 10), 12, types.SubscriptionStatusActive)))
	require.NoError(t, s.Save(ctx, newSubscription(tool.GenerateUUIDV7(), "Basic", "19.99", types.NewDate(2026, time.June, 20), 12, types.SubscriptionStatusActive)))
	require.NoError(t, s.Save(ctx, newSubscription(tool.GenerateUUIDV7(), "Gold", "49.99", types.NewDate(2026, time.July, 1), 12, types.SubscriptionStatusActive)))

	sum, err := s.SumPriceInRange(ctx, types.NewDate(2026, time.June, 1), types.NewDate(2026, time.June, 30))
	require.NoError(t, err)
	require.True(t, sum.Equal(decimal.RequireFromString("49.98")), "got %s", sum)

	empty, err := s.SumPriceInRange(ctx, types.NewDate(2025, time.June, 1), types.NewDate(2025, time.June, 30))
	require.NoError(t, err)
	require.True(t, empty.IsZero())
}

func TestSubscriptionStoreCountByStatus(t *testing.T) {
	ctx := context.Background()
	s := NewSubscriptionStore(newTestDB(t))

	start := types.NewDate(2026, time.June, 1)
	require.NoError(t, s.Save(ctx, newSubscription(tool.GenerateUUIDV7(), "A", "9.99", start, 12, types.SubscriptionStatusActive)))
	require.NoError(t, s.Save(ctx, newSubscription(tool.GenerateUUIDV7(), "B", "9.99", start, 12, types.SubscriptionStatusActive)))
	require.NoError(t, s.Save(ctx, newSubscription(tool.GenerateUUIDV7(), "C", "9.99", start, 12, types.SubscriptionStatusCancelled)))

	active, err := s.CountByStatus(ctx, types.SubscriptionStatusActive)
	require.NoError(t, err)
	require.EqualValues(t, 2, active)

	expired, err := s.CountByStatus(ctx, types.SubscriptionStatusExpired)
	require.NoError(t, err)
	require.EqualValues(t, 0, expired)
}

func TestSubscriptionStoreMostPopularPlans(t *testing.T) {
	ctx := context.Background()
	s := NewSubscriptionStore(newTestDB(t))

	start := types.NewDate(2026, time.June, 1)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Save(ctx, newSubscription(tool.GenerateUUIDV7(), "Premium", "29.99", start, 12, types.SubscriptionStatusActive)))
	}
	// Basic and Gold tie at two; alphabetical order breaks the tie
	for i := 0; i < 2; i++ {
		require.NoError(t, s.Save(ctx, newSubscription(tool.GenerateUUIDV7(), "Gold", "49.99", start, 12, types.SubscriptionStatusActive)))
		require.NoError(t, s.Save(ctx, newSubscription(tool.GenerateUUIDV7(), "Basic", "9.99", start, 12, types.SubscriptionStatusActive)))
	}

	got, err := s.MostPopularPlans(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, PlanPopularity{PlanName: "Premium", SubscriptionCount: 3}, got[0])
	require.Equal(t, PlanPopularity{PlanName: "Basic", SubscriptionCount: 2}, got[1])
	require.Equal(t, PlanPopularity{PlanName: "Gold", SubscriptionCount: 2}, got[2])
}

func TestSubscriptionStoreSearch(t *testing.T) {
	ctx := context.Background()
	s := NewSubscriptionStore(newTestDB(t))

	start := types.NewDate(2026, time.June, 1)
	for i, p := range []string{"9.99", "19.99", "29.99", "39.99"} {
		status := types.SubscriptionStatusActive
		if i == 3 {
			status = types.SubscriptionStatusCancelled
		}
		require.NoError(t, s.Save(ctx, newSubscription(tool.GenerateUUIDV7(), "Plan "+p, p, start, 12, status)))
	}

	res, err := s.Search(ctx, &SearchSubscriptionsRequest{
		Filters: []*types.CommonFilter{
			{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{"ACTIVE"}},
		},
		From:      0,
		Size:      2,
		SortBy:    "price",
		SortOrder: "desc",
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, res.Total)
	require.Len(t, res.Items, 2)
	require.True(t, res.Items[0].Price.Equal(decimal.RequireFromString("29.99")))
	require.True(t, res.Items[1].Price.Equal(decimal.RequireFromString("19.99")))
}
