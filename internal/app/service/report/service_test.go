package report

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/letrasvivas/bookapi/internal/models"
	"github.com/letrasvivas/bookapi/internal/store"
	"github.com/letrasvivas/bookapi/pkg/tool"
	"github.com/letrasvivas/bookapi/pkg/types"
)

func newTestService(t *testing.T) (*Service, store.SubscriptionStore) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Subscription{}))

	subs := store.NewSubscriptionStore(db)
	return New(subs, zap.NewNop().Sugar()), subs
}

func seedSubscription(t *testing.T, subs store.SubscriptionStore, plan, price string, start types.Date, months int, status types.SubscriptionStatus) *models.Subscription {
	t.Helper()
	sub := &models.Subscription{
		ID:             tool.GenerateUUIDV7(),
		UserID:         tool.GenerateUUIDV7(),
		PlanName:       plan,
		Price:          decimal.RequireFromString(price),
		StartDate:      start,
		EndDate:        models.ComputeEndDate(start, months),
		DurationMonths: months,
		Status:         status,
	}
	require.NoError(t, subs.Save(context.Background(), sub))
	return sub
}

func TestRevenue(t *testing.T) {
	ctx := context.Background()
	svc, subs := newTestService(t)

	seedSubscription(t, subs, "Premium", "29.99", types.NewDate(2026, time.June, 10), 12, types.SubscriptionStatusActive)
	seedSubscription(t, subs, "Basic", "19.99", types.NewDate(2026, time.June, 25), 12, types.SubscriptionStatusActive)
	seedSubscription(t, subs, "Gold", "49.99", types.NewDate(2026, time.July, 5), 12, types.SubscriptionStatusActive)

	got, err := svc.Revenue(ctx, types.NewDate(2026, time.June, 1), types.NewDate(2026, time.June, 30))
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.RequireFromString("49.98")), "got %s", got)

	empty, err := svc.Revenue(ctx, types.NewDate(2020, time.June, 1), types.NewDate(2020, time.June, 30))
	require.NoError(t, err)
	require.True(t, empty.IsZero())
}

func TestExpiringSoon(t *testing.T) {
	ctx := context.Background()
	svc, subs := newTestService(t)
	asOf := types.NewDate(2026, time.August, 1)

	within := seedSubscription(t, subs, "Basic", "9.99", asOf.AddMonths(-1).AddDays(7), 1, types.SubscriptionStatusActive)
	seedSubscription(t, subs, "Gold", "49.99", asOf, 12, types.SubscriptionStatusActive)

	got, err := svc.ExpiringSoon(ctx, 30, asOf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, within.ID, got[0].ID)
}

func TestMostPopularPlans(t *testing.T) {
	ctx := context.Background()
	svc, subs := newTestService(t)
	start := types.NewDate(2026, time.June, 1)

	seedSubscription(t, subs, "Premium", "29.99", start, 12, types.SubscriptionStatusActive)
	seedSubscription(t, subs, "Premium", "29.99", start, 12, types.SubscriptionStatusActive)
	seedSubscription(t, subs, "Basic", "9.99", start, 12, types.SubscriptionStatusActive)

	got, err := svc.MostPopularPlans(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Premium", got[0].PlanName)
	require.EqualValues(t, 2, got[0].SubscriptionCount)
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	svc, subs := newTestService(t)
	asOf := types.NewDate(2026, time.August, 31)

	seedSubscription(t, subs, "Premium", "29.99", types.NewDate(2026, time.August, 5), 12, types.SubscriptionStatusActive)
	seedSubscription(t, subs, "Basic", "19.99", types.NewDate(2026, time.August, 20), 12, types.SubscriptionStatusActive)
	// started before the current month, not counted in revenue
	seedSubscription(t, subs, "Gold", "49.99", types.NewDate(2026, time.July, 1), 12, types.SubscriptionStatusCancelled)

	got, err := svc.Statistics(ctx, asOf)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.StatusCounts[types.SubscriptionStatusActive])
	require.EqualValues(t, 1, got.StatusCounts[types.SubscriptionStatusCancelled])
	require.EqualValues(t, 0, got.StatusCounts[types.SubscriptionStatusExpired])
	require.True(t, got.CurrentMonthRevenue.Equal(decimal.RequireFromString("49.98")), "got %s", got.CurrentMonthRevenue)
}

func TestCountByStatus(t *testing.T) {
	ctx := context.Background()
	svc, subs := newTestService(t)

	seedSubscription(t, subs, "Premium", "29.99", types.NewDate(2026, time.June, 1), 12, types.SubscriptionStatusActive)

	got, err := svc.CountByStatus(ctx, types.SubscriptionStatusActive)
	require.NoError(t, err)
	require.EqualValues(t, 1, got)
}
