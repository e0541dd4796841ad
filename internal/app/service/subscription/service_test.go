package subscription

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
	"github.com/letrasvivas/bookapi/pkg/apperr"
	"github.com/letrasvivas/bookapi/pkg/tool"
	"github.com/letrasvivas/bookapi/pkg/types"
)

func newTestService(t *testing.T) (*Service, store.UserStore) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.SubscriptionLog{},
	))

	users := store.NewUserStore(db)
	subs := store.NewSubscriptionStore(db)
	return NewService(db, subs, users, zap.NewNop().Sugar()), users
}

func seedUser(t *testing.T, users store.UserStore) *models.User {
	t.Helper()
	u := &models.User{
		ID:        tool.GenerateUUIDV7(),
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     tool.GenerateUUIDV7() + "@example.com",
		IsActive:  true,
	}
	require.NoError(t, users.Save(context.Background(), u))
	return u
}

func createParams(userID string) *CreateParams {
	return &CreateParams{
		UserID:         userID,
		PlanName:       "Premium",
		Price:          decimal.RequireFromString("29.99"),
		StartDate:      types.NewDate(2026, time.January, 15),
		DurationMonths: 12,
	}
}

func TestCreateSubscription(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)
	u := seedUser(t, users)

	sub, err := svc.Create(ctx, createParams(u.ID))
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
	require.True(t, sub.EndDate.Equal(types.NewDate(2027, time.January, 15)))
	require.NotEmpty(t, sub.ID)
}

func TestCreateSubscriptionUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Create(ctx, createParams(tool.GenerateUUIDV7()))
	require.True(t, apperr.IsNotFound(err))
}

func TestCreateSubscriptionDuplicateActivePlan(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)
	u := seedUser(t, users)

	first, err := svc.Create(ctx, createParams(u.ID))
	require.NoError(t, err)

	_, err = svc.Create(ctx, createParams(u.ID))
	require.True(t, apperr.IsConflict(err))

	// a different plan is fine
	other := createParams(u.ID)
	other.PlanName = "Basic"
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)

	// after cancelling, the same plan can be re-subscribed
	_, err = svc.Cancel(ctx, first.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, createParams(u.ID))
	require.NoError(t, err)
}

func TestUpdateSubscriptionRecomputesEndDate(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)
	u := seedUser(t, users)

	sub, err := svc.Create(ctx, createParams(u.ID))
	require.NoError(t, err)

	months := 6
	updated, err := svc.Update(ctx, sub.ID, &UpdateParams{DurationMonths: &months})
	require.NoError(t, err)
	require.True(t, updated.EndDate.Equal(types.NewDate(2026, time.July, 15)))

	// fields not present stay untouched
	require.Equal(t, "Premium", updated.PlanName)
	require.True(t, updated.Price.Equal(decimal.RequireFromString("29.99")))

	// a price-only update leaves the end date alone
	price := decimal.RequireFromString("39.99")
	updated, err = svc.Update(ctx, sub.ID, &UpdateParams{Price: &price})
	require.NoError(t, err)
	require.True(t, updated.EndDate.Equal(types.NewDate(2026, time.July, 15)))
	require.True(t, updated.Price.Equal(price))
}

func TestUpdateSubscriptionNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Update(ctx, tool.GenerateUUIDV7(), &UpdateParams{})
	require.True(t, apperr.IsNotFound(err))
}

func TestCancelSubscriptionIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)
	u := seedUser(t, users)

	sub, err := svc.Create(ctx, createParams(u.ID))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusCancelled, cancelled.Status)

	again, err := svc.Cancel(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusCancelled, again.Status)
}

func TestDeleteSubscription(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)
	u := seedUser(t, users)

	sub, err := svc.Create(ctx, createParams(u.ID))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, sub.ID))
	_, err = svc.Get(ctx, sub.ID)
	require.True(t, apperr.IsNotFound(err))
	require.True(t, apperr.IsNotFound(svc.Delete(ctx, sub.ID)))
}

func TestReconcileExpired(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)
	u := seedUser(t, users)

	stale := createParams(u.ID)
	stale.StartDate = types.NewDate(2025, time.January, 1)
	stale.DurationMonths = 1
	staleSub, err := svc.Create(ctx, stale)
	require.NoError(t, err)

	fresh := createParams(u.ID)
	fresh.PlanName = "Basic"
	fresh.StartDate = types.NewDate(2026, time.August, 1)
	freshSub, err := svc.Create(ctx, fresh)
	require.NoError(t, err)

	asOf := types.NewDate(2026, time.August, 31)
	count, err := svc.ReconcileExpired(ctx, asOf)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	got, err := svc.Get(ctx, staleSub.ID)
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusExpired, got.Status)

	got, err = svc.Get(ctx, freshSub.ID)
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusActive, got.Status)

	// a second run with no time passing is a no-op
	count, err = svc.ReconcileExpired(ctx, asOf)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestListActiveByUser(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)
	u := seedUser(t, users)
	asOf := types.NewDate(2026, time.August, 31)

	running := createParams(u.ID)
	running.StartDate = types.NewDate(2026, time.August, 1)
	_, err := svc.Create(ctx, running)
	require.NoError(t, err)

	ended := createParams(u.ID)
	ended.PlanName = "Trial"
	ended.StartDate = types.NewDate(2025, time.January, 1)
	ended.DurationMonths = 1
	_, err = svc.Create(ctx, ended)
	require.NoError(t, err)

	got, err := svc.ListActiveByUser(ctx, u.ID, asOf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Premium", got[0].PlanName)

	_, err = svc.ListActiveByUser(ctx, tool.GenerateUUIDV7(), asOf)
	require.True(t, apperr.IsNotFound(err))
}

func TestListByUserUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.ListByUser(ctx, tool.GenerateUUIDV7())
	require.True(t, apperr.IsNotFound(err))
}
