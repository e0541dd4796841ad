package user

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/letrasvivas/bookapi/internal/models"
	"github.com/letrasvivas/bookapi/internal/store"
	"github.com/letrasvivas/bookapi/pkg/apperr"
	"github.com/letrasvivas/bookapi/pkg/tool"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	return NewService(store.NewUserStore(db), zap.NewNop().Sugar())
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	u, err := svc.Create(ctx, &CreateParams{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Age:       30,
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.True(t, u.IsActive)
	require.Equal(t, "Ada Lovelace", u.FullName())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Create(ctx, &CreateParams{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &CreateParams{FirstName: "Grace", LastName: "Hopper", Email: "ada@example.com"})
	require.True(t, apperr.IsConflict(err))
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	u, err := svc.Create(ctx, &CreateParams{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)

	inactive := false
	phone := "+4915112345678"
	updated, err := svc.Update(ctx, u.ID, &UpdateParams{IsActive: &inactive, PhoneNumber: &phone})
	require.NoError(t, err)
	require.False(t, updated.IsActive)
	require.Equal(t, phone, updated.PhoneNumber)
	// untouched fields survive
	require.Equal(t, "ada@example.com", updated.Email)
}

func TestUpdateUserEmailConflict(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Create(ctx, &CreateParams{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)
	u2, err := svc.Create(ctx, &CreateParams{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"})
	require.NoError(t, err)

	taken := "ada@example.com"
	_, err = svc.Update(ctx, u2.ID, &UpdateParams{Email: &taken})
	require.True(t, apperr.IsConflict(err))
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	u, err := svc.Create(ctx, &CreateParams{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, u.ID))
	_, err = svc.Get(ctx, u.ID)
	require.True(t, apperr.IsNotFound(err))
	require.True(t, apperr.IsNotFound(svc.Delete(ctx, tool.GenerateUUIDV7())))
}

func TestSearchUsersByName(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Create(ctx, &CreateParams{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &CreateParams{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"})
	require.NoError(t, err)

	got, err := svc.SearchByName(ctx, "love")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Ada", got[0].FirstName)
}
