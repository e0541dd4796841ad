package subscription

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/letrasvivas/bookapi/internal/models"
	"github.com/letrasvivas/bookapi/internal/store"
	"github.com/letrasvivas/bookapi/pkg/apperr"
	"github.com/letrasvivas/bookapi/pkg/logctx"
	"github.com/letrasvivas/bookapi/pkg/tool"
	"github.com/letrasvivas/bookapi/pkg/types"
)

// Service is the subscription lifecycle engine. Every operation that depends
// on the current date takes an explicit asOf so callers (and tests) control
// time.
type Service struct {
	db    *gorm.DB
	subs  store.SubscriptionStore
	users store.UserStore
	log   *zap.SugaredLogger
}

func NewService(db *gorm.DB, subs store.SubscriptionStore, users store.UserStore, log *zap.SugaredLogger) *Service {
	return &Service{db: db, subs: subs, users: users, log: log}
}

// CreateParams carries the validated input for a new subscription. The API
// layer is responsible for range/format validation.
type CreateParams struct {
	UserID         string
	PlanName       string
	Price          decimal.Decimal
	StartDate      types.Date
	DurationMonths int
	AutoRenewal    bool
	Description    string
}

// UpdateParams is a partial update: nil fields are left unchanged. A JSON
// null in the request body behaves the same as an omitted field.
type UpdateParams struct {
	PlanName       *string
	Price          *decimal.Decimal
	StartDate      *types.Date
	DurationMonths *int
	Status         *types.SubscriptionStatus
	AutoRenewal    *bool
	Description    *string
}

// Create makes a new ACTIVE subscription. It fails with a not-found error
// when the user does not exist and with a conflict when the user already has
// an ACTIVE subscription for the same plan. The duplicate check is a fast
// path; the partial unique index on the subscription table is the authority
// under concurrent writers.
func (s *Service) Create(ctx context.Context, p *CreateParams) (*models.Subscription, error) {
	exists, err := s.users.Exists(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFoundf("user not found with id: %s", p.UserID)
	}

	dups, err := s.subs.FindByUserAndPlanWithStatus(ctx, p.UserID, p.PlanName, types.SubscriptionStatusActive)
	if err != nil {
		return nil, err
	}
	if len(dups) > 0 {
		return nil, apperr.Conflictf("user %s already has an active subscription for plan %q", p.UserID, p.PlanName)
	}

	sub := &models.Subscription{
		ID:             tool.GenerateUUIDV7(),
		UserID:         p.UserID,
		PlanName:       p.PlanName,
		Price:          p.Price,
		StartDate:      p.StartDate,
		EndDate:        models.ComputeEndDate(p.StartDate, p.DurationMonths),
		DurationMonths: p.DurationMonths,
		Status:         types.SubscriptionStatusActive,
		AutoRenewal:    p.AutoRenewal,
		Description:    p.Description,
	}

	if err := s.subs.Save(ctx, sub); err != nil {
		return nil, err
	}

	s.writeLog(ctx, nil, sub, types.SubscriptionChangeReasonCreate)
	return sub, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Subscription, error) {
	return s.subs.Get(ctx, id)
}

// Update applies the non-nil fields of p and recomputes the end date when the
// start date or duration changed.
func (s *Service) Update(ctx context.Context, id string, p *UpdateParams) (*models.Subscription, error) {
	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *sub

	datesChanged := false
	if p.PlanName != nil {
		sub.PlanName = *p.PlanName
	}
	if p.Price != nil {
		sub.Price = *p.Price
	}
	if p.StartDate != nil {
		sub.StartDate = *p.StartDate
		datesChanged = true
	}
	if p.DurationMonths != nil {
		sub.DurationMonths = *p.DurationMonths
		datesChanged = true
	}
	if p.Status != nil {
		sub.Status = *p.Status
	}
	if p.AutoRenewal != nil {
		sub.AutoRenewal = *p.AutoRenewal
	}
	if p.Description != nil {
		sub.Description = *p.Description
	}

	if datesChanged {
		sub.EndDate = models.ComputeEndDate(sub.StartDate, sub.DurationMonths)
	}

	if err := s.subs.Save(ctx, sub); err != nil {
		return nil, err
	}

	s.writeLog(ctx, &before, sub, types.SubscriptionChangeReasonUpdate)
	return sub, nil
}

// Cancel sets the status to CANCELLED unconditionally. Cancelling an already
// cancelled subscription succeeds and changes nothing.
func (s *Service) Cancel(ctx context.Context, id string) (*models.Subscription, error) {
	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *sub

	sub.Status = types.SubscriptionStatusCancelled
	if err := s.subs.Save(ctx, sub); err != nil {
		return nil, err
	}

	s.writeLog(ctx, &before, sub, types.SubscriptionChangeReasonCancel)
	return sub, nil
}

// Delete removes a subscription permanently. This is an administrative
// operation, not part of the lifecycle state machine.
func (s *Service) Delete(ctx context.Context, id string) error {
	sub, err := s.subs.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.subs.Delete(ctx, id); err != nil {
		return err
	}
	s.writeLog(ctx, sub, nil, types.SubscriptionChangeReasonDelete)
	return nil
}

// ReconcileExpired transitions every ACTIVE subscription whose end date is
// before asOf to EXPIRED and returns the number updated. Running it again
// with no time passing updates nothing.
func (s *Service) ReconcileExpired(ctx context.Context, asOf types.Date) (int, error) {
	expired, err := s.subs.FindExpiredButStillActive(ctx, asOf)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	befores := make([]models.Subscription, len(expired))
	for i, sub := range expired {
		befores[i] = *sub
		sub.Status = types.SubscriptionStatusExpired
	}
	if err := s.subs.SaveAll(ctx, expired); err != nil {
		return 0, err
	}

	for i, sub := range expired {
		s.writeLog(ctx, &befores[i], sub, types.SubscriptionChangeReasonExpire)
	}
	logctx.FromCtx(ctx, s.log).Infow("reconciled expired subscriptions", "as_of", asOf.String(), "count", len(expired))
	return len(expired), nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFoundf("user not found with id: %s", userID)
	}
	return s.subs.FindByUser(ctx, userID)
}

func (s *Service) ListActiveByUser(ctx context.Context, userID string, asOf types.Date) ([]*models.Subscription, error) {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFoundf("user not found with id: %s", userID)
	}
	return s.subs.FindActiveByUser(ctx, userID, asOf)
}

func (s *Service) ListByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*models.Subscription, error) {
	return s.subs.FindByStatus(ctx, status)
}

func (s *Service) ListExpiredButStillActive(ctx context.Context, asOf types.Date) ([]*models.Subscription, error) {
	return s.subs.FindExpiredButStillActive(ctx, asOf)
}

func (s *Service) SearchByPlanName(ctx context.Context, term string) ([]*models.Subscription, error) {
	return s.subs.FindByPlanNameLike(ctx, term)
}

func (s *Service) ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*models.Subscription, error) {
	return s.subs.FindByPriceBetween(ctx, minPrice, maxPrice)
}

func (s *Service) Search(ctx context.Context, req *store.SearchSubscriptionsRequest) (*store.SearchSubscriptionsResponse, error) {
	return s.subs.Search(ctx, req)
}

// writeLog records a change-log row asynchronously; failures are logged but
// never fail the originating operation.
func (s *Service) writeLog(ctx context.Context, before, after *models.Subscription, reason types.SubscriptionChangeReason) {
	ref := after
	if ref == nil {
		ref = before
	}
	entry := &models.SubscriptionLog{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: ref.ID,
		UserID:         ref.UserID,
		Reason:         reason,
		Before:         datatypes.NewJSONType(before),
		After:          datatypes.NewJSONType(after),
		Extra:          datatypes.JSONMap{},
	}
	go func() {
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save subscription log: %v", err)
		}
	}()
}
