package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/letrasvivas/bookapi/pkg/types"
)

// Subscription is a user's paid plan for a period of time. EndDate is always
// derived from StartDate plus DurationMonths via ComputeEndDate; no code path
// sets it independently. The partial unique index enforces the one-ACTIVE-
// subscription-per-user-and-plan rule at the store level; the service check
// is only a fast path.
type Subscription struct {
	ID             string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID         string                   `gorm:"column:user_id;type:uuid;not null;index;uniqueIndex:udx_subscription_active_plan,where:status = 'ACTIVE'" json:"user_id"`
	PlanName       string                   `gorm:"column:plan_name;type:varchar(50);not null;index;uniqueIndex:udx_subscription_active_plan,where:status = 'ACTIVE'" json:"plan_name"`
	Price          decimal.Decimal          `gorm:"column:price;type:decimal(6,2);not null" json:"price"`
	StartDate      types.Date               `gorm:"column:start_date;type:date;not null" json:"start_date"`
	EndDate        types.Date               `gorm:"column:end_date;type:date;index" json:"end_date"`
	DurationMonths int                      `gorm:"column:duration_months;not null" json:"duration_months"`
	Status         types.SubscriptionStatus `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	AutoRenewal    bool                     `gorm:"column:auto_renewal;not null;default:false" json:"auto_renewal"`
	Description    string                   `gorm:"column:description;type:varchar(255)" json:"description"`
	// CreatedAt is managed by GORM and records the creation time.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is managed by GORM and records the update time.
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}

// ComputeEndDate derives the subscription end date. Calendar-month addition
// clamps to the last valid day of the target month (Jan 31 + 1 month lands on
// the last day of February).
func ComputeEndDate(startDate types.Date, durationMonths int) types.Date {
	if startDate.IsZero() {
		return types.Date{}
	}
	return startDate.AddMonths(durationMonths)
}

func (s *Subscription) IsExpired(asOf types.Date) bool {
	return !s.EndDate.IsZero() && s.EndDate.Before(asOf)
}

func (s *Subscription) IsActive(asOf types.Date) bool {
	return s.Status == types.SubscriptionStatusActive && !s.IsExpired(asOf)
}

// DaysUntilExpiration returns the whole days from asOf to EndDate, -1 when no
// end date is set, and 0 when the subscription already expired.
func (s *Subscription) DaysUntilExpiration(asOf types.Date) int {
	if s.EndDate.IsZero() {
		return -1
	}
	days := asOf.DaysUntil(s.EndDate)
	if days < 0 {
		return 0
	}
	return days
}
