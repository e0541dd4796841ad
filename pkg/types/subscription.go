package types

import "fmt"

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusInactive  SubscriptionStatus = "INACTIVE"
	SubscriptionStatusSuspended SubscriptionStatus = "SUSPENDED"
	SubscriptionStatusExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

var subscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusInactive,
	SubscriptionStatusSuspended,
	SubscriptionStatusExpired,
	SubscriptionStatusCancelled,
}

// ParseSubscriptionStatus validates a raw status string from path or body input.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	for _, status := range subscriptionStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid subscription status: %q", s)
}

// SubscriptionChangeReason tags change-log entries written by the lifecycle engine.
type SubscriptionChangeReason string

const (
	SubscriptionChangeReasonCreate SubscriptionChangeReason = "create"
	SubscriptionChangeReasonUpdate SubscriptionChangeReason = "update"
	SubscriptionChangeReasonCancel SubscriptionChangeReason = "cancel"
	SubscriptionChangeReasonExpire SubscriptionChangeReason = "expire"
	SubscriptionChangeReasonDelete SubscriptionChangeReason = "delete"
)
