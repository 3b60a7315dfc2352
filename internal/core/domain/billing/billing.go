package billing

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is the local record of a customer's plan. Stripe remains the
// source of truth for payment state; webhooks (handled out of process) drive
// status transitions through the billing service.
type Subscription struct {
	ID                   uuid.UUID          `json:"id" db:"id"`
	UserID               uuid.UUID          `json:"user_id" db:"user_id"`
	Plan                 Plan               `json:"plan" db:"plan"`
	Status               SubscriptionStatus `json:"status" db:"status"`
	StripeCustomerID     string             `json:"-" db:"stripe_customer_id"`
	StripeSubscriptionID string             `json:"-" db:"stripe_subscription_id"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty" db:"current_period_end"`
	CreatedAt            time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" db:"updated_at"`
}

type Plan string

const (
	PlanFree    Plan = "free"
	PlanStarter Plan = "starter"
	PlanPro     Plan = "pro"
)

func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanStarter, PlanPro:
		return true
	default:
		return false
	}
}

type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusTrialing SubscriptionStatus = "trialing"
)

// IsUsable reports whether the subscription currently grants access to the
// review management features.
func (s *Subscription) IsUsable() bool {
	switch s.Status {
	case StatusActive, StatusTrialing:
		return true
	case StatusPastDue:
		// grace period until the current period actually ends
		return s.CurrentPeriodEnd == nil || time.Now().Before(*s.CurrentPeriodEnd)
	default:
		return false
	}
}

// ActivateRequest represents the request to start or change a subscription.
type ActivateRequest struct {
	Plan Plan `json:"plan" validate:"required"`
}
