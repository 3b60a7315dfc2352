package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/billing"
)

// SubscriptionRepository defines the interface for subscription data operations
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *billing.Subscription) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error)
	Update(ctx context.Context, sub *billing.Subscription) error
}

// BillingService defines the interface for subscription business logic.
// Payment collection itself lives with Stripe; this service keeps the local
// plan/status record that gates access to review features.
type BillingService interface {
	GetSubscription(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error)
	Activate(ctx context.Context, userID uuid.UUID, plan billing.Plan) (*billing.Subscription, error)
	Cancel(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error)
	HasUsableSubscription(ctx context.Context, userID uuid.UUID) (bool, error)
}
