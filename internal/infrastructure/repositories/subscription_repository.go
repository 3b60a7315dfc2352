package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/billing"
	"github.com/reviewdeck/reviewdeck/internal/core/ports"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/db"
)

// SubscriptionRepository implements the subscription repository interface
type SubscriptionRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(database *db.Database, logger *logrus.Logger) ports.SubscriptionRepository {
	return &SubscriptionRepository{
		db:     database,
		logger: logger,
	}
}

// Create inserts a new subscription. A user holds at most one subscription row.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *billing.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, plan, status, current_period_end)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.DB.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.Plan, sub.Status, sub.CurrentPeriodEnd)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": sub.UserID}).WithError(err).Error("db: failed to create subscription")
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// GetByUserID retrieves the subscription for a user
func (r *SubscriptionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error) {
	var sub billing.Subscription
	query := `
		SELECT id, user_id, plan, status, current_period_end, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1`

	err := r.db.DB.GetContext(ctx, &sub, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no subscription for user %s", userID)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": userID}).WithError(err).Error("db: failed to get subscription")
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

// Update updates an existing subscription
func (r *SubscriptionRepository) Update(ctx context.Context, sub *billing.Subscription) error {
	query := `
		UPDATE subscriptions
		SET plan = $2, status = $3, current_period_end = $4, updated_at = $5
		WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query,
		sub.ID, sub.Plan, sub.Status, sub.CurrentPeriodEnd, sub.UpdatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"subscription_id": sub.ID}).WithError(err).Error("db: failed to update subscription")
		}
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("subscription %s not found", sub.ID)
	}

	return nil
}
