package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/billing"
	"github.com/reviewdeck/reviewdeck/internal/core/ports"
)

type BillingService struct {
	repo   ports.SubscriptionRepository
	logger *logrus.Logger
}

func NewBillingService(repo ports.SubscriptionRepository, logger *logrus.Logger) ports.BillingService {
	return &BillingService{repo: repo, logger: logger}
}

func (s *BillingService) GetSubscription(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *BillingService) Activate(ctx context.Context, userID uuid.UUID, plan billing.Plan) (*billing.Subscription, error) {
	if !plan.IsValid() {
		return nil, fmt.Errorf("unknown plan '%s'", plan)
	}

	periodEnd := time.Now().AddDate(0, 1, 0)

	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		sub = &billing.Subscription{
			ID:               uuid.New(),
			UserID:           userID,
			Plan:             plan,
			Status:           billing.StatusActive,
			CurrentPeriodEnd: &periodEnd,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to create subscription: %w", err)
		}
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID, "plan": plan}).Info("subscription created")
		}
		return sub, nil
	}

	sub.Plan = plan
	sub.Status = billing.StatusActive
	sub.CurrentPeriodEnd = &periodEnd
	sub.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": userID, "plan": plan}).Info("subscription updated")
	}
	return sub, nil
}

func (s *BillingService) Cancel(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("no subscription found")
	}
	sub.Status = billing.StatusCanceled
	sub.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to cancel subscription: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": userID}).Info("subscription canceled")
	}
	return sub, nil
}

func (s *BillingService) HasUsableSubscription(ctx context.Context, userID uuid.UUID) (bool, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return false, nil
	}
	return sub.IsUsable(), nil
}
