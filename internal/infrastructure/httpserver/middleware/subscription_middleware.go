package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/reviewdeck/reviewdeck/internal/core/ports"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/httpserver/helpers"
)

type SubscriptionMiddleware struct {
	billingService ports.BillingService
	logger         *logrus.Logger
}

func NewSubscriptionMiddleware(billingService ports.BillingService, logger *logrus.Logger) *SubscriptionMiddleware {
	return &SubscriptionMiddleware{billingService: billingService, logger: logger}
}

// RequireActiveSubscription gates review features on a usable subscription.
// Runs after JWT middleware, which sets the user context.
func (m *SubscriptionMiddleware) RequireActiveSubscription() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := helpers.GetUserIDFromContext(c)
			if err != nil {
				return err
			}

			usable, err := m.billingService.HasUsableSubscription(c.Request().Context(), userID)
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"user_id": userID}).WithError(err).Error("subscription check failed")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to check subscription")
			}
			if !usable {
				return echo.NewHTTPError(http.StatusPaymentRequired, "an active subscription is required")
			}

			return next(c)
		}
	}
}
