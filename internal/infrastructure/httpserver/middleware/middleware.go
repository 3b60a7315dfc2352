package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/reviewdeck/reviewdeck/internal/core/ports"
)

// MiddlewareCollection holds all middleware instances
type MiddlewareCollection struct {
	JWT          *JWTMiddleware
	Subscription *SubscriptionMiddleware
	Logging      *LoggingMiddleware
	Metrics      *MetricsMiddleware
}

// NewMiddlewareCollection creates a new collection of all middleware
func NewMiddlewareCollection(
	authService ports.AuthService,
	billingService ports.BillingService,
	logger *logrus.Logger,
	requestsTotal *prometheus.CounterVec,
	requestDuration *prometheus.HistogramVec,
) *MiddlewareCollection {
	return &MiddlewareCollection{
		JWT:          NewJWTMiddleware(authService, logger),
		Subscription: NewSubscriptionMiddleware(billingService, logger),
		Logging:      NewLoggingMiddleware(logger),
		Metrics:      NewMetricsMiddleware(requestsTotal, requestDuration),
	}
}
