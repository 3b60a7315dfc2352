package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/billing"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/httpserver/helpers"
)

// Billing handlers
func (s *Server) getSubscription(c echo.Context) error {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	sub, err := s.billingSvc.GetSubscription(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "no subscription found")
	}

	return c.JSON(http.StatusOK, sub)
}

func (s *Server) activateSubscription(c echo.Context) error {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req billing.ActivateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !req.Plan.IsValid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown plan")
	}

	sub, err := s.billingSvc.Activate(c.Request().Context(), userID, req.Plan)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to activate subscription")
	}

	return c.JSON(http.StatusOK, sub)
}

func (s *Server) cancelSubscription(c echo.Context) error {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	sub, err := s.billingSvc.Cancel(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "no subscription found")
	}

	return c.JSON(http.StatusOK, sub)
}
