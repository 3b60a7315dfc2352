package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/httpserver/helpers"
)

// draftReply composes a suggested owner reply for a review. The draft is only
// returned to the caller; posting it goes through the reply endpoint.
func (s *Server) draftReply(c echo.Context) error {
	if s.composer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "reply drafting is not configured")
	}

	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		Review *gbp.Review `json:"review"`
		Tone   string      `json:"tone"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Review == nil || req.Review.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "review is required")
	}

	businessName := ""
	if u, err := s.userService.GetUser(c.Request().Context(), userID); err == nil {
		businessName = u.BusinessName
	}

	draft, err := s.composer.ComposeReply(c.Request().Context(), req.Review, businessName, req.Tone)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to draft reply")
	}

	return c.JSON(http.StatusOK, map[string]string{"draft": draft})
}
