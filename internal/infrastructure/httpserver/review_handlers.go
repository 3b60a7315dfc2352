package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
)

// upstreamHTTPError translates a normalized upstream failure into the HTTP
// status this API reports. Unrecognized errors surface as a bad gateway since
// the failure originated upstream, not here.
func upstreamHTTPError(err error) *echo.HTTPError {
	var ue *gbp.UpstreamError
	if !errors.As(err, &ue) {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	status := http.StatusBadGateway
	switch ue.Kind {
	case gbp.ErrAuthFailed:
		status = http.StatusUnauthorized
	case gbp.ErrPermissionDenied:
		status = http.StatusForbidden
	case gbp.ErrNotFound:
		status = http.StatusNotFound
	case gbp.ErrRateLimited:
		status = http.StatusTooManyRequests
	case gbp.ErrAPIDisabled:
		status = http.StatusServiceUnavailable
	}
	return echo.NewHTTPError(status, map[string]string{
		"kind":    string(ue.Kind),
		"message": ue.Message,
	})
}

func pageSizeParam(c echo.Context, fallback int) int {
	raw := c.QueryParam("page_size")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// locationName rebuilds the upstream resource name from the path parameter.
// Location IDs are opaque upstream identifiers, never minted locally.
func locationName(c echo.Context) string {
	return "locations/" + c.Param("id")
}

// Review handlers
func (s *Server) listLocations(c echo.Context) error {
	page, err := s.reviewSvc.ListLocations(c.Request().Context(), pageSizeParam(c, 20), c.QueryParam("page_token"))
	if err != nil {
		return upstreamHTTPError(err)
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) getLocation(c echo.Context) error {
	loc, err := s.reviewSvc.GetLocationDetail(c.Request().Context(), locationName(c))
	if err != nil {
		return upstreamHTTPError(err)
	}
	return c.JSON(http.StatusOK, loc)
}

func (s *Server) listReviews(c echo.Context) error {
	page, err := s.reviewSvc.ListReviews(c.Request().Context(), locationName(c), pageSizeParam(c, 20), c.QueryParam("page_token"))
	if err != nil {
		return upstreamHTTPError(err)
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) listUnansweredReviews(c echo.Context) error {
	page, err := s.unansweredSvc.ListUnanswered(c.Request().Context(), locationName(c), pageSizeParam(c, 10))
	if err != nil {
		return upstreamHTTPError(err)
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) replyToReview(c echo.Context) error {
	var req struct {
		ReviewName string `json:"review_name"`
		Comment    string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ReviewName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "review_name is required")
	}
	if req.Comment == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "comment is required")
	}

	reply, err := s.reviewSvc.ReplyToReview(c.Request().Context(), req.ReviewName, req.Comment)
	if err != nil {
		return upstreamHTTPError(err)
	}
	return c.JSON(http.StatusOK, reply)
}

// Admin cache handlers
func (s *Server) cacheStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.upstreamCache.Stats())
}

func (s *Server) clearCache(c echo.Context) error {
	s.reviewSvc.ClearCache()
	return c.JSON(http.StatusOK, map[string]string{"message": "upstream cache cleared"})
}
