package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/auth"
	"github.com/reviewdeck/reviewdeck/internal/core/domain/user"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/httpserver/helpers"
)

// Auth handlers
func (s *Server) register(c echo.Context) error {
	var req user.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" || req.BusinessName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, password and business_name are required")
	}

	created, err := s.userService.Register(c.Request().Context(), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, created)
}

func (s *Server) login(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	tokens, err := s.authSvc.Login(c.Request().Context(), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	return c.JSON(http.StatusOK, tokens)
}

func (s *Server) refreshToken(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	tokens, err := s.authSvc.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	return c.JSON(http.StatusOK, tokens)
}

func (s *Server) logout(c echo.Context) error {
	token, err := helpers.GetJWTTokenFromContext(c)
	if err != nil {
		return err
	}

	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	if err := s.authSvc.Logout(c.Request().Context(), userID, token); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to logout")
	}

	return c.NoContent(http.StatusOK)
}

// verifyEmail consumes a verification token. Reached from the emailed link
// (GET) or programmatically (POST).
func (s *Server) verifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		var req struct {
			Token string `json:"token"`
		}
		if err := c.Bind(&req); err == nil {
			token = req.Token
		}
	}
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	verified, err := s.userService.VerifyEmail(c.Request().Context(), token)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired verification token")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "email verified successfully",
		"email":   verified.Email,
	})
}

func (s *Server) resendVerificationEmail(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	// always report success so callers cannot probe which emails exist
	_ = s.userService.ResendVerificationEmail(c.Request().Context(), req.Email)

	return c.JSON(http.StatusOK, map[string]string{
		"message": "if the address is registered, a verification email has been sent",
	})
}
