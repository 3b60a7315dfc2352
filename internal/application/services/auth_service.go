package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	config "github.com/reviewdeck/reviewdeck/configs"
	"github.com/reviewdeck/reviewdeck/internal/core/domain/auth"
	"github.com/reviewdeck/reviewdeck/internal/core/domain/user"
	"github.com/reviewdeck/reviewdeck/internal/core/ports"
)

type AuthService struct {
	userRepo  ports.UserRepository
	tokenRepo ports.TokenRepository
	jwtConfig *config.JWTConfig
	logger    *logrus.Logger
}

func NewAuthService(userRepo ports.UserRepository, tokenRepo ports.TokenRepository, jwtConfig *config.JWTConfig, logger *logrus.Logger) ports.AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtConfig: jwtConfig,
		logger:    logger,
	}
}

func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.AuthTokens, error) {
	foundUser, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(foundUser.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if !foundUser.IsActive {
		return nil, fmt.Errorf("user account is disabled")
	}

	tokens, err := s.GenerateTokens(ctx, foundUser)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	foundUser.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, foundUser); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": foundUser.ID}).WithError(err).Warn("failed to update user last login time")
		}
	}

	return tokens, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*auth.AuthTokens, error) {
	storedToken, err := s.tokenRepo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token")
	}

	if time.Now().After(storedToken.ExpiresAt) {
		if err := s.tokenRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
			if s.logger != nil {
				s.logger.WithError(err).Warn("failed to delete expired refresh token")
			}
		}
		return nil, fmt.Errorf("refresh token expired")
	}

	foundUser, err := s.userRepo.GetByID(ctx, storedToken.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}
	if !foundUser.IsActive {
		return nil, fmt.Errorf("user account is disabled")
	}

	// rotate: the old refresh token is single-use
	if err := s.tokenRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Warn("failed to delete rotated refresh token")
		}
	}

	return s.GenerateTokens(ctx, foundUser)
}

func (s *AuthService) GenerateTokens(ctx context.Context, u *user.User) (*auth.AuthTokens, error) {
	now := time.Now()

	claims := &auth.Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessTokenString, err := accessToken.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	// unique jti: iat/exp have second resolution, so without it two issuances
	// within the same second would mint byte-identical refresh tokens and
	// rotation would silently re-store the one it just deleted
	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   u.ID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.RefreshTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	})
	refreshTokenString, err := refreshToken.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.tokenRepo.StoreRefreshToken(ctx, u.ID, refreshTokenString, now.Add(s.jwtConfig.RefreshTokenTTL)); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &auth.AuthTokens{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenString,
		ExpiresIn:    int64(s.jwtConfig.AccessTokenTTL.Seconds()),
	}, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &auth.Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC (prevent alg confusion)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	blacklisted, err := s.tokenRepo.IsTokenBlacklisted(ctx, tokenString)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Warn("failed to check token blacklist")
		}
	} else if blacklisted {
		return nil, fmt.Errorf("token has been revoked")
	}

	return claims, nil
}

func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, token string) error {
	if err := s.tokenRepo.BlacklistToken(ctx, userID, token, time.Now().Add(s.jwtConfig.AccessTokenTTL)); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	if err := s.tokenRepo.DeleteUserTokens(ctx, userID); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID}).WithError(err).Warn("failed to delete user refresh tokens")
		}
	}
	return nil
}
