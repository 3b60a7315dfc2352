package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/auth"
	"github.com/reviewdeck/reviewdeck/internal/core/domain/user"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	Login(ctx context.Context, req *auth.LoginRequest) (*auth.AuthTokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (*auth.AuthTokens, error)
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
	Logout(ctx context.Context, userID uuid.UUID, token string) error
	GenerateTokens(ctx context.Context, user *user.User) (*auth.AuthTokens, error)
}

// TokenRepository defines the interface for token storage operations
type TokenRepository interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteUserTokens(ctx context.Context, userID uuid.UUID) error
	BlacklistToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

// RefreshToken represents a stored refresh token
type RefreshToken struct {
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
