package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/reviewdeck/reviewdeck/internal/core/ports"
)

const (
	tokenPrefix = "reviewdeck_tokens"
)

// TokenRedisRepository provides Redis-based storage for refresh tokens and the
// access-token blacklist. Tokens are stored hashed; the raw JWT never reaches Redis.
type TokenRedisRepository struct {
	client redis.Cmdable
	logger *logrus.Logger
}

// NewTokenRedisRepository creates a new Redis token repository
func NewTokenRedisRepository(client redis.Cmdable, logger *logrus.Logger) ports.TokenRepository {
	return &TokenRedisRepository{client: client, logger: logger}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *TokenRedisRepository) refreshKey(tokenHash string) string {
	return fmt.Sprintf("%s:refresh:%s", tokenPrefix, tokenHash)
}

func (r *TokenRedisRepository) userKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:user:%s:refresh", tokenPrefix, userID)
}

func (r *TokenRedisRepository) blacklistKey(tokenHash string) string {
	return fmt.Sprintf("%s:blacklist:%s", tokenPrefix, tokenHash)
}

// StoreRefreshToken stores a refresh token with its expiry
func (r *TokenRedisRepository) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("refresh token already expired")
	}

	stored := &ports.RefreshToken{UserID: userID, ExpiresAt: expiresAt}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh token: %w", err)
	}

	tokenHash := hashToken(token)
	if err := r.client.Set(ctx, r.refreshKey(tokenHash), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token in Redis: %w", err)
	}
	if err := r.client.SAdd(ctx, r.userKey(userID), tokenHash).Err(); err != nil {
		return fmt.Errorf("failed to add refresh token to user mapping: %w", err)
	}
	_ = r.client.Expire(ctx, r.userKey(userID), ttl+time.Hour)
	return nil
}

// GetRefreshToken retrieves a stored refresh token
func (r *TokenRedisRepository) GetRefreshToken(ctx context.Context, token string) (*ports.RefreshToken, error) {
	data, err := r.client.Get(ctx, r.refreshKey(hashToken(token))).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("refresh token not found or expired")
		}
		return nil, fmt.Errorf("failed to get refresh token from Redis: %w", err)
	}

	var stored ports.RefreshToken
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal refresh token: %w", err)
	}
	return &stored, nil
}

// DeleteRefreshToken removes a single refresh token
func (r *TokenRedisRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	tokenHash := hashToken(token)

	stored, err := r.GetRefreshToken(ctx, token)
	if err == nil {
		if err := r.client.SRem(ctx, r.userKey(stored.UserID), tokenHash).Err(); err != nil && r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": stored.UserID}).WithError(err).Warn("failed to remove token from user mapping")
		}
	}

	if err := r.client.Del(ctx, r.refreshKey(tokenHash)).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

// DeleteUserTokens removes all refresh tokens for a user
func (r *TokenRedisRepository) DeleteUserTokens(ctx context.Context, userID uuid.UUID) error {
	userKey := r.userKey(userID)
	tokenHashes, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get user token hashes: %w", err)
	}
	for _, th := range tokenHashes {
		if err := r.client.Del(ctx, r.refreshKey(th)).Err(); err != nil && r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": userID}).WithError(err).Warn("failed to delete refresh token")
		}
	}
	if err := r.client.Del(ctx, userKey).Err(); err != nil {
		return fmt.Errorf("failed to delete user tokens set: %w", err)
	}
	return nil
}

// BlacklistToken marks an access token as revoked until it would have expired anyway
func (r *TokenRedisRepository) BlacklistToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.blacklistKey(hashToken(token)), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// IsTokenBlacklisted reports whether an access token has been revoked
func (r *TokenRedisRepository) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.blacklistKey(hashToken(token))).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}
