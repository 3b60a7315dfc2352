package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/reviewdeck/reviewdeck/internal/core/ports"
)

const (
	// emailTokenPrefix prefixes Redis keys for email verification tokens.
	// It's a static prefix and not a credential; silence gosec G101 here.
	emailTokenPrefix = "reviewdeck:email_token" //nolint:gosec

	emailTokenTTL = 24 * time.Hour
)

type EmailTokenRedisRepository struct {
	redisClient *redis.Client
	logger      *logrus.Logger
}

func NewEmailTokenRedisRepository(redisClient *redis.Client, logger *logrus.Logger) ports.EmailTokenRepository {
	return &EmailTokenRedisRepository{redisClient: redisClient, logger: logger}
}

func (r *EmailTokenRedisRepository) key(token string) string {
	return fmt.Sprintf("%s:%s", emailTokenPrefix, token)
}

// Store saves a verification token pointing at the user it verifies
func (r *EmailTokenRedisRepository) Store(ctx context.Context, token string, userID uuid.UUID) error {
	if err := r.redisClient.Set(ctx, r.key(token), userID.String(), emailTokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to store email token in redis: %w", err)
	}
	return nil
}

// Consume resolves a token to its user and deletes it. Each token is single-use.
func (r *EmailTokenRedisRepository) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	key := r.key(token)

	val, err := r.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return uuid.Nil, fmt.Errorf("email token not found or expired")
		}
		return uuid.Nil, fmt.Errorf("failed to get email token from redis: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed email token payload: %w", err)
	}

	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": userID}).WithError(err).Warn("failed to delete consumed email token")
		}
	}

	return userID, nil
}
