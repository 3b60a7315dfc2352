package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/user"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Update(ctx context.Context, user *user.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserService defines the interface for account business logic
type UserService interface {
	Register(ctx context.Context, req *user.RegisterRequest) (*user.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req *user.UpdateUserRequest) (*user.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	VerifyEmail(ctx context.Context, token string) (*user.User, error)
	ResendVerificationEmail(ctx context.Context, email string) error
}

// EmailTokenRepository stores ephemeral email verification tokens.
type EmailTokenRepository interface {
	Store(ctx context.Context, token string, userID uuid.UUID) error
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}
