package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/user"
	"github.com/reviewdeck/reviewdeck/internal/core/ports"
	"github.com/reviewdeck/reviewdeck/internal/utils"
)

type UserService struct {
	repo           ports.UserRepository
	emailService   ports.EmailService
	emailTokenRepo ports.EmailTokenRepository
	logger         *logrus.Logger
}

func NewUserService(repo ports.UserRepository, emailService ports.EmailService, emailTokenRepo ports.EmailTokenRepository, logger *logrus.Logger) ports.UserService {
	return &UserService{
		repo:           repo,
		emailService:   emailService,
		emailTokenRepo: emailTokenRepo,
		logger:         logger,
	}
}

func (s *UserService) Register(ctx context.Context, req *user.RegisterRequest) (*user.User, error) {
	if existing, err := s.repo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("email '%s' is already registered", req.Email)
	}

	if err := utils.ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		BusinessName: req.BusinessName,
		Role:         user.RoleOwner,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"email": req.Email}).WithError(err).Error("failed to create user")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.sendVerification(ctx, u); err != nil {
		// registration stands even when the email could not be sent
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": u.ID}).WithError(err).Warn("failed to send verification email")
		}
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("user registered")
	}
	return u, nil
}

func (s *UserService) sendVerification(ctx context.Context, u *user.User) error {
	if s.emailService == nil || s.emailTokenRepo == nil {
		return nil
	}
	token := uuid.NewString()
	if err := s.emailTokenRepo.Store(ctx, token, u.ID); err != nil {
		return err
	}
	return s.emailService.SendVerificationEmail(ctx, u.Email, token, u.BusinessName)
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, req *user.UpdateUserRequest) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.BusinessName != nil {
		u.BusinessName = *req.BusinessName
	}
	if req.GoogleRefreshToken != nil {
		u.GoogleRefreshToken = *req.GoogleRefreshToken
	}
	if req.GoogleAccountName != nil {
		u.GoogleAccountName = *req.GoogleAccountName
	}
	u.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect")
	}
	if err := utils.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now()
	return s.repo.Update(ctx, u)
}

func (s *UserService) VerifyEmail(ctx context.Context, token string) (*user.User, error) {
	userID, err := s.emailTokenRepo.Consume(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired verification token")
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.EmailVerified = true
	u.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to mark email verified: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": u.ID}).Info("email verified")
	}
	return u, nil
}

func (s *UserService) ResendVerificationEmail(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		// do not leak which emails exist
		return nil
	}
	if u.EmailVerified {
		return nil
	}
	return s.sendVerification(ctx, u)
}
