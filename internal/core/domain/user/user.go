package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	BusinessName  string    `json:"business_name" db:"business_name"`
	Role          UserRole  `json:"role" db:"role"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	EmailVerified bool      `json:"email_verified" db:"email_verified"`
	// GoogleRefreshToken is the stored OAuth refresh token used to mint bearer
	// tokens for the Business Profile API. Never serialized outward.
	GoogleRefreshToken string     `json:"-" db:"google_refresh_token"`
	GoogleAccountName  string     `json:"google_account_name,omitempty" db:"google_account_name"`
	LastLoginAt        *time.Time `json:"last_login_at" db:"last_login_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleOwner UserRole = "owner"
)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOwner:
		return true
	default:
		return false
	}
}

// RegisterRequest represents the request to create a new account
type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	BusinessName string `json:"business_name" validate:"required"`
}

// UpdateUserRequest represents the request to update a user profile
type UpdateUserRequest struct {
	BusinessName       *string `json:"business_name,omitempty"`
	GoogleRefreshToken *string `json:"google_refresh_token,omitempty"`
	GoogleAccountName  *string `json:"google_account_name,omitempty"`
}

// ChangePasswordRequest represents the request to change a password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}
