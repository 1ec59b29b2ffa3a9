package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.NotFound("user not found")
	ErrEmailAlreadyUsed   = apperror.New(http.StatusConflict, "email already used")
	ErrInvalidCredentials = apperror.Unauthenticated("invalid email or password")
	ErrEmailRequired      = apperror.Validation("email is required", map[string]string{"email": "is required"})
	ErrPasswordTooShort   = apperror.Validation("password is too short", map[string]string{"password": "must be at least 8 characters"})
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// User is an account that can own listings.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	DisplayName  *string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	IsActive     bool
}
