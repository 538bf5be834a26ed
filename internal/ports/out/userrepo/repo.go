package userrepo

import (
	"context"
	"time"

	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
)

// User is the persistence shape used by the user repository.
// It is an internal record, not an HTTP DTO.
type User struct {
	ID domain.UserID
	// Email is stored lower-cased; uniqueness is case-insensitive.
	Email string
	// PasswordHash is a one-way salted hash. The plaintext is never stored.
	PasswordHash string

	FirstName   string
	LastName    string
	PhoneNumber string

	CreatedAt time.Time
}

// NewUser carries the fields of a user that does not have an ID yet.
type NewUser struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	PhoneNumber  string
	CreatedAt    time.Time
}

// Repository provides access to persisted users.
type Repository interface {
	// Create assigns an ID and stores the user atomically.
	// ErrEmailTaken is returned when the email is already registered.
	Create(ctx context.Context, u NewUser) (User, error)

	GetByID(ctx context.Context, id domain.UserID) (User, error)
	// GetByEmail looks up by the normalized (lower-cased) email.
	GetByEmail(ctx context.Context, email string) (User, error)
}
