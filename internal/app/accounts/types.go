package accounts

import (
	"time"

	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
)

type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	PhoneNumber string
}

// AuthResult is returned by Register and Login. It never carries the password hash.
type AuthResult struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}
