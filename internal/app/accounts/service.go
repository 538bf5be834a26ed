package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"unicode/utf8"

	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/auth/password"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/auth/token"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/clock"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/userrepo"
)

const MinPasswordLength = 6

var e164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
	CompareDummy(plain string)
}

type TokenIssuer interface {
	Issue(userID domain.UserID, email string) (token.Issued, error)
}

type Service struct {
	users  userrepo.Repository
	hasher PasswordHasher
	tokens TokenIssuer
	clk    clock.Clock
	log    *slog.Logger
}

func NewService(users userrepo.Repository, hasher PasswordHasher, tokens TokenIssuer, clk clock.Clock, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, clk: clk, log: log}
}

// Register creates a user and logs them in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	firstName := domain.NormalizeHumanName(in.FirstName)
	lastName := domain.NormalizeHumanName(in.LastName)
	email := domain.NormalizeEmail(in.Email)

	details := map[string]any{}
	if firstName == "" {
		details["first_name"] = "must be non-empty"
	}
	if lastName == "" {
		details["last_name"] = "must be non-empty"
	}
	if err := validateEmail(email); err != nil {
		details["email"] = err.Error()
	}
	switch {
	case utf8.RuneCountInString(in.Password) < MinPasswordLength:
		details["password"] = "must be at least 6 characters"
	case len(in.Password) > password.MaxBytes:
		details["password"] = fmt.Sprintf("must be at most %d bytes", password.MaxBytes)
	}
	if !e164.MatchString(in.PhoneNumber) {
		details["phone_number"] = "must be in E.164 format (e.g., +1234567890)"
	}
	if len(details) > 0 {
		return AuthResult{}, &Error{Status: 422, Code: CodeValidation, Message: "invalid registration", Details: details}
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return AuthResult{}, emailTaken()
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		s.log.ErrorContext(ctx, "email lookup failed", "err", err)
		return AuthResult{}, persistenceFailure(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.log.ErrorContext(ctx, "password hashing failed", "err", err)
		return AuthResult{}, internalError(err)
	}

	u, err := s.users.Create(ctx, userrepo.NewUser{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		PhoneNumber:  in.PhoneNumber,
		CreatedAt:    s.clk.Now(),
	})
	if err != nil {
		// A concurrent registration can win between the lookup and the insert.
		if errors.Is(err, userrepo.ErrEmailTaken) {
			return AuthResult{}, emailTaken()
		}
		s.log.ErrorContext(ctx, "create user failed", "err", err)
		return AuthResult{}, persistenceFailure(err)
	}

	s.log.InfoContext(ctx, "user registered", "user_id", u.ID)
	return s.issue(ctx, u)
}

// Login authenticates by email and password. Unknown emails and wrong passwords
// yield the same error.
func (s *Service) Login(ctx context.Context, email, plain string) (AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			s.hasher.CompareDummy(plain)
			return AuthResult{}, errInvalidCredentials
		}
		s.log.ErrorContext(ctx, "login lookup failed", "err", err)
		return AuthResult{}, persistenceFailure(err)
	}

	if err := s.hasher.Compare(u.PasswordHash, plain); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.log.ErrorContext(ctx, "password compare failed", "user_id", u.ID, "err", err)
		}
		return AuthResult{}, errInvalidCredentials
	}
	return s.issue(ctx, u)
}

func (s *Service) issue(ctx context.Context, u userrepo.User) (AuthResult, error) {
	issued, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		s.log.ErrorContext(ctx, "token issue failed", "user_id", u.ID, "err", err)
		return AuthResult{}, internalError(err)
	}
	return AuthResult{User: toDomain(u), Token: issued.Token, ExpiresAt: issued.ExpiresAt}, nil
}

func emailTaken() *Error {
	return &Error{Status: 409, Code: CodeEmailAlreadyInUse, Message: "email already exists", Details: map[string]any{"email": "already registered"}}
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("must be non-empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("must be a valid email address")
	}
	// Reject "Name <email@x>" forms.
	if addr.Address != email {
		return errors.New("must be a bare email address")
	}
	return nil
}

func toDomain(u userrepo.User) domain.User {
	return domain.User{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt,
	}
}
