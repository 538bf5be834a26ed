package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/config"
)

var (
	// ErrInvalid covers every structural, signature and claim failure except expiry.
	ErrInvalid = errors.New("invalid token")
	// ErrExpired indicates a correctly signed token past its exp claim.
	ErrExpired = errors.New("token expired")
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Claims are the access token claims. UserID carries the principal.
type Claims struct {
	UserID domain.UserID `json:"user_id"`
	Email  string        `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issued is a freshly signed access token.
type Issued struct {
	Token     string
	ExpiresAt time.Time
}

// Service issues and verifies HS256 access tokens with a process-wide secret.
// It is stateless beyond its configuration and safe for concurrent use.
type Service struct {
	cfg   config.TokenConfig
	clock Clock
}

func New(cfg config.TokenConfig) *Service {
	return NewWithOptions(cfg, nil)
}

func NewWithOptions(cfg config.TokenConfig, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = config.DefaultTokenTTL
	}
	return &Service{cfg: cfg, clock: clock}
}

// Issue signs a token for the user valid for the configured TTL (one day by default).
func (s *Service) Issue(userID domain.UserID, email string) (Issued, error) {
	if len(s.cfg.Secret) == 0 {
		return Issued{}, errors.New("token secret not configured")
	}
	now := s.clock.Now().UTC().Truncate(time.Second)
	exp := now.Add(s.cfg.TTL)
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return Issued{}, fmt.Errorf("sign token: %w", err)
	}
	return Issued{Token: signed, ExpiresAt: exp}, nil
}

// Verify checks signature, algorithm, expiry and (when configured) issuer.
//
// It fails closed: any problem yields ErrInvalid or ErrExpired and zero Claims.
func (s *Service) Verify(ctx context.Context, raw string) (Claims, error) {
	_ = ctx
	if len(s.cfg.Secret) == 0 || raw == "" {
		return Claims{}, ErrInvalid
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrInvalid
	}
	if !tok.Valid || claims.UserID <= 0 {
		return Claims{}, ErrInvalid
	}
	return claims, nil
}
