package authz

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/auth/token"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/userrepo"
)

// Principal is the request-scoped identity resolved by the gate.
type Principal struct {
	UserID domain.UserID
	Email  string
}

type Verifier interface {
	Verify(ctx context.Context, raw string) (token.Claims, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id domain.UserID) (userrepo.User, error)
}

// Gate resolves a Principal from an Authorization header. It only reads.
type Gate struct {
	verifier Verifier
	users    UserLookup
	log      *slog.Logger
}

func NewGate(verifier Verifier, users UserLookup, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{verifier: verifier, users: users, log: log}
}

// Authorize returns the principal named by a valid bearer token whose user still
// exists. Every failure is an *Error; access is never granted on error.
func (g *Gate) Authorize(ctx context.Context, authorization string) (Principal, error) {
	raw, ok := bearerToken(authorization)
	if !ok {
		return Principal{}, unauthenticated("missing or malformed bearer token", nil)
	}

	claims, err := g.verifier.Verify(ctx, raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return Principal{}, &Error{Status: 401, Code: CodeTokenExpired, Message: "token expired", Err: err}
		}
		return Principal{}, unauthenticated("invalid token", err)
	}

	u, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			g.log.WarnContext(ctx, "token names unknown user", "user_id", claims.UserID)
			return Principal{}, &Error{Status: 403, Code: CodeForbidden, Message: "you cannot access this resource", Err: err}
		}
		g.log.ErrorContext(ctx, "user lookup failed during authorization", "user_id", claims.UserID, "err", err)
		return Principal{}, &Error{Status: 503, Code: CodeGateFailure, Message: "authorization temporarily unavailable", Err: err}
	}

	return Principal{UserID: u.ID, Email: u.Email}, nil
}

// bearerToken extracts the credential from "Bearer <token>".
func bearerToken(h string) (string, bool) {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || scheme != "Bearer" {
		return "", false
	}
	raw := strings.TrimSpace(rest)
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return "", false
	}
	return raw, true
}
