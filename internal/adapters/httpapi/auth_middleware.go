package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Overland-East-Bay/ride-booking-api/internal/app/authz"
)

type Authorizer interface {
	Authorize(ctx context.Context, authorization string) (authz.Principal, error)
}

// NewAuthMiddleware requires Authorization: Bearer <token> and stores the resolved
// principal in the request context. Requests without one never reach next.
func NewAuthMiddleware(gate Authorizer, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := gate.Authorize(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				writeAppError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
