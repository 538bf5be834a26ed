package httpapi

import (
	"context"

	"github.com/Overland-East-Bay/ride-booking-api/internal/app/authz"
)

type principalKey struct{}

func WithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (authz.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(authz.Principal)
	return p, ok && p.UserID > 0
}
