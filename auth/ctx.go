package auth

import (
	"context"

	"github.com/goliatone/go-blogify/middleware/jwtware"
)

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the claims in the given context
func WithClaimsContext(ctx context.Context, claims jwtware.AuthClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims extracts the claims from the standard context
func GetClaims(ctx context.Context) (jwtware.AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(jwtware.AuthClaims)
	return raw, ok
}

// UserIDFromContext returns the authenticated user id, if any
func UserIDFromContext(ctx context.Context) (string, bool) {
	claims, ok := GetClaims(ctx)
	if !ok {
		return "", false
	}
	id := claims.UserID()
	return id, id != ""
}

// ContextEnricher propagates validated claims to the request context
func ContextEnricher(ctx context.Context, claims jwtware.AuthClaims) context.Context {
	return WithClaimsContext(ctx, claims)
}
