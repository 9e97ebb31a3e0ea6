package auth

import (
	"errors"

	"github.com/goliatone/go-blogify/middleware/jwtware"
	"github.com/goliatone/go-router"
)

// ProtectedRoute rejects requests without a valid access token cookie
func ProtectedRoute(tokens TokenService) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		TokenValidator:  tokens,
		TokenLookup:     "cookie:" + AccessTokenCookie,
		ErrorHandler:    authErrorHandler,
		ContextEnricher: ContextEnricher,
	})
}

// OptionalRoute attaches the identity when a valid token is present
func OptionalRoute(tokens TokenService) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		TokenValidator:  tokens,
		TokenLookup:     "cookie:" + AccessTokenCookie,
		Optional:        true,
		ContextEnricher: ContextEnricher,
	})
}

func authErrorHandler(_ router.Context, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return Unauthenticated("Unauthorized - no token provided")
	}
	return InvalidToken("Unauthorized - token verification failed")
}

// CurrentUserID returns the identity attached by the access middleware
func CurrentUserID(c router.Context) string {
	if id, ok := jwtware.UserID(c); ok {
		return id
	}
	if id, ok := UserIDFromContext(c.Context()); ok {
		return id
	}
	return ""
}
