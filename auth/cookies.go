package auth

import (
	"time"

	"github.com/goliatone/go-router"
)

const (
	AccessTokenCookie  = "token"
	RefreshTokenCookie = "refreshToken"
)

// CookieConfig controls the session cookie attributes
type CookieConfig struct {
	// Secure is enabled in production
	Secure bool
	Domain string
	Path   string
}

func (c CookieConfig) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

// SetAccessCookie stores the access token in an HttpOnly, SameSite=Lax cookie
func SetAccessCookie(ctx router.Context, cfg CookieConfig, token string, ttl time.Duration) {
	ctx.Cookie(&router.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Path:     cfg.path(),
		Domain:   cfg.Domain,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: router.CookieSameSiteLaxMode,
	})
}

// SetRefreshCookie stores the refresh token in an HttpOnly, SameSite=Strict cookie
func SetRefreshCookie(ctx router.Context, cfg CookieConfig, token string, ttl time.Duration) {
	ctx.Cookie(&router.Cookie{
		Name:     RefreshTokenCookie,
		Value:    token,
		Path:     cfg.path(),
		Domain:   cfg.Domain,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: router.CookieSameSiteStrictMode,
	})
}

// ClearSessionCookies expires both session cookies
func ClearSessionCookies(ctx router.Context, cfg CookieConfig) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		sameSite := router.CookieSameSiteLaxMode
		if name == RefreshTokenCookie {
			sameSite = router.CookieSameSiteStrictMode
		}
		ctx.Cookie(&router.Cookie{
			Name:     name,
			Value:    "",
			Path:     cfg.path(),
			Domain:   cfg.Domain,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			Secure:   cfg.Secure,
			HTTPOnly: true,
			SameSite: sameSite,
		})
	}
}
