package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-blogify/logging"
	"github.com/goliatone/go-blogify/middleware/jwtware"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the JWT claims for access and refresh tokens. A token minted
// without a user id carries no userId claim.
type Claims struct {
	jwt.RegisteredClaims
	UID string `json:"userId,omitempty"`
}

// UserID returns the identity carried by the token
func (c *Claims) UserID() string {
	return c.UID
}

var _ jwtware.AuthClaims = (*Claims)(nil)

// TokenService mints and verifies signed tokens
type TokenService interface {
	IssueAccessToken(userID string) (string, error)
	IssueRefreshToken(userID string) (string, error)
	Verify(tokenString string) (*Claims, error)
	Validate(tokenString string) (jwtware.AuthClaims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// TokenConfig configures the HMAC token service
type TokenConfig struct {
	SigningKey []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

type tokenService struct {
	signingKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	logger     logging.Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg TokenConfig, logger logging.Logger) (TokenService, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, goerrors.New("token signing key is required", goerrors.CategoryBadInput)
	}

	if logger == nil {
		logger = logging.Default("auth")
	}

	ts := &tokenService{
		signingKey: cfg.SigningKey,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
		logger:     logger,
	}

	if ts.accessTTL <= 0 {
		ts.accessTTL = DefaultAccessTokenTTL
	}

	if ts.refreshTTL <= 0 {
		ts.refreshTTL = DefaultRefreshTokenTTL
	}

	if ts.now == nil {
		ts.now = time.Now
	}

	return ts, nil
}

func (ts *tokenService) AccessTTL() time.Duration  { return ts.accessTTL }
func (ts *tokenService) RefreshTTL() time.Duration { return ts.refreshTTL }

// IssueAccessToken signs a short lived session token
func (ts *tokenService) IssueAccessToken(userID string) (string, error) {
	return ts.issue(userID, ts.accessTTL)
}

// IssueRefreshToken signs a long lived token used to mint access tokens
func (ts *tokenService) IssueRefreshToken(userID string) (string, error) {
	return ts.issue(userID, ts.refreshTTL)
}

func (ts *tokenService) issue(userID string, ttl time.Duration) (string, error) {
	now := ts.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Verify checks signature and expiry and returns the decoded claims
func (ts *tokenService) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, InvalidToken("token is empty")
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token service encountered unexpected signing method %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, InvalidToken("token is expired").WithMetadata(map[string]any{"reason": "expired"})
		}
		return nil, InvalidToken("token is malformed or has an invalid signature")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, InvalidToken("unable to decode token claims")
	}

	return claims, nil
}

// Validate satisfies jwtware.TokenValidator
func (ts *tokenService) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := ts.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
