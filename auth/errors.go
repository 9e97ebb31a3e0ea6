package auth

import (
	"errors"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeValidation         = "VALIDATION_ERROR"
	TextCodeConflict           = "CONFLICT"
	TextCodeUnauthenticated    = "UNAUTHENTICATED"
	TextCodeInvalidToken       = "INVALID_TOKEN"
	TextCodeInvalidOrExpired   = "INVALID_OR_EXPIRED"
	TextCodeInvalidCredentials = goerrors.TextCodeInvalidCredentials
	TextCodeAlreadyVerified    = "ALREADY_VERIFIED"
	TextCodeForbidden          = "FORBIDDEN"
	TextCodeNotFound           = "NOT_FOUND"
	TextCodeRateLimited        = "RATE_LIMITED"
	TextCodeUpstreamFailure    = "UPSTREAM_FAILURE"
	TextCodeInternal           = "INTERNAL_ERROR"
)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password can not be an empty string")

// ErrMismatchedHashAndPassword is returned when the password does not match
var ErrMismatchedHashAndPassword = errors.New("password and hash do not match")

// ValidationError wraps an ozzo validation error, keeping the field map
func ValidationError(err error, message string) *goerrors.Error {
	return goerrors.FromOzzoValidation(err, message).
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeValidation)
}

// BadRequest is a validation failure without field details
func BadRequest(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeValidation)
}

func Conflict(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryConflict).
		WithCode(http.StatusConflict).
		WithTextCode(TextCodeConflict)
}

func Unauthenticated(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(TextCodeUnauthenticated)
}

func InvalidToken(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(TextCodeInvalidToken)
}

// InvalidOrExpired is returned for codes that do not match or are stale
func InvalidOrExpired(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeInvalidOrExpired)
}

// InvalidCredentials has a single message so callers can not tell
// an unknown email from a wrong password.
func InvalidCredentials() *goerrors.Error {
	return goerrors.New("Invalid credentials", goerrors.CategoryAuth).
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeInvalidCredentials)
}

func AlreadyVerified() *goerrors.Error {
	return goerrors.New("Email already verified", goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeAlreadyVerified)
}

func Forbidden(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryAuthz).
		WithCode(http.StatusForbidden).
		WithTextCode(TextCodeForbidden)
}

func NotFound(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(TextCodeNotFound)
}

func RateLimited(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryRateLimit).
		WithCode(http.StatusTooManyRequests).
		WithTextCode(TextCodeRateLimited)
}

// UpstreamFailure marks a failed call to an external collaborator
func UpstreamFailure(err error, message string) *goerrors.Error {
	return &goerrors.Error{
		Category:  goerrors.CategoryExternal,
		Code:      http.StatusInternalServerError,
		TextCode:  TextCodeUpstreamFailure,
		Message:   message,
		Source:    err,
		Timestamp: time.Now(),
		Severity:  goerrors.SeverityError,
	}
}

// Internal wraps an unexpected failure, rich errors pass through untouched
func Internal(err error, message string) *goerrors.Error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(TextCodeInternal)
}

// HasTextCode reports whether err carries the given text code
func HasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}
