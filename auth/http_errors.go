package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-blogify/logging"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// ErrorResponse is the failure envelope returned by every endpoint
type ErrorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// ErrorHandler renders any error returned by a handler as an ErrorResponse
func ErrorHandler(logger logging.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = logging.Default("http")
	}

	return func(c *fiber.Ctx, err error) error {
		richErr := goerrors.MapToError(err, []goerrors.ErrorMapper{mapFiberError})

		status := richErr.Code
		if status == 0 {
			status = statusForCategory(richErr.Category)
		}

		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			richErr = richErr.WithRequestID(rid)
		}

		message := richErr.Message
		if status >= http.StatusInternalServerError {
			logger.Error("%s %s failed: %v", c.Method(), c.OriginalURL(), err)
			if len(richErr.Metadata) > 0 {
				logger.Debug("error details: %s", print.MaybePrettyJSON(richErr.Metadata))
			}
			if richErr.TextCode == "" || richErr.TextCode == TextCodeInternal {
				message = "Internal server error"
			}
		} else {
			logger.Debug("%s %s rejected: %s", c.Method(), c.OriginalURL(), richErr.Message)
		}

		textCode := richErr.TextCode
		if textCode == "" {
			textCode = goerrors.HTTPStatusToTextCode(status)
		}

		resp := ErrorResponse{
			Success: false,
			Message: message,
			Code:    textCode,
		}

		if len(richErr.ValidationErrors) > 0 {
			resp.Errors = richErr.ValidationMap()
		}

		return c.Status(status).JSON(resp)
	}
}

func mapFiberError(err error) *goerrors.Error {
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		return nil
	}

	code := fiberErr.Code
	textCode := goerrors.HTTPStatusToTextCode(code)
	switch code {
	case http.StatusTooManyRequests:
		textCode = TextCodeRateLimited
	case http.StatusNotFound:
		textCode = TextCodeNotFound
	}

	return goerrors.New(fiberErr.Message, goerrors.HTTPStatusToCategory(code)).
		WithCode(code).
		WithTextCode(textCode)
}

func statusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
