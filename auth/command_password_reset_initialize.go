package auth

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-blogify/persistence"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email"`
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

func (p InitializePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.EmailFormat),
	)
}

// ForgotPassword stores a reset code on the user and emails it
func (w *Workflow) ForgotPassword(ctx context.Context, msg InitializePasswordResetMessage) error {
	ctx, cancel, err := w.begin(ctx, "password reset initialization")
	defer cancel()
	if err != nil {
		return err
	}

	msg.Email = strings.TrimSpace(msg.Email)
	if err := msg.Validate(); err != nil {
		return ValidationError(err, "A valid email is required")
	}

	user, err := w.repo.Users().GetByEmail(ctx, msg.Email)
	if err != nil {
		if persistence.IsNotFound(err) {
			return NotFound("User not found")
		}
		return Internal(err, "failed to retrieve user for password reset")
	}

	code, err := w.newCode()
	if err != nil {
		return err
	}

	user.ResetPasswordCode = stringPtr(code)
	user.ResetPasswordCodeExpiresAt = timePtr(w.clock().Add(w.passwordResetTTL))

	if err := w.repo.Users().UpdateColumns(ctx, user,
		"reset_password_code",
		"reset_password_code_expires_at",
	); err != nil {
		return w.fail(err, "failed to store password reset code")
	}

	if err := w.notifier.SendPasswordReset(ctx, user.Email, code); err != nil {
		w.logger.Error("password reset email to %s failed: %v", user.Email, err)
		return UpstreamFailure(err, "Failed to send password reset email")
	}

	return nil
}
