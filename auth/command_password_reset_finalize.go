package auth

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-blogify/persistence"
)

type FinalizePasswordResetMessage struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

func (e FinalizePasswordResetMessage) Type() string { return "user.password_reset.finalize" }

func (e FinalizePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.EmailFormat),
		validation.Field(&e.Code, validation.Required),
		validation.Field(&e.NewPassword, validation.Required, validation.Length(1, 72)),
	)
}

// ResetPasswordByCode replaces the password when email, code and
// deadline all match, then clears the reset code.
func (w *Workflow) ResetPasswordByCode(ctx context.Context, msg FinalizePasswordResetMessage) error {
	ctx, cancel, err := w.begin(ctx, "password reset finalization")
	defer cancel()
	if err != nil {
		return err
	}

	msg.Email = strings.TrimSpace(msg.Email)
	msg.Code = strings.TrimSpace(msg.Code)

	if err := msg.Validate(); err != nil {
		return ValidationError(err, "Invalid password reset data")
	}

	user, err := w.repo.Users().GetByEmail(ctx, msg.Email)
	if err != nil {
		if persistence.IsNotFound(err) {
			return InvalidOrExpired("Invalid or expired password reset code")
		}
		return Internal(err, "failed to retrieve user for password reset")
	}

	if !user.HasResetCode(msg.Code, w.clock()) {
		return InvalidOrExpired("Invalid or expired password reset code")
	}

	hash, err := w.hasher.HashPassword(msg.NewPassword)
	if err != nil {
		return Internal(err, "failed to hash password")
	}

	user.PasswordHash = hash
	user.ResetPasswordCode = nil
	user.ResetPasswordCodeExpiresAt = nil

	if err := w.repo.Users().UpdateColumns(ctx, user,
		"password_hash",
		"reset_password_code",
		"reset_password_code_expires_at",
	); err != nil {
		return w.fail(err, "failed to update password")
	}

	if err := w.notifier.SendPasswordResetSuccess(ctx, user.Email); err != nil {
		w.logger.Warn("password reset confirmation to %s failed: %v", user.Email, err)
	}

	return nil
}
