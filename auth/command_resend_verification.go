package auth

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-blogify/persistence"
)

type ResendVerificationMessage struct {
	Email string `json:"email"`
}

func (e ResendVerificationMessage) Type() string { return "user.resend_verification" }

func (e ResendVerificationMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.EmailFormat),
	)
}

// ResendVerification issues a fresh verification code with the longer
// resend lifetime. A failed delivery is reported as UpstreamFailure.
func (w *Workflow) ResendVerification(ctx context.Context, msg ResendVerificationMessage) error {
	ctx, cancel, err := w.begin(ctx, "resend verification")
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
		return Internal(err, "failed to look up user")
	}

	if user.IsVerified {
		return AlreadyVerified()
	}

	code, err := w.newCode()
	if err != nil {
		return err
	}

	user.VerificationToken = stringPtr(code)
	user.VerificationTokenExpiresAt = timePtr(w.clock().Add(w.resendVerificationTTL))

	if err := w.repo.Users().UpdateColumns(ctx, user,
		"verification_token",
		"verification_token_expires_at",
	); err != nil {
		return w.fail(err, "failed to store verification token")
	}

	if err := w.notifier.SendVerification(ctx, user.Email, code); err != nil {
		w.logger.Error("resend verification email to %s failed: %v", user.Email, err)
		return UpstreamFailure(err, "Failed to send verification email")
	}

	return nil
}
