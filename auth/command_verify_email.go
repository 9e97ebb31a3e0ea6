package auth

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type VerifyEmailMessage struct {
	Code string `json:"code"`
}

func (e VerifyEmailMessage) Type() string { return "user.verify_email" }

func (e VerifyEmailMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Code, validation.Required, validation.Length(6, 6), is.Digit),
	)
}

// VerifyEmail consumes a verification code and marks its owner verified
func (w *Workflow) VerifyEmail(ctx context.Context, msg VerifyEmailMessage) (*User, error) {
	ctx, cancel, err := w.begin(ctx, "email verification")
	defer cancel()
	if err != nil {
		return nil, err
	}

	msg.Code = strings.TrimSpace(msg.Code)
	if err := msg.Validate(); err != nil {
		return nil, InvalidOrExpired("Invalid or expired verification token")
	}

	candidates, err := w.repo.Users().FindByVerificationToken(ctx, msg.Code)
	if err != nil {
		return nil, Internal(err, "failed to look up verification token")
	}

	now := w.clock()

	var user *User
	for _, candidate := range candidates {
		if candidate.HasVerificationCode(msg.Code, now) {
			user = candidate
			break
		}
	}

	if user == nil {
		return nil, InvalidOrExpired("Invalid or expired verification token")
	}

	user.IsVerified = true
	user.VerificationToken = nil
	user.VerificationTokenExpiresAt = nil

	if err := w.repo.Users().UpdateColumns(ctx, user,
		"is_verified",
		"verification_token",
		"verification_token_expires_at",
	); err != nil {
		return nil, w.fail(err, "failed to verify user")
	}

	if err := w.notifier.SendWelcome(ctx, user.Email, user.FirstName); err != nil {
		w.logger.Warn("welcome email to %s failed: %v", user.Email, err)
	}

	return user, nil
}
