package auth

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-blogify/persistence"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type SignupMessage struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (e SignupMessage) Type() string { return "user.signup" }

// Validate will validate the payload
func (e SignupMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, validation.Length(3, 254), is.EmailFormat),
		validation.Field(&e.Password, validation.Required, validation.Length(1, 72)),
	)
}

type SignupResponse struct {
	User        *User
	AccessToken string
}

// Signup creates an unverified account, issues an access token and
// sends the verification code.
func (w *Workflow) Signup(ctx context.Context, msg SignupMessage) (*SignupResponse, error) {
	ctx, cancel, err := w.begin(ctx, "signup")
	defer cancel()
	if err != nil {
		return nil, err
	}

	msg.Email = strings.TrimSpace(msg.Email)
	msg.FirstName = strings.TrimSpace(msg.FirstName)
	msg.LastName = strings.TrimSpace(msg.LastName)

	if err := msg.Validate(); err != nil {
		return nil, ValidationError(err, "Invalid signup data")
	}

	hash, err := w.hasher.HashPassword(msg.Password)
	if err != nil {
		return nil, Internal(err, "failed to hash password")
	}

	code, err := w.newCode()
	if err != nil {
		return nil, err
	}

	now := w.clock()
	user := &User{
		Email:                      msg.Email,
		PasswordHash:               hash,
		FirstName:                  msg.FirstName,
		LastName:                   msg.LastName,
		VerificationToken:          stringPtr(code),
		VerificationTokenExpiresAt: timePtr(now.Add(w.verificationTTL)),
	}

	if w.useHashid {
		if id, err := hashid.NewUUID(msg.Email); err == nil {
			user.ID = id
		}
	}

	err = w.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := w.repo.Users().GetByEmailTx(ctx, tx, msg.Email); err == nil {
			return Conflict("User already exists")
		} else if !persistence.IsNotFound(err) {
			return Internal(err, "failed to look up user")
		}

		created, err := w.repo.Users().RegisterTx(ctx, tx, user)
		if err != nil {
			if persistence.IsUniqueViolation(err) {
				return Conflict("User already exists")
			}
			return Internal(err, "could not create user")
		}

		if created != nil {
			user = created
		}
		return nil
	})

	if err != nil {
		return nil, w.fail(err, "user registration transaction failed")
	}

	accessToken, err := w.tokens.IssueAccessToken(user.ID.String())
	if err != nil {
		return nil, Internal(err, "failed to issue access token")
	}

	// the account is kept when the email can not be delivered, the user
	// can ask for a new code with resend-verification
	if err := w.notifier.SendVerification(ctx, user.Email, code); err != nil {
		w.logger.Error("signup verification email to %s failed: %v", user.Email, err)
	}

	w.logger.Info("user %s signed up", user.ID)

	return &SignupResponse{User: user, AccessToken: accessToken}, nil
}
