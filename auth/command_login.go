package auth

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-blogify/persistence"
)

type LoginMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (e LoginMessage) Type() string { return "user.login" }

func (e LoginMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required),
		validation.Field(&e.Password, validation.Required),
	)
}

type LoginResponse struct {
	User         *User
	AccessToken  string
	RefreshToken string
}

// Login checks the credentials, stores a new refresh token on the user
// and returns both tokens. Unknown emails and wrong passwords fail the same way.
func (w *Workflow) Login(ctx context.Context, msg LoginMessage) (*LoginResponse, error) {
	ctx, cancel, err := w.begin(ctx, "login")
	defer cancel()
	if err != nil {
		return nil, err
	}

	msg.Email = strings.TrimSpace(msg.Email)
	if err := msg.Validate(); err != nil {
		return nil, ValidationError(err, "Email and password are required")
	}

	user, err := w.repo.Users().GetByEmail(ctx, msg.Email)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, InvalidCredentials()
		}
		return nil, Internal(err, "failed to look up user")
	}

	if err := w.hasher.ComparePasswordAndHash(msg.Password, user.PasswordHash); err != nil {
		return nil, InvalidCredentials()
	}

	id := user.ID.String()

	accessToken, err := w.tokens.IssueAccessToken(id)
	if err != nil {
		return nil, Internal(err, "failed to issue access token")
	}

	refreshToken, err := w.tokens.IssueRefreshToken(id)
	if err != nil {
		return nil, Internal(err, "failed to issue refresh token")
	}

	user.RefreshToken = stringPtr(refreshToken)
	user.LastLogin = timePtr(w.clock())

	if err := w.repo.Users().UpdateColumns(ctx, user, "refresh_token", "last_login"); err != nil {
		return nil, w.fail(err, "failed to store session")
	}

	return &LoginResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
