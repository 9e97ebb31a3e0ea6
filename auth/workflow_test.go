package auth_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/goliatone/go-blogify/auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWorkflow_Signup(t *testing.T) {
	t.Run("creates an unverified user and sends the code", func(t *testing.T) {
		env := newTestEnv(t, "123456")

		resp := env.signup(t, "jane@example.com")

		require.NotNil(t, resp.User)
		assert.NotEqual(t, uuid.Nil, resp.User.ID)
		assert.False(t, resp.User.IsVerified)
		assert.NotEqual(t, "s3cret-pass", resp.User.PasswordHash)

		claims, err := env.tokens.Verify(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID.String(), claims.UserID())

		stored := env.user(t, "jane@example.com")
		require.NotNil(t, stored.VerificationToken)
		assert.Equal(t, "123456", *stored.VerificationToken)
		require.NotNil(t, stored.VerificationTokenExpiresAt)
		assert.WithinDuration(t, env.clock.Now().Add(time.Hour), *stored.VerificationTokenExpiresAt, time.Second)

		env.notifier.AssertCalled(t, "SendVerification", mock.Anything, "jane@example.com", "123456")
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		env := newTestEnv(t)
		env.signup(t, "jane@example.com")

		_, err := env.workflow.Signup(context.Background(), auth.SignupMessage{
			FirstName: "Other",
			LastName:  "Person",
			Email:     "jane@example.com",
			Password:  "another",
		})
		requireTextCode(t, err, auth.TextCodeConflict, http.StatusConflict)

		var count int
		require.NoError(t, env.db.NewRaw("SELECT COUNT(*) FROM users").Scan(context.Background(), &count))
		assert.Equal(t, 1, count)
	})

	t.Run("requires every field", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.workflow.Signup(context.Background(), auth.SignupMessage{
			Email:    "jane@example.com",
			Password: "secret",
		})
		requireTextCode(t, err, auth.TextCodeValidation, http.StatusBadRequest)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, "Invalid signup data", richErr.Message)
		assert.Contains(t, richErr.ValidationMap(), "first_name")
		env.notifier.AssertNotCalled(t, "SendVerification", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.workflow.Signup(context.Background(), auth.SignupMessage{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "not-an-email",
			Password:  "secret",
		})
		requireTextCode(t, err, auth.TextCodeValidation, http.StatusBadRequest)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, "Invalid signup data", richErr.Message)
		assert.Contains(t, richErr.ValidationMap(), "email")
	})

	t.Run("accepts addresses on domains that do not resolve", func(t *testing.T) {
		for _, email := range []string{"jane@x.com", "jane@blogify.test", "jane@corp.invalid"} {
			t.Run(email, func(t *testing.T) {
				env := newTestEnv(t)
				env.notifier.On("SendVerification", mock.Anything, email, "123456").Return(nil).Twice()

				resp, err := env.workflow.Signup(context.Background(), auth.SignupMessage{
					FirstName: "Jane",
					LastName:  "Doe",
					Email:     email,
					Password:  "pw123",
				})
				require.NoError(t, err)
				assert.Equal(t, email, resp.User.Email)

				require.NoError(t, env.workflow.ResendVerification(context.Background(), auth.ResendVerificationMessage{Email: email}))
			})
		}
	})

	t.Run("keeps the account when the email fails", func(t *testing.T) {
		env := newTestEnv(t)
		env.notifier.On("SendVerification", mock.Anything, "jane@example.com", "123456").
			Return(errors.New("provider down")).Once()

		resp, err := env.workflow.Signup(context.Background(), auth.SignupMessage{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.com",
			Password:  "secret",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		env.user(t, "jane@example.com")
	})

	t.Run("derives the id from the email when hashid is enabled", func(t *testing.T) {
		env := newTestEnv(t)
		workflow := auth.NewWorkflow(env.repo, env.tokens, env.notifier,
			auth.WithCodeGenerator(codeSequence("123456")),
			auth.WithPasswordHasher(auth.NewBcryptHasher(4)),
			auth.WithHashid(true),
		)

		env.notifier.On("SendVerification", mock.Anything, "hash@example.com", "123456").Return(nil).Once()

		first, err := workflow.Signup(context.Background(), auth.SignupMessage{
			FirstName: "Hash",
			LastName:  "Id",
			Email:     "hash@example.com",
			Password:  "secret",
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, first.User.ID)
		assert.Equal(t, first.User.ID, env.user(t, "hash@example.com").ID)
	})

	t.Run("fails on a cancelled context", func(t *testing.T) {
		env := newTestEnv(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := env.workflow.Signup(ctx, auth.SignupMessage{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.com",
			Password:  "secret",
		})
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, goerrors.CategoryOperation, richErr.Category)
	})
}

func TestWorkflow_VerifyEmail(t *testing.T) {
	t.Run("marks the user verified and consumes the code", func(t *testing.T) {
		env := newTestEnv(t, "123456")
		env.signup(t, "jane@example.com")
		env.notifier.On("SendWelcome", mock.Anything, "jane@example.com", "Jane").Return(nil).Once()

		user, err := env.workflow.VerifyEmail(context.Background(), auth.VerifyEmailMessage{Code: "123456"})
		require.NoError(t, err)
		assert.True(t, user.IsVerified)

		stored := env.user(t, "jane@example.com")
		assert.True(t, stored.IsVerified)
		assert.Nil(t, stored.VerificationToken)
		assert.Nil(t, stored.VerificationTokenExpiresAt)

		_, err = env.workflow.VerifyEmail(context.Background(), auth.VerifyEmailMessage{Code: "123456"})
		requireTextCode(t, err, auth.TextCodeInvalidOrExpired, http.StatusBadRequest)

		env.notifier.AssertExpectations(t)
	})

	t.Run("rejects an expired code", func(t *testing.T) {
		env := newTestEnv(t, "123456")
		env.signup(t, "jane@example.com")

		env.clock.Advance(time.Hour + time.Minute)

		_, err := env.workflow.VerifyEmail(context.Background(), auth.VerifyEmailMessage{Code: "123456"})
		requireTextCode(t, err, auth.TextCodeInvalidOrExpired, http.StatusBadRequest)
		assert.False(t, env.user(t, "jane@example.com").IsVerified)
	})

	t.Run("rejects unknown and malformed codes", func(t *testing.T) {
		env := newTestEnv(t, "123456")
		env.signup(t, "jane@example.com")

		for _, code := range []string{"000000", "", "12ab56", "1234567"} {
			_, err := env.workflow.VerifyEmail(context.Background(), auth.VerifyEmailMessage{Code: code})
			requireTextCode(t, err, auth.TextCodeInvalidOrExpired, http.StatusBadRequest)
		}
	})

	t.Run("welcome email failure does not fail verification", func(t *testing.T) {
		env := newTestEnv(t, "123456")
		env.signup(t, "jane@example.com")
		env.notifier.On("SendWelcome", mock.Anything, "jane@example.com", "Jane").
			Return(errors.New("provider down")).Once()

		user, err := env.workflow.VerifyEmail(context.Background(), auth.VerifyEmailMessage{Code: "123456"})
		require.NoError(t, err)
		assert.True(t, user.IsVerified)
	})
}

func TestWorkflow_ResendVerification(t *testing.T) {
	t.Run("replaces the code with a 24 hour one", func(t *testing.T) {
		env := newTestEnv(t, "123456", "654321")
		env.signup(t, "jane@example.com")
		env.notifier.On("SendVerification", mock.Anything, "jane@example.com", "654321").Return(nil).Once()

		err := env.workflow.ResendVerification(context.Background(), auth.ResendVerificationMessage{Email: "jane@example.com"})
		require.NoError(t, err)

		stored := env.user(t, "jane@example.com")
		require.NotNil(t, stored.VerificationToken)
		assert.Equal(t, "654321", *stored.VerificationToken)
		assert.WithinDuration(t, env.clock.Now().Add(24*time.Hour), *stored.VerificationTokenExpiresAt, time.Second)

		_, err = env.workflow.VerifyEmail(context.Background(), auth.VerifyEmailMessage{Code: "123456"})
		requireTextCode(t, err, auth.TextCodeInvalidOrExpired, http.StatusBadRequest)
	})

	t.Run("unknown email", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.workflow.ResendVerification(context.Background(), auth.ResendVerificationMessage{Email: "ghost@example.com"})
		requireTextCode(t, err, auth.TextCodeNotFound, http.StatusNotFound)
	})

	t.Run("already verified", func(t *testing.T) {
		env := newTestEnv(t, "123456")
		env.signup(t, "jane@example.com")
		env.notifier.On("SendWelcome", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := env.workflow.VerifyEmail(context.Background(), auth.VerifyEmailMessage{Code: "123456"})
		require.NoError(t, err)

		err = env.workflow.ResendVerification(context.Background(), auth.ResendVerificationMessage{Email: "jane@example.com"})
		requireTextCode(t, err, auth.TextCodeAlreadyVerified, http.StatusBadRequest)
	})

	t.Run("reports delivery failures", func(t *testing.T) {
		env := newTestEnv(t, "123456", "654321")
		env.signup(t, "jane@example.com")
		env.notifier.On("SendVerification", mock.Anything, "jane@example.com", "654321").
			Return(errors.New("provider down")).Once()

		err := env.workflow.ResendVerification(context.Background(), auth.ResendVerificationMessage{Email: "jane@example.com"})
		requireTextCode(t, err, auth.TextCodeUpstreamFailure, http.StatusInternalServerError)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, "Failed to send verification email", richErr.Message)
	})
}

func TestWorkflow_Login(t *testing.T) {
	t.Run("issues both tokens and stores the refresh token", func(t *testing.T) {
		env := newTestEnv(t)
		signed := env.signup(t, "jane@example.com")

		resp, err := env.workflow.Login(context.Background(), auth.LoginMessage{
			Email:    "jane@example.com",
			Password: "s3cret-pass",
		})
		require.NoError(t, err)
		assert.Equal(t, signed.User.ID, resp.User.ID)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.NotEqual(t, resp.AccessToken, resp.RefreshToken)

		stored := env.user(t, "jane@example.com")
		require.NotNil(t, stored.RefreshToken)
		assert.Equal(t, resp.RefreshToken, *stored.RefreshToken)
		require.NotNil(t, stored.LastLogin)
		assert.WithinDuration(t, env.clock.Now(), *stored.LastLogin, time.Second)
	})

	t.Run("unknown email and wrong password look the same", func(t *testing.T) {
		env := newTestEnv(t)
		env.signup(t, "jane@example.com")

		_, errWrong := env.workflow.Login(context.Background(), auth.LoginMessage{
			Email:    "jane@example.com",
			Password: "wrong",
		})
		requireTextCode(t, errWrong, auth.TextCodeInvalidCredentials, http.StatusBadRequest)

		_, errUnknown := env.workflow.Login(context.Background(), auth.LoginMessage{
			Email:    "ghost@example.com",
			Password: "wrong",
		})
		requireTextCode(t, errUnknown, auth.TextCodeInvalidCredentials, http.StatusBadRequest)

		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("requires email and password", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.workflow.Login(context.Background(), auth.LoginMessage{Email: "jane@example.com"})
		requireTextCode(t, err, auth.TextCodeValidation, http.StatusBadRequest)
	})
}

func TestWorkflow_LogoutAndRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "jane@example.com")

	login, err := env.workflow.Login(context.Background(), auth.LoginMessage{
		Email:    "jane@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	access, err := env.workflow.RefreshAccessToken(context.Background(), login.RefreshToken)
	require.NoError(t, err)

	claims, err := env.tokens.Verify(access)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID.String(), claims.UserID())

	userID := login.User.ID.String()
	require.NoError(t, env.workflow.Logout(context.Background(), userID))
	require.NoError(t, env.workflow.Logout(context.Background(), userID))
	require.NoError(t, env.workflow.Logout(context.Background(), ""))

	assert.Nil(t, env.user(t, "jane@example.com").RefreshToken)

	_, err = env.workflow.RefreshAccessToken(context.Background(), login.RefreshToken)
	requireTextCode(t, err, auth.TextCodeInvalidToken, http.StatusUnauthorized)
}

func TestWorkflow_RefreshAccessToken(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.workflow.RefreshAccessToken(context.Background(), "")
		requireTextCode(t, err, auth.TextCodeUnauthenticated, http.StatusUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.workflow.RefreshAccessToken(context.Background(), "not.a.jwt")
		requireTextCode(t, err, auth.TextCodeInvalidToken, http.StatusUnauthorized)
	})

	t.Run("a newer login replaces the stored token", func(t *testing.T) {
		env := newTestEnv(t)
		env.signup(t, "jane@example.com")
		msg := auth.LoginMessage{Email: "jane@example.com", Password: "s3cret-pass"}

		first, err := env.workflow.Login(context.Background(), msg)
		require.NoError(t, err)
		second, err := env.workflow.Login(context.Background(), msg)
		require.NoError(t, err)

		_, err = env.workflow.RefreshAccessToken(context.Background(), first.RefreshToken)
		requireTextCode(t, err, auth.TextCodeInvalidToken, http.StatusUnauthorized)

		_, err = env.workflow.RefreshAccessToken(context.Background(), second.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		env := newTestEnv(t)
		env.signup(t, "jane@example.com")

		login, err := env.workflow.Login(context.Background(), auth.LoginMessage{Email: "jane@example.com", Password: "s3cret-pass"})
		require.NoError(t, err)

		env.clock.Advance(8 * 24 * time.Hour)

		_, err = env.workflow.RefreshAccessToken(context.Background(), login.RefreshToken)
		requireTextCode(t, err, auth.TextCodeInvalidToken, http.StatusUnauthorized)
	})

	t.Run("token for an unknown user", func(t *testing.T) {
		env := newTestEnv(t)
		token, err := env.tokens.IssueRefreshToken(uuid.NewString())
		require.NoError(t, err)

		_, err = env.workflow.RefreshAccessToken(context.Background(), token)
		requireTextCode(t, err, auth.TextCodeInvalidToken, http.StatusUnauthorized)
	})
}

func TestWorkflow_PasswordReset(t *testing.T) {
	t.Run("resets with a valid code", func(t *testing.T) {
		env := newTestEnv(t, "123456", "777777")
		env.signup(t, "jane@example.com")
		env.notifier.On("SendPasswordReset", mock.Anything, "jane@example.com", "777777").Return(nil).Once()
		env.notifier.On("SendPasswordResetSuccess", mock.Anything, "jane@example.com").Return(nil).Once()

		err := env.workflow.ForgotPassword(context.Background(), auth.InitializePasswordResetMessage{Email: "jane@example.com"})
		require.NoError(t, err)

		stored := env.user(t, "jane@example.com")
		require.NotNil(t, stored.ResetPasswordCode)
		assert.Equal(t, "777777", *stored.ResetPasswordCode)
		assert.WithinDuration(t, env.clock.Now().Add(time.Hour), *stored.ResetPasswordCodeExpiresAt, time.Second)

		err = env.workflow.ResetPasswordByCode(context.Background(), auth.FinalizePasswordResetMessage{
			Email:       "jane@example.com",
			Code:        "000000",
			NewPassword: "brand-new",
		})
		requireTextCode(t, err, auth.TextCodeInvalidOrExpired, http.StatusBadRequest)

		err = env.workflow.ResetPasswordByCode(context.Background(), auth.FinalizePasswordResetMessage{
			Email:       "jane@example.com",
			Code:        "777777",
			NewPassword: "brand-new",
		})
		require.NoError(t, err)

		stored = env.user(t, "jane@example.com")
		assert.Nil(t, stored.ResetPasswordCode)
		assert.Nil(t, stored.ResetPasswordCodeExpiresAt)

		_, err = env.workflow.Login(context.Background(), auth.LoginMessage{Email: "jane@example.com", Password: "s3cret-pass"})
		requireTextCode(t, err, auth.TextCodeInvalidCredentials, http.StatusBadRequest)

		_, err = env.workflow.Login(context.Background(), auth.LoginMessage{Email: "jane@example.com", Password: "brand-new"})
		require.NoError(t, err)

		err = env.workflow.ResetPasswordByCode(context.Background(), auth.FinalizePasswordResetMessage{
			Email:       "jane@example.com",
			Code:        "777777",
			NewPassword: "again",
		})
		requireTextCode(t, err, auth.TextCodeInvalidOrExpired, http.StatusBadRequest)

		env.notifier.AssertExpectations(t)
	})

	t.Run("expired reset code", func(t *testing.T) {
		env := newTestEnv(t, "123456", "777777")
		env.signup(t, "jane@example.com")
		env.notifier.On("SendPasswordReset", mock.Anything, "jane@example.com", "777777").Return(nil).Once()

		require.NoError(t, env.workflow.ForgotPassword(context.Background(), auth.InitializePasswordResetMessage{Email: "jane@example.com"}))

		env.clock.Advance(2 * time.Hour)

		err := env.workflow.ResetPasswordByCode(context.Background(), auth.FinalizePasswordResetMessage{
			Email:       "jane@example.com",
			Code:        "777777",
			NewPassword: "brand-new",
		})
		requireTextCode(t, err, auth.TextCodeInvalidOrExpired, http.StatusBadRequest)
	})

	t.Run("code belongs to another email", func(t *testing.T) {
		env := newTestEnv(t, "123456", "777777", "111111")
		env.signup(t, "jane@example.com")
		env.signup(t, "john@example.com")
		env.notifier.On("SendPasswordReset", mock.Anything, "jane@example.com", mock.Anything).Return(nil).Once()

		require.NoError(t, env.workflow.ForgotPassword(context.Background(), auth.InitializePasswordResetMessage{Email: "jane@example.com"}))
		code := *env.user(t, "jane@example.com").ResetPasswordCode

		err := env.workflow.ResetPasswordByCode(context.Background(), auth.FinalizePasswordResetMessage{
			Email:       "john@example.com",
			Code:        code,
			NewPassword: "brand-new",
		})
		requireTextCode(t, err, auth.TextCodeInvalidOrExpired, http.StatusBadRequest)
	})

	t.Run("unknown email", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.workflow.ForgotPassword(context.Background(), auth.InitializePasswordResetMessage{Email: "ghost@example.com"})
		requireTextCode(t, err, auth.TextCodeNotFound, http.StatusNotFound)
	})

	t.Run("reports delivery failures", func(t *testing.T) {
		env := newTestEnv(t)
		env.signup(t, "jane@example.com")
		env.notifier.On("SendPasswordReset", mock.Anything, "jane@example.com", mock.Anything).
			Return(errors.New("provider down")).Once()

		err := env.workflow.ForgotPassword(context.Background(), auth.InitializePasswordResetMessage{Email: "jane@example.com"})
		requireTextCode(t, err, auth.TextCodeUpstreamFailure, http.StatusInternalServerError)
	})
}

func TestWorkflow_CheckAuth(t *testing.T) {
	env := newTestEnv(t)
	signed := env.signup(t, "jane@example.com")

	user, err := env.workflow.CheckAuth(context.Background(), signed.User.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)

	_, err = env.workflow.CheckAuth(context.Background(), "")
	requireTextCode(t, err, auth.TextCodeUnauthenticated, http.StatusUnauthorized)

	_, err = env.workflow.CheckAuth(context.Background(), uuid.NewString())
	requireTextCode(t, err, auth.TextCodeNotFound, http.StatusNotFound)
}
