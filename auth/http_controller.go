package auth

import (
	"fmt"

	"github.com/goliatone/go-blogify/logging"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type ControllerRoutes struct {
	Signup             string
	Login              string
	Logout             string
	RefreshToken       string
	VerifyEmail        string
	ResendVerification string
	ForgotPassword     string
	ResetPasswordCode  string
	CheckAuth          string
}

func DefaultControllerRoutes() ControllerRoutes {
	return ControllerRoutes{
		Signup:             "/signup",
		Login:              "/login",
		Logout:             "/logout",
		RefreshToken:       "/refresh-token",
		VerifyEmail:        "/verify-email",
		ResendVerification: "/resend-verification",
		ForgotPassword:     "/forgot-password",
		ResetPasswordCode:  "/reset-password-by-code",
		CheckAuth:          "/check-auth",
	}
}

type Controller struct {
	Debug    bool
	Logger   logging.Logger
	Workflow *Workflow
	Cookies  CookieConfig
	Routes   ControllerRoutes
}

func NewController(workflow *Workflow, cookies CookieConfig, logger logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Default("auth")
	}
	return &Controller{
		Logger:   logger,
		Workflow: workflow,
		Cookies:  cookies,
		Routes:   DefaultControllerRoutes(),
	}
}

// RateLimitedRoutes lists the endpoints that send email or check
// passwords, each one gets its own limiter bucket
func (a *Controller) RateLimitedRoutes() []string {
	return []string{
		a.Routes.Login,
		a.Routes.ResendVerification,
		a.Routes.ForgotPassword,
	}
}

// RegisterAuthRoutes mounts the auth endpoints on app
func RegisterAuthRoutes[T any](app router.Router[T], a *Controller) {
	tokens := a.Workflow.Tokens()

	app.Post(a.Routes.Signup, a.Signup).SetName("auth.signup")
	app.Post(a.Routes.Login, a.Login).SetName("auth.login")
	app.Post(a.Routes.Logout, a.Logout, OptionalRoute(tokens)).SetName("auth.logout")
	app.Post(a.Routes.RefreshToken, a.RefreshToken).SetName("auth.refresh-token")
	app.Post(a.Routes.VerifyEmail, a.VerifyEmail).SetName("auth.verify-email")
	app.Post(a.Routes.ResendVerification, a.ResendVerification).SetName("auth.resend-verification")
	app.Post(a.Routes.ForgotPassword, a.ForgotPassword).SetName("auth.forgot-password")
	app.Post(a.Routes.ResetPasswordCode, a.ResetPasswordByCode).SetName("auth.reset-password")
	app.Get(a.Routes.CheckAuth, a.CheckAuth, ProtectedRoute(tokens)).SetName("auth.check-auth")
}

func (a *Controller) Signup(c router.Context) error {
	payload := new(SignupMessage)
	if err := a.bind(c, payload); err != nil {
		return err
	}

	resp, err := a.Workflow.Signup(c.Context(), *payload)
	if err != nil {
		a.Logger.Error("signup error: %v", err)
		return err
	}

	SetAccessCookie(c, a.Cookies, resp.AccessToken, a.Workflow.Tokens().AccessTTL())

	a.dump("signup", resp.User)

	return c.JSON(router.StatusCreated, router.ViewContext{
		"success": true,
		"message": "User created successfully",
		"user":    resp.User,
	})
}

// VerifyEmailPayload accepts the code under either field name
type VerifyEmailPayload struct {
	Code             string `json:"code" form:"code"`
	VerificationCode string `json:"verificationCode" form:"verificationCode"`
}

func (a *Controller) VerifyEmail(c router.Context) error {
	payload := new(VerifyEmailPayload)
	if err := a.bind(c, payload); err != nil {
		return err
	}

	code := payload.Code
	if code == "" {
		code = payload.VerificationCode
	}

	user, err := a.Workflow.VerifyEmail(c.Context(), VerifyEmailMessage{Code: code})
	if err != nil {
		return err
	}

	return c.JSON(router.StatusOK, router.ViewContext{
		"success": true,
		"message": "Email verified successfully",
		"user":    user,
	})
}

func (a *Controller) ResendVerification(c router.Context) error {
	payload := new(ResendVerificationMessage)
	if err := a.bind(c, payload); err != nil {
		return err
	}

	if err := a.Workflow.ResendVerification(c.Context(), *payload); err != nil {
		return err
	}

	return c.JSON(router.StatusOK, router.ViewContext{
		"success": true,
		"message": "Verification email resent",
	})
}

func (a *Controller) Login(c router.Context) error {
	payload := new(LoginMessage)
	if err := a.bind(c, payload); err != nil {
		return err
	}

	resp, err := a.Workflow.Login(c.Context(), *payload)
	if err != nil {
		return err
	}

	tokens := a.Workflow.Tokens()
	SetAccessCookie(c, a.Cookies, resp.AccessToken, tokens.AccessTTL())
	SetRefreshCookie(c, a.Cookies, resp.RefreshToken, tokens.RefreshTTL())

	return c.JSON(router.StatusOK, router.ViewContext{
		"success": true,
		"message": "Logged in successfully",
		"user":    resp.User,
	})
}

func (a *Controller) Logout(c router.Context) error {
	if err := a.Workflow.Logout(c.Context(), CurrentUserID(c)); err != nil {
		return err
	}

	ClearSessionCookies(c, a.Cookies)

	return c.JSON(router.StatusOK, router.ViewContext{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (a *Controller) ForgotPassword(c router.Context) error {
	payload := new(InitializePasswordResetMessage)
	if err := a.bind(c, payload); err != nil {
		return err
	}

	if err := a.Workflow.ForgotPassword(c.Context(), *payload); err != nil {
		return err
	}

	return c.JSON(router.StatusOK, router.ViewContext{
		"success": true,
		"message": "Password reset code sent to your email address successfully",
	})
}

func (a *Controller) ResetPasswordByCode(c router.Context) error {
	payload := new(FinalizePasswordResetMessage)
	if err := a.bind(c, payload); err != nil {
		return err
	}

	if err := a.Workflow.ResetPasswordByCode(c.Context(), *payload); err != nil {
		return err
	}

	return c.JSON(router.StatusOK, router.ViewContext{
		"success": true,
		"message": "Password reset successfully",
	})
}

func (a *Controller) RefreshToken(c router.Context) error {
	accessToken, err := a.Workflow.RefreshAccessToken(c.Context(), c.Cookies(RefreshTokenCookie))
	if err != nil {
		return err
	}

	SetAccessCookie(c, a.Cookies, accessToken, a.Workflow.Tokens().AccessTTL())

	return c.JSON(router.StatusOK, router.ViewContext{
		"success": true,
		"message": "Access token refreshed",
	})
}

func (a *Controller) CheckAuth(c router.Context) error {
	user, err := a.Workflow.CheckAuth(c.Context(), CurrentUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(router.StatusOK, router.ViewContext{
		"success": true,
		"user":    user,
	})
}

func (a *Controller) bind(c router.Context, payload any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.Bind(payload); err != nil {
		a.Logger.Error("parse payload: %v", err)
		return BadRequest("Invalid request body")
	}
	return nil
}

func (a *Controller) dump(label string, v any) {
	if !a.Debug {
		return
	}
	fmt.Println("======= " + label + " =======")
	fmt.Println(print.MaybePrettyJSON(v))
	fmt.Println("=============================")
}
