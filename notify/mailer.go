package notify

import (
	"context"
	"strconv"
	"time"

	"github.com/goliatone/go-blogify/auth"
	"github.com/goliatone/go-blogify/logging"
)

const (
	SubjectVerification         = "Verify your email"
	SubjectWelcome              = "Welcome to our app!"
	SubjectPasswordReset        = "Reset your password"
	SubjectPasswordResetSuccess = "Password Reset Successful"
)

// Config holds the values shared by every template
type Config struct {
	AppName   string
	ClientURL string
	ResetTTL  time.Duration
}

// Mailer renders the auth emails and hands them to a Sender
type Mailer struct {
	sender   Sender
	renderer *Renderer
	config   Config
	logger   logging.Logger
}

var _ auth.Notifier = (*Mailer)(nil)

func NewMailer(sender Sender, config Config, logger logging.Logger) *Mailer {
	if logger == nil {
		logger = logging.Default("notify")
	}
	if config.AppName == "" {
		config.AppName = "Blogify"
	}
	if config.ResetTTL <= 0 {
		config.ResetTTL = time.Hour
	}
	return &Mailer{
		sender:   sender,
		renderer: NewRenderer(),
		config:   config,
		logger:   logger,
	}
}

func (m *Mailer) SendVerification(ctx context.Context, to, code string) error {
	return m.send(ctx, to, SubjectVerification, TemplateVerification, map[string]any{
		"code": code,
	})
}

func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	return m.send(ctx, to, SubjectWelcome, TemplateWelcome, map[string]any{
		"name": name,
	})
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, code string) error {
	return m.send(ctx, to, SubjectPasswordReset, TemplatePasswordReset, map[string]any{
		"code": code,
	})
}

func (m *Mailer) SendPasswordResetSuccess(ctx context.Context, to string) error {
	return m.send(ctx, to, SubjectPasswordResetSuccess, TemplatePasswordResetSuccess, nil)
}

func (m *Mailer) send(ctx context.Context, to, subject, template string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	data["app_name"] = m.config.AppName
	data["client_url"] = m.config.ClientURL
	data["expires_in"] = humanize(m.config.ResetTTL)

	html, err := m.renderer.Render(template, data)
	if err != nil {
		return err
	}

	if err := m.sender.Send(ctx, Message{To: to, Subject: subject, HTML: html}); err != nil {
		m.logger.Error("send %s email to %s: %v", template, to, err)
		return err
	}

	m.logger.Debug("sent %s email to %s", template, to)
	return nil
}

func humanize(d time.Duration) string {
	switch {
	case d%(24*time.Hour) == 0:
		return plural(int(d/(24*time.Hour)), "day")
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d.Round(time.Minute)/time.Minute), "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
