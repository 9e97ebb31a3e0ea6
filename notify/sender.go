package notify

import (
	"context"

	"github.com/goliatone/go-blogify/logging"
)

// Message is a single rendered email
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered message
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender only logs outgoing mail, used when no provider key is set
type LogSender struct {
	Logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default("notify")
	}
	return &LogSender{Logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Logger.Info("email to=%s subject=%q (delivery disabled)", msg.To, msg.Subject)
	s.Logger.Debug("email body: %s", msg.HTML)
	return nil
}
