package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/resend/resend-go/v2"
)

// DefaultFrom is the sender used when none is configured
const DefaultFrom = "Blogify <onboarding@resend.dev>"

// ResendSender delivers mail through the Resend API
type ResendSender struct {
	client *resend.Client
	from   string
}

type ResendOption func(*ResendSender)

// WithFrom overrides the sender address
func WithFrom(from string) ResendOption {
	return func(s *ResendSender) {
		if from != "" {
			s.from = from
		}
	}
}

// WithHTTPClient swaps the transport used by the Resend client
func WithHTTPClient(httpClient *http.Client) ResendOption {
	return func(s *ResendSender) {
		base := s.client.BaseURL
		s.client = resend.NewCustomClient(httpClient, s.client.ApiKey)
		s.client.BaseURL = base
	}
}

// WithClient replaces the Resend client, tests point its BaseURL
// at a local server
func WithClient(client *resend.Client) ResendOption {
	return func(s *ResendSender) {
		if client != nil {
			s.client = client
		}
	}
}

func NewResendSender(apiKey string, opts ...ResendOption) *ResendSender {
	s := &ResendSender{
		client: resend.NewClient(apiKey),
		from:   DefaultFrom,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ResendSender) From() string {
	return s.from
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend: send %q to %s: %w", msg.Subject, msg.To, err)
	}
	return nil
}
