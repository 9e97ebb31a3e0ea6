package auth

import "context"

// Notifier delivers the transactional emails of the auth flows
type Notifier interface {
	SendVerification(ctx context.Context, to, code string) error
	SendWelcome(ctx context.Context, to, name string) error
	SendPasswordReset(ctx context.Context, to, code string) error
	SendPasswordResetSuccess(ctx context.Context, to string) error
}
