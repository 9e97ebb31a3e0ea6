package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-blogify/logging"
	goerrors "github.com/goliatone/go-errors"
)

const (
	DefaultVerificationTTL       = time.Hour
	DefaultResendVerificationTTL = 24 * time.Hour
	DefaultPasswordResetTTL      = time.Hour
	DefaultOperationTimeout      = 10 * time.Second
)

// Workflow runs the account lifecycle operations. Every operation
// returns a result or a *goerrors.Error carrying the HTTP status.
type Workflow struct {
	repo     RepositoryManager
	tokens   TokenService
	notifier Notifier
	codes    CodeGenerator
	hasher   PasswordHasher
	logger   logging.Logger
	now      func() time.Time

	timeout               time.Duration
	verificationTTL       time.Duration
	resendVerificationTTL time.Duration
	passwordResetTTL      time.Duration
	useHashid             bool
}

type WorkflowOption func(*Workflow)

func WithCodeGenerator(codes CodeGenerator) WorkflowOption {
	return func(w *Workflow) {
		if codes != nil {
			w.codes = codes
		}
	}
}

func WithPasswordHasher(hasher PasswordHasher) WorkflowOption {
	return func(w *Workflow) {
		if hasher != nil {
			w.hasher = hasher
		}
	}
}

func WithLogger(logger logging.Logger) WorkflowOption {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithClock(now func() time.Time) WorkflowOption {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

func WithOperationTimeout(timeout time.Duration) WorkflowOption {
	return func(w *Workflow) {
		if timeout > 0 {
			w.timeout = timeout
		}
	}
}

// WithCodeTTLs overrides the signup, resend and reset code lifetimes,
// zero values keep the defaults
func WithCodeTTLs(verification, resend, reset time.Duration) WorkflowOption {
	return func(w *Workflow) {
		if verification > 0 {
			w.verificationTTL = verification
		}
		if resend > 0 {
			w.resendVerificationTTL = resend
		}
		if reset > 0 {
			w.passwordResetTTL = reset
		}
	}
}

// WithHashid derives user ids from the email address
func WithHashid(enabled bool) WorkflowOption {
	return func(w *Workflow) {
		w.useHashid = enabled
	}
}

func NewWorkflow(repo RepositoryManager, tokens TokenService, notifier Notifier, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		repo:                  repo,
		tokens:                tokens,
		notifier:              notifier,
		codes:                 NewCodeGenerator(),
		hasher:                NewBcryptHasher(DefaultHashCost),
		logger:                logging.Default("auth"),
		now:                   time.Now,
		timeout:               DefaultOperationTimeout,
		verificationTTL:       DefaultVerificationTTL,
		resendVerificationTTL: DefaultResendVerificationTTL,
		passwordResetTTL:      DefaultPasswordResetTTL,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	return w
}

// Tokens exposes the token service used to mint session cookies
func (w *Workflow) Tokens() TokenService {
	return w.tokens
}

func (w *Workflow) begin(ctx context.Context, operation string) (context.Context, context.CancelFunc, error) {
	select {
	case <-ctx.Done():
		return ctx, func() {}, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during "+operation,
		)
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	return ctx, cancel, nil
}

func (w *Workflow) fail(err error, message string) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return Internal(err, message)
}

func (w *Workflow) clock() time.Time {
	return w.now().UTC()
}

func (w *Workflow) newCode() (string, error) {
	code, err := w.codes.Generate()
	if err != nil {
		return "", Internal(err, "failed to generate code")
	}
	return code, nil
}
