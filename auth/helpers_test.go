package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-blogify/auth"
	"github.com/goliatone/go-blogify/logging"
	"github.com/goliatone/go-blogify/persistence"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// MockNotifier implements auth.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendVerification(ctx context.Context, to, code string) error {
	args := m.Called(ctx, to, code)
	return args.Error(0)
}

func (m *MockNotifier) SendWelcome(ctx context.Context, to, name string) error {
	args := m.Called(ctx, to, name)
	return args.Error(0)
}

func (m *MockNotifier) SendPasswordReset(ctx context.Context, to, code string) error {
	args := m.Called(ctx, to, code)
	return args.Error(0)
}

func (m *MockNotifier) SendPasswordResetSuccess(ctx context.Context, to string) error {
	args := m.Called(ctx, to)
	return args.Error(0)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// codeSequence hands out the given codes in order, repeating the last one
func codeSequence(codes ...string) auth.CodeGenerator {
	var mu sync.Mutex
	i := 0
	return auth.CodeGeneratorFunc(func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return code, nil
	})
}

type testEnv struct {
	db       *bun.DB
	repo     auth.RepositoryManager
	tokens   auth.TokenService
	notifier *MockNotifier
	clock    *testClock
	workflow *auth.Workflow
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := persistence.Open(persistence.Config{
		Driver: persistence.DriverSQLite,
		DSN:    ":memory:",
	}, logging.Nop{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = persistence.Migrate(context.Background(), db)
	require.NoError(t, err)

	return db
}

func newTestEnv(t *testing.T, codes ...string) *testEnv {
	t.Helper()

	if len(codes) == 0 {
		codes = []string{"123456"}
	}

	db := newTestDB(t)
	clock := newTestClock()

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		SigningKey: []byte("test-signing-key"),
		Now:        clock.Now,
	}, logging.Nop{})
	require.NoError(t, err)

	repo := auth.NewRepositoryManager(db, auth.WithUsersClock(clock.Now))
	repo.MustValidate()

	notifier := &MockNotifier{}

	workflow := auth.NewWorkflow(repo, tokens, notifier,
		auth.WithCodeGenerator(codeSequence(codes...)),
		auth.WithPasswordHasher(auth.NewBcryptHasher(4)),
		auth.WithLogger(logging.Nop{}),
		auth.WithClock(clock.Now),
	)

	return &testEnv{
		db:       db,
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		clock:    clock,
		workflow: workflow,
	}
}

func (e *testEnv) signup(t *testing.T, email string) *auth.SignupResponse {
	t.Helper()

	e.notifier.On("SendVerification", mock.Anything, email, mock.Anything).Return(nil).Once()

	resp, err := e.workflow.Signup(context.Background(), auth.SignupMessage{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     email,
		Password:  "s3cret-pass",
	})
	require.NoError(t, err)
	return resp
}

func (e *testEnv) user(t *testing.T, email string) *auth.User {
	t.Helper()
	user, err := e.repo.Users().GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return user
}

func requireTextCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr), "expected rich error, got %T: %v", err, err)
	require.Equal(t, code, richErr.TextCode, "message: %s", richErr.Message)
	require.Equal(t, status, richErr.Code)
}
