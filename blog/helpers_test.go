package blog_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-blogify/auth"
	"github.com/goliatone/go-blogify/blog"
	"github.com/goliatone/go-blogify/logging"
	"github.com/goliatone/go-blogify/persistence"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type testEnv struct {
	db      *bun.DB
	users   auth.Users
	repo    blog.Blogs
	service *blog.Service
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := persistence.Open(persistence.Config{
		Driver: persistence.DriverSQLite,
		DSN:    ":memory:",
	}, logging.Nop{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = persistence.Migrate(context.Background(), db)
	require.NoError(t, err)

	env := &testEnv{
		db:    db,
		users: auth.NewUsersRepository(db),
		now:   time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	// every insert moves the clock so created_at ordering is stable
	env.repo = blog.NewBlogsRepository(db, blog.WithBlogsClock(func() time.Time {
		env.now = env.now.Add(time.Minute)
		return env.now
	}))
	env.service = blog.NewService(env.repo, blog.WithLogger(logging.Nop{}))

	return env
}

func (e *testEnv) author(t *testing.T, email, first string) string {
	t.Helper()
	user, err := e.users.Register(context.Background(), &auth.User{
		Email:        email,
		PasswordHash: "hash",
		FirstName:    first,
		LastName:     "Writer",
	})
	require.NoError(t, err)
	return user.ID.String()
}

func (e *testEnv) create(t *testing.T, authorID, title, body string, tags ...string) *blog.Blog {
	t.Helper()
	created, err := e.service.Create(context.Background(), authorID, blog.CreateMessage{
		Title: title,
		Body:  body,
		Tags:  blog.NewTags(tags...),
	})
	require.NoError(t, err)
	return created
}

func (e *testEnv) publish(t *testing.T, authorID, id string) *blog.Blog {
	t.Helper()
	published, err := e.service.Publish(context.Background(), authorID, id)
	require.NoError(t, err)
	return published
}

func requireTextCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr), "expected rich error, got %T: %v", err, err)
	require.Equal(t, code, richErr.TextCode, "message: %s", richErr.Message)
}

func strPtr(s string) *string { return &s }
