package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-blogify/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	ctx := context.Background()

	db, err := Open(Config{Driver: DriverSQLite, DSN: ":memory:"}, logging.Nop{})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Ping(ctx, db))

	applied, err := Migrate(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"20250101000001_create_users",
		"20250101000002_create_blogs",
		"20250101000003_add_blog_search_keys",
	}, applied)

	again, err := Migrate(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, again)

	var count int
	err = db.NewRaw("SELECT COUNT(*) FROM blogs").Scan(ctx, &count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRollback(t *testing.T) {
	ctx := context.Background()

	db, err := Open(Config{Driver: DriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = Migrate(ctx, db)
	require.NoError(t, err)

	reverted, err := Rollback(ctx, db)
	require.NoError(t, err)
	assert.Len(t, reverted, 3)

	_, err = db.ExecContext(ctx, "SELECT 1 FROM users")
	assert.Error(t, err)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"}, logging.Nop{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestIsUniqueViolation(t *testing.T) {
	ctx := context.Background()

	db, err := Open(Config{Driver: DriverSQLite, DSN: ":memory:"}, logging.Nop{})
	require.NoError(t, err)
	defer db.Close()

	_, err = Migrate(ctx, db)
	require.NoError(t, err)

	insert := "INSERT INTO users (id, email, password_hash, first_name, last_name) VALUES (?, ?, 'x', 'a', 'b')"
	_, err = db.ExecContext(ctx, insert, "1", "dup@example.com")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "2", "dup@example.com")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(sql.ErrNoRows))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", sql.ErrNoRows)))
	assert.False(t, IsNotFound(errors.New("other")))
	assert.False(t, IsNotFound(nil))
}
