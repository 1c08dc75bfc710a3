package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/micropost/micropost/internal/model"
	"github.com/micropost/micropost/internal/repository/migrations"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema rolls every migration back and re-applies it.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	provider, closeDB, err := migrations.NewProvider(pool)
	if err != nil {
		return err
	}
	defer closeDB()

	if _, err := provider.DownTo(ctx, 0); err != nil {
		return fmt.Errorf("roll back migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a user with a unique email and no password.
func NewTestUser(t testing.TB, name string) *model.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := ulid.Make().String()
	return &model.User{
		ID:        id,
		Name:      name,
		Email:     fmt.Sprintf("%s-%s@example.com", strings.ToLower(name), strings.ToLower(id)),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestPost creates a post by authorID at the given time.
func NewTestPost(t testing.TB, authorID, content string, at time.Time) *model.Post {
	t.Helper()
	return &model.Post{
		ID:        ulid.Make().String(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: at.UTC().Truncate(time.Microsecond),
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
