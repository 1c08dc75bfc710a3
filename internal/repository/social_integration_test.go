//go:build integration

package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/micropost/micropost/internal/model"
	"github.com/micropost/micropost/internal/testutil"
)

// ============================================================================
// User Repository Integration Tests
// ============================================================================

func TestIntegrationUserRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newSocialTestEnv(t)

	user := testutil.NewTestUser(t, "alice")
	user.PasswordHash = "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA"

	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byID, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Name != user.Name || byID.PasswordHash != user.PasswordHash {
		t.Errorf("GetUserByID = %+v, want %+v", byID, user)
	}

	byEmail, err := repo.GetUserByEmail(ctx, strings.ToUpper(user.Email))
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("GetUserByEmail ID = %q, want %q", byEmail.ID, user.ID)
	}
}

func TestIntegrationUserRepository_DuplicateEmailIgnoresCase(t *testing.T) {
	ctx, repo := newSocialTestEnv(t)

	first := testutil.NewTestUser(t, "bob")
	if err := repo.CreateUser(ctx, first); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	second := testutil.NewTestUser(t, "bob")
	second.Email = strings.ToUpper(first.Email)

	err := repo.CreateUser(ctx, second)
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got: %v", err)
	}
}

func TestIntegrationUserRepository_NotFound(t *testing.T) {
	ctx, repo := newSocialTestEnv(t)

	if _, err := repo.GetUserByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUserByID: expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.GetUserByEmail(ctx, "missing@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUserByEmail: expected ErrUserNotFound, got %v", err)
	}
	if err := repo.UpdatePasswordHash(ctx, "missing", "x", time.Now()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdatePasswordHash: expected ErrUserNotFound, got %v", err)
	}
	if err := repo.DeleteUser(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("DeleteUser: expected ErrUserNotFound, got %v", err)
	}
}

func TestIntegrationUserRepository_UpdatePasswordHashAndAdmin(t *testing.T) {
	ctx, repo := newSocialTestEnv(t)

	user := testutil.NewTestUser(t, "carol")
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	at := time.Now().UTC().Add(time.Minute).Truncate(time.Microsecond)
	if err := repo.UpdatePasswordHash(ctx, user.ID, "new-hash", at); err != nil {
		t.Fatalf("UpdatePasswordHash failed: %v", err)
	}
	if err := repo.SetAdmin(ctx, user.ID, true, at); err != nil {
		t.Fatalf("SetAdmin failed: %v", err)
	}

	got, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if got.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q, want new-hash", got.PasswordHash)
	}
	if !got.Admin {
		t.Error("Admin should be true")
	}
	if !got.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, at)
	}
}

func TestIntegrationUserRepository_GetUsersByIDs(t *testing.T) {
	ctx, repo := newSocialTestEnv(t)

	a := mustCreateUser(t, ctx, repo, "a")
	b := mustCreateUser(t, ctx, repo, "b")

	users, err := repo.GetUsersByIDs(ctx, []string{b.ID, a.ID, "missing"})
	if err != nil {
		t.Fatalf("GetUsersByIDs failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}
	if users[0].ID > users[1].ID {
		t.Error("Users should be ordered by ID")
	}
}

// ============================================================================
// Follow Repository Integration Tests
// ============================================================================

func TestIntegrationFollowRepository_InsertIsIdempotent(t *testing.T) {
	ctx, repo := newSocialTestEnv(t)

	a := mustCreateUser(t, ctx, repo, "a")
	b := mustCreateUser(t, ctx, repo, "b")
	edge := model.FollowEdge{FollowerID: a.ID, FollowedID: b.ID, CreatedAt: time.Now().UTC()}

	created, err := repo.InsertFollow(ctx, edge)
	if err != nil || !created {
		t.Fatalf("first InsertFollow = (%v, %v), want (true, nil)", created, err)
	}

	created, err = repo.InsertFollow(ctx, edge)
	if err != nil || created {
		t.Fatalf("second InsertFollow = (%v, %v), want (false, nil)", created, err)
	}

	following, err := repo.ListFollowing(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListFollowing failed: %v", err)
	}
	if len(following) != 1 || following[0] != b.ID {
		t.Errorf("ListFollowing = %v, want [%s]", following, b.ID)
	}

	followers, err := repo.ListFollowers(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListFollowers failed: %v", err)
	}
	if len(followers) != 1 || followers[0] != a.ID {
		t.Errorf("ListFollowers = %v, want [%s]", followers, a.ID)
	}
}

func TestIntegrationFollowRepository_Constraints(t *testing.T) {
	ctx, repo := newSocialTestEnv(t)

	a := mustCreateUser(t, ctx, repo, "a")

	_, err := repo.InsertFollow(ctx, model.FollowEdge{FollowerID: a.ID, FollowedID: a.ID, CreatedAt: time.Now()})
	if !errors.Is(err, ErrSelfFollow) {
		t.Errorf("self follow: expected ErrSelfFollow, got %v", err)
	}

	_, err = repo.InsertFollow(ctx, model.FollowEdge{FollowerID: a.ID, FollowedID: "missing", CreatedAt: time.Now()})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown followed: expected ErrUserNotFound, got %v", err)
	}
}

func TestIntegrationFollowRepository_Delete(t *testing.T) {
	ctx, repo := newSocialTestEnv(t)

	a := mustCreateUser(t, ctx, repo, "a")
	b := mustCreateUser(t, ctx, repo, "b")
	if _, err := repo.InsertFollow(ctx, model.FollowEdge{FollowerID: a.ID, FollowedID: b.ID, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("InsertFollow failed: %v", err)
	}

	deleted, err := repo.DeleteFollow(ctx, a.ID, b.ID)
	if err != nil || !deleted {
		t.Fatalf("first DeleteFollow = (%v, %v), want (true, nil)", deleted, err)
	}

	deleted, err = repo.DeleteFollow(ctx, a.ID, b.ID)
	if err != nil || deleted {
		t.Fatalf("second DeleteFollow = (%v, %v), want (false, nil)", deleted, err)
	}

	exists, err := repo.FollowExists(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("FollowExists failed: %v", err)
	}
	if exists {
		t.Error("Edge should not exist after delete")
	}
}

// ============================================================================
// Post Repository Integration Tests
// ============================================================================

func TestIntegrationPostRepository_PostsByAuthorsOrdering(t *testing.T) {
	ctx, repo := newSocialTestEnv(t)

	a := mustCreateUser(t, ctx, repo, "a")
	b := mustCreateUser(t, ctx, repo, "b")
	c := mustCreateUser(t, ctx, repo, "c")

	base := time.Now().UTC().Truncate(time.Second)
	posts := []*model.Post{
		testutil.NewTestPost(t, a.ID, "hello", base),
		testutil.NewTestPost(t, b.ID, "world", base.Add(time.Minute)),
		testutil.NewTestPost(t, c.ID, "hidden", base.Add(2*time.Minute)),
	}
	for _, p := range posts {
		if err := repo.CreatePost(ctx, p); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
	}

	got, err := repo.PostsByAuthors(ctx, []string{a.ID, b.ID})
	if err != nil {
		t.Fatalf("PostsByAuthors failed: %v", err)
	}

	var contents []string
	for _, p := range got {
		contents = append(contents, p.Content)
	}
	if strings.Join(contents, ",") != "world,hello" {
		t.Errorf("PostsByAuthors = %v, want [world hello]", contents)
	}
}

func TestIntegrationPostRepository_UnknownAuthor(t *testing.T) {
	ctx, repo := newSocialTestEnv(t)

	err := repo.CreatePost(ctx, testutil.NewTestPost(t, "missing", "hi", time.Now()))
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestIntegrationUserRepository_DeleteCascades(t *testing.T) {
	ctx, repo := newSocialTestEnv(t)

	a := mustCreateUser(t, ctx, repo, "a")
	b := mustCreateUser(t, ctx, repo, "b")
	if _, err := repo.InsertFollow(ctx, model.FollowEdge{FollowerID: a.ID, FollowedID: b.ID, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("InsertFollow failed: %v", err)
	}
	if err := repo.CreatePost(ctx, testutil.NewTestPost(t, b.ID, "bye", time.Now())); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if err := repo.DeleteUser(ctx, b.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	following, err := repo.ListFollowing(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListFollowing failed: %v", err)
	}
	if len(following) != 0 {
		t.Errorf("Edges should cascade, got %v", following)
	}

	posts, err := repo.PostsByAuthors(ctx, []string{b.ID})
	if err != nil {
		t.Fatalf("PostsByAuthors failed: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("Posts should cascade, got %d", len(posts))
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func mustCreateUser(t *testing.T, ctx context.Context, repo *Repository, name string) *model.User {
	t.Helper()
	user := testutil.NewTestUser(t, name)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", name, err)
	}
	return user
}

func newSocialTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, repo
}
