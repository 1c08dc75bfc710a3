package service

import (
	"context"
	"time"

	"github.com/micropost/micropost/internal/model"
)

// UserStore persists user identities.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	SetAdmin(ctx context.Context, userID string, admin bool, at time.Time) error
	DeleteUser(ctx context.Context, userID string) error
}

// CredentialRepository is the storage the credential store needs.
type CredentialRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string, at time.Time) error
}

// FollowStore persists directed follow edges with an index per direction.
type FollowStore interface {
	InsertFollow(ctx context.Context, edge model.FollowEdge) (bool, error)
	DeleteFollow(ctx context.Context, followerID, followedID string) (bool, error)
	FollowExists(ctx context.Context, followerID, followedID string) (bool, error)
	ListFollowing(ctx context.Context, userID string) ([]string, error)
	ListFollowers(ctx context.Context, userID string) ([]string, error)
}

// PostStore persists posts and answers the author-set query.
type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) error
	PostsByAuthors(ctx context.Context, authorIDs []string) ([]*model.Post, error)
}

// FollowCache caches adjacency lists. Get reports a miss as
// cache.ErrCacheMiss along with the list version; Set drops the fill when
// an invalidation has bumped that version since the miss.
type FollowCache interface {
	GetFollowing(ctx context.Context, userID string) ([]string, int64, error)
	SetFollowing(ctx context.Context, userID string, ids []string, version int64) error
	GetFollowers(ctx context.Context, userID string) ([]string, int64, error)
	SetFollowers(ctx context.Context, userID string, ids []string, version int64) error
	InvalidateFollow(ctx context.Context, followerID, followedID string) error
	InvalidateUser(ctx context.Context, userID string) error
}

// LoginLimiter throttles authentication attempts per hashed account key.
// A throttled attempt reports how long until the next one is allowed.
type LoginLimiter interface {
	AllowLogin(ctx context.Context, key string) (bool, time.Duration, error)
}
