package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/micropost/micropost/internal/cache"
	"github.com/micropost/micropost/internal/metrics"
	"github.com/micropost/micropost/internal/model"
	"github.com/micropost/micropost/internal/repository"
)

// RelationshipService maintains the directed follow graph.
type RelationshipService struct {
	follows FollowStore
	users   UserStore
	cache   FollowCache
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewRelationshipService creates a new RelationshipService.
// A nil cache reads adjacency lists straight from the store.
func NewRelationshipService(follows FollowStore, users UserStore, followCache FollowCache, logger *slog.Logger, recorder metrics.Recorder) *RelationshipService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &RelationshipService{
		follows: follows,
		users:   users,
		cache:   followCache,
		logger:  logger.With("component", "relationship"),
		metrics: recorder,
		now:     time.Now,
	}
}

// Follow makes followerID follow followedID. Following twice is a no-op.
func (s *RelationshipService) Follow(ctx context.Context, followerID, followedID string) error {
	if followerID == followedID {
		return ErrSelfFollow
	}

	edge := model.FollowEdge{
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  s.now().UTC(),
	}

	created, err := s.follows.InsertFollow(ctx, edge)
	if err != nil {
		if errors.Is(err, repository.ErrSelfFollow) {
			return ErrSelfFollow
		}
		return wrapRepo("insert_follow", err)
	}

	s.invalidate(ctx, followerID, followedID)

	if created {
		s.metrics.IncFollowCreated()
		s.logger.Info("follow_created", "follower_id", followerID, "followed_id", followedID)
	}
	return nil
}

// Unfollow removes the edge if present. Unfollowing a non-edge is a no-op.
func (s *RelationshipService) Unfollow(ctx context.Context, followerID, followedID string) error {
	deleted, err := s.follows.DeleteFollow(ctx, followerID, followedID)
	if err != nil {
		return wrapRepo("delete_follow", err)
	}

	s.invalidate(ctx, followerID, followedID)

	if deleted {
		s.metrics.IncFollowRemoved()
		s.logger.Info("follow_removed", "follower_id", followerID, "followed_id", followedID)
	}
	return nil
}

// IsFollowing reports whether a follows b. It always reads the store.
func (s *RelationshipService) IsFollowing(ctx context.Context, a, b string) (bool, error) {
	exists, err := s.follows.FollowExists(ctx, a, b)
	if err != nil {
		return false, wrapRepo("follow_exists", err)
	}
	return exists, nil
}

// FollowingIDs returns the IDs userID follows.
func (s *RelationshipService) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return s.adjacency(ctx, userID, outgoing)
}

// FollowerIDs returns the IDs following userID.
func (s *RelationshipService) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return s.adjacency(ctx, userID, incoming)
}

// Following returns the users userID follows, ordered by ID.
func (s *RelationshipService) Following(ctx context.Context, userID string) ([]*model.User, error) {
	ids, err := s.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolveUsers(ctx, ids)
}

// Followers returns the users following userID, ordered by ID.
func (s *RelationshipService) Followers(ctx context.Context, userID string) ([]*model.User, error) {
	ids, err := s.FollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolveUsers(ctx, ids)
}

func (s *RelationshipService) resolveUsers(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, wrapRepo("get_users_by_ids", err)
	}
	return users, nil
}

type direction int

const (
	outgoing direction = iota // users I follow
	incoming                  // users following me
)

// adjacency is a read-through lookup. Cache failures fall back to the store.
// A fill is versioned so a list read before a concurrent follow commits is
// never cached after that follow's invalidation.
func (s *RelationshipService) adjacency(ctx context.Context, userID string, dir direction) ([]string, error) {
	fill := false
	var version int64

	if s.cache != nil {
		var ids []string
		var err error
		if dir == outgoing {
			ids, version, err = s.cache.GetFollowing(ctx, userID)
		} else {
			ids, version, err = s.cache.GetFollowers(ctx, userID)
		}
		switch {
		case err == nil:
			s.metrics.IncFollowCacheHit()
			return ids, nil
		case errors.Is(err, cache.ErrCacheMiss):
			fill = true
		default:
			// Version unknown, skip the fill.
			s.logger.Warn("follow_cache_read_failed", "user_id", userID, "error", err)
		}
		s.metrics.IncFollowCacheMiss()
	}

	var ids []string
	var err error
	if dir == outgoing {
		ids, err = s.follows.ListFollowing(ctx, userID)
	} else {
		ids, err = s.follows.ListFollowers(ctx, userID)
	}
	if err != nil {
		return nil, wrapRepo("list_follows", err)
	}

	if fill {
		if dir == outgoing {
			err = s.cache.SetFollowing(ctx, userID, ids, version)
		} else {
			err = s.cache.SetFollowers(ctx, userID, ids, version)
		}
		if err != nil {
			s.logger.Warn("follow_cache_write_failed", "user_id", userID, "error", err)
		}
	}
	return ids, nil
}

func (s *RelationshipService) invalidate(ctx context.Context, followerID, followedID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFollow(ctx, followerID, followedID); err != nil {
		// Entries age out with the cache TTL.
		s.logger.Warn("follow_cache_invalidate_failed",
			"follower_id", followerID,
			"followed_id", followedID,
			"error", err,
		)
	}
}
