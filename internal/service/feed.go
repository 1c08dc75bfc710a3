package service

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/micropost/micropost/internal/metrics"
	"github.com/micropost/micropost/internal/model"
)

// FeedService builds a user's activity feed: their own posts plus the
// posts of everyone they follow, newest first.
type FeedService struct {
	graph   *RelationshipService
	posts   PostStore
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewFeedService creates a new FeedService.
func NewFeedService(graph *RelationshipService, posts PostStore, logger *slog.Logger, recorder metrics.Recorder) *FeedService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &FeedService{
		graph:   graph,
		posts:   posts,
		logger:  logger.With("component", "feed"),
		metrics: recorder,
	}
}

// Feed computes the feed of userID. The result is never cached; an empty
// slice means there are no posts, a lookup failure is always an error.
func (s *FeedService) Feed(ctx context.Context, userID string) ([]*model.Post, error) {
	start := time.Now()

	// Step 1: author set = self + followed
	following, err := s.graph.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	authors := make([]string, 0, len(following)+1)
	authors = append(authors, userID)
	authors = append(authors, following...)

	// Step 2: posts by any author in the set
	posts, err := s.posts.PostsByAuthors(ctx, authors)
	if err != nil {
		return nil, wrapRepo("posts_by_authors", err)
	}

	// Step 3: total order, whatever the store returned
	slices.SortFunc(posts, comparePosts)

	s.metrics.ObserveFeedDuration(time.Since(start))
	s.metrics.ObserveFeedSize(len(posts))
	s.logger.Debug("feed_built", "user_id", userID, "authors", len(authors), "posts", len(posts))

	return posts, nil
}

// Stream yields the feed of userID lazily. Every range over the returned
// sequence recomputes the feed; a failure is yielded once as the error.
func (s *FeedService) Stream(ctx context.Context, userID string) iter.Seq2[*model.Post, error] {
	return func(yield func(*model.Post, error) bool) {
		posts, err := s.Feed(ctx, userID)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, post := range posts {
			if !yield(post, nil) {
				return
			}
		}
	}
}

func comparePosts(a, b *model.Post) int {
	switch {
	case a.NewerThan(b):
		return -1
	case b.NewerThan(a):
		return 1
	}
	return 0
}
