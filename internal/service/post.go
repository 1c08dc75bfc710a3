package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/micropost/micropost/internal/metrics"
	"github.com/micropost/micropost/internal/model"
)

// PostService publishes and lists posts.
type PostService struct {
	posts   PostStore
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService(posts PostStore, logger *slog.Logger, recorder metrics.Recorder) *PostService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PostService{
		posts:   posts,
		logger:  logger.With("component", "post"),
		metrics: recorder,
		now:     time.Now,
	}
}

// Publish stores a new post by authorID.
func (s *PostService) Publish(ctx context.Context, authorID, content string) (*model.Post, error) {
	post := &model.Post{
		ID:        ulid.Make().String(),
		AuthorID:  authorID,
		Content:   strings.TrimSpace(content),
		CreatedAt: s.now().UTC(),
	}

	if err := validateStruct(post); err != nil {
		return nil, err
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, wrapRepo("create_post", err)
	}

	s.metrics.IncPostCreated()
	s.logger.Info("post_created", "post_id", post.ID, "author_id", authorID)
	return post, nil
}

// UserPosts returns the posts written by userID, newest first.
func (s *PostService) UserPosts(ctx context.Context, userID string) ([]*model.Post, error) {
	posts, err := s.posts.PostsByAuthors(ctx, []string{userID})
	if err != nil {
		return nil, wrapRepo("posts_by_authors", err)
	}
	slices.SortFunc(posts, comparePosts)
	return posts, nil
}
