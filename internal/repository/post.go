package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/micropost/micropost/internal/model"
)

// CreatePost inserts a new post.
func (r *Repository) CreatePost(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, post.ID, post.AuthorID, post.Content, post.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// PostsByAuthors returns every post written by any of the given authors,
// newest first with ID as the tie-breaker.
func (r *Repository) PostsByAuthors(ctx context.Context, authorIDs []string) ([]*model.Post, error) {
	if len(authorIDs) == 0 {
		return []*model.Post{}, nil
	}

	query := `
		SELECT id, author_id, content, created_at
		FROM posts
		WHERE author_id = ANY($1)
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, pq.Array(authorIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*model.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, nil
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var post model.Post
	if err := row.Scan(&post.ID, &post.AuthorID, &post.Content, &post.CreatedAt); err != nil {
		return nil, err
	}
	return &post, nil
}
