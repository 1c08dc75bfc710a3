package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/micropost/micropost/internal/model"
)

// ErrSelfFollow is returned when the database rejects a self-referencing edge.
var ErrSelfFollow = errors.New("user cannot follow themselves")

// InsertFollow records a follow edge. It reports whether a new row was
// written; an existing edge is left untouched.
func (r *Repository) InsertFollow(ctx context.Context, edge model.FollowEdge) (bool, error) {
	query := `
		INSERT INTO relationships (follower_id, followed_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followed_id) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, edge.FollowerID, edge.FollowedID, edge.CreatedAt)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return false, ErrUserNotFound
		case isCheckViolation(err):
			return false, ErrSelfFollow
		}
		return false, fmt.Errorf("failed to insert follow: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// DeleteFollow removes a follow edge and reports whether one existed.
func (r *Repository) DeleteFollow(ctx context.Context, followerID, followedID string) (bool, error) {
	query := `
		DELETE FROM relationships
		WHERE follower_id = $1 AND followed_id = $2
	`

	result, err := r.pool.Exec(ctx, query, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// FollowExists reports whether followerID follows followedID.
func (r *Repository) FollowExists(ctx context.Context, followerID, followedID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM relationships
			WHERE follower_id = $1 AND followed_id = $2
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, followerID, followedID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}

	return exists, nil
}

// ListFollowing returns the IDs the user follows.
func (r *Repository) ListFollowing(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT followed_id FROM relationships
		WHERE follower_id = $1
		ORDER BY followed_id
	`
	return r.collectIDs(ctx, query, userID)
}

// ListFollowers returns the IDs following the user.
func (r *Repository) ListFollowers(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT follower_id FROM relationships
		WHERE followed_id = $1
		ORDER BY follower_id
	`
	return r.collectIDs(ctx, query, userID)
}

func (r *Repository) collectIDs(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan relationships: %w", err)
	}

	return ids, nil
}
