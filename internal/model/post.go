package model

import "time"

// MaxPostLength is the maximum number of characters in a post.
const MaxPostLength = 140

// Post is a short message authored by exactly one user.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content" validate:"required,max=140"`
	CreatedAt time.Time `json:"created_at"`
}

// NewerThan reports whether p sorts before other in feed order:
// creation time descending, then ID descending.
func (p *Post) NewerThan(other *Post) bool {
	if !p.CreatedAt.Equal(other.CreatedAt) {
		return p.CreatedAt.After(other.CreatedAt)
	}
	return p.ID > other.ID
}
