package model

import "time"

// FollowEdge is a directed "follower reads followed" relationship.
type FollowEdge struct {
	FollowerID string    `json:"follower_id"`
	FollowedID string    `json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsSelfLoop reports whether the edge points back at its origin.
func (e FollowEdge) IsSelfLoop() bool {
	return e.FollowerID == e.FollowedID
}
