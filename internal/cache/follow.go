package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache key prefixes and TTLs.
const (
	followingKeyPrefix = "follow:following:"
	followersKeyPrefix = "follow:followers:"
	versionKeyPrefix   = "follow:version:"

	// DefaultFollowTTL bounds how long a cached adjacency list may lag
	// behind a write that failed to invalidate it.
	DefaultFollowTTL = 30 * time.Second

	// followVersionTTL must outlive any read between a miss and its fill.
	followVersionTTL = 24 * time.Hour
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// fillIfCurrentScript stores a list only while its version key still holds
// the value seen at the miss. A missing version key counts as "0".
var fillIfCurrentScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[2]) or '0'
	if current ~= ARGV[1] then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
	return 1
`)

// GetFollowing returns the cached IDs userID follows and the list version.
// On ErrCacheMiss the version is the one to pass to SetFollowing.
func (c *Cache) GetFollowing(ctx context.Context, userID string) ([]string, int64, error) {
	return c.getIDs(ctx, followingKey(userID), followingVersionKey(userID))
}

// SetFollowing caches the IDs userID follows unless a follow mutation has
// bumped the version since the miss.
func (c *Cache) SetFollowing(ctx context.Context, userID string, ids []string, version int64) error {
	return c.setIDs(ctx, followingKey(userID), followingVersionKey(userID), ids, version)
}

// GetFollowers returns the cached IDs following userID and the list version.
// On ErrCacheMiss the version is the one to pass to SetFollowers.
func (c *Cache) GetFollowers(ctx context.Context, userID string) ([]string, int64, error) {
	return c.getIDs(ctx, followersKey(userID), followersVersionKey(userID))
}

// SetFollowers caches the IDs following userID unless a follow mutation has
// bumped the version since the miss.
func (c *Cache) SetFollowers(ctx context.Context, userID string, ids []string, version int64) error {
	return c.setIDs(ctx, followersKey(userID), followersVersionKey(userID), ids, version)
}

// InvalidateFollow drops the two lists touched by a follow or unfollow and
// bumps their versions so in-flight fills are discarded.
func (c *Cache) InvalidateFollow(ctx context.Context, followerID, followedID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		bump(ctx, pipe, followingKey(followerID), followingVersionKey(followerID))
		bump(ctx, pipe, followersKey(followedID), followersVersionKey(followedID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate follow failed: %w", err)
	}
	return nil
}

// InvalidateUser drops both lists owned by userID.
// Lists of other users that mention userID expire with their TTL.
func (c *Cache) InvalidateUser(ctx context.Context, userID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		bump(ctx, pipe, followingKey(userID), followingVersionKey(userID))
		bump(ctx, pipe, followersKey(userID), followersVersionKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate user failed: %w", err)
	}
	return nil
}

func bump(ctx context.Context, pipe redis.Pipeliner, key, versionKey string) {
	pipe.Incr(ctx, versionKey)
	pipe.Expire(ctx, versionKey, followVersionTTL)
	pipe.Del(ctx, key)
}

func (c *Cache) getIDs(ctx context.Context, key, versionKey string) ([]string, int64, error) {
	vals, err := c.client.MGet(ctx, key, versionKey).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis get failed: %w", err)
	}

	version, err := parseVersion(vals[1])
	if err != nil {
		return nil, 0, err
	}

	data, ok := vals[0].(string)
	if !ok {
		return nil, version, ErrCacheMiss
	}

	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, version, ErrCacheMiss
	}

	return ids, version, nil
}

func (c *Cache) setIDs(ctx context.Context, key, versionKey string, ids []string, version int64) error {
	if ids == nil {
		ids = []string{}
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal follow list: %w", err)
	}

	err = fillIfCurrentScript.Run(ctx, c.client,
		[]string{key, versionKey},
		strconv.FormatInt(version, 10),
		data,
		c.followTTL.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// parseVersion reads an MGET slot holding a version counter.
func parseVersion(v any) (int64, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected version value %T", v)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse follow list version: %w", err)
	}
	return n, nil
}

func followingKey(userID string) string {
	return followingKeyPrefix + userID
}

func followersKey(userID string) string {
	return followersKeyPrefix + userID
}

func followingVersionKey(userID string) string {
	return versionKeyPrefix + followingKey(userID)
}

func followersVersionKey(userID string) string {
	return versionKeyPrefix + followersKey(userID)
}
