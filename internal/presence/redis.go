package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis tracks viewers in a sorted set per stream, scored by heartbeat time,
// so counts survive server restarts and are shared across replicas.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed tracker from a redis URL.
func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

var _ Tracker = (*Redis)(nil)

func viewersKey(streamID string) string {
	return "viewers:" + streamID
}

func (r *Redis) Heartbeat(ctx context.Context, streamID, viewerID string) error {
	key := viewersKey(streamID)
	now := float64(time.Now().UnixMilli())

	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: now, Member: viewerID})
	pipe.Expire(ctx, key, 2*ViewerTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record heartbeat: %w", err)
	}
	return nil
}

func (r *Redis) ViewerCount(ctx context.Context, streamID string) (int, error) {
	key := viewersKey(streamID)
	cutoff := time.Now().Add(-ViewerTTL).UnixMilli()

	if err := r.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return 0, fmt.Errorf("expire viewers: %w", err)
	}
	count, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("count viewers: %w", err)
	}
	return int(count), nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
