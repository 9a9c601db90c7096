// Package redisx wraps the redis client used for the cycle lock and the
// now-playing cache.
package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const nowPlayingKey = "cartwall:now_playing"

func NewClient(address, username, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
}

// Cache stores small bits of station state with a TTL.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// SetNowPlaying caches the serialized now-playing payload.
func (c *Cache) SetNowPlaying(ctx context.Context, payload []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, nowPlayingKey, payload, ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to cache now playing")
	}
}

// GetNowPlaying returns the cached payload, or nil on miss.
func (c *Cache) GetNowPlaying(ctx context.Context) []byte {
	raw, err := c.client.Get(ctx, nowPlayingKey).Bytes()
	if err != nil {
		return nil
	}
	return raw
}
