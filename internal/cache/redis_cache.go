package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/honeylavenderwrites/retailytic/internal/domain"
)

type RedisBundleCache struct {
	client *redis.Client
}

func NewRedisBundleCache(addr string, password string, db int) *RedisBundleCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisBundleCache{client: client}
}

func (c *RedisBundleCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisBundleCache) Close() error {
	return c.client.Close()
}

func (c *RedisBundleCache) Get(ctx context.Context, key string) (*domain.AnalysisBundle, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var bundle domain.AnalysisBundle
	if err := json.Unmarshal([]byte(val), &bundle); err != nil {
		return nil, false, err
	}
	return &bundle, true, nil
}

func (c *RedisBundleCache) Set(ctx context.Context, key string, value *domain.AnalysisBundle, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
