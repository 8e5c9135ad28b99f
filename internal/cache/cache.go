// Package cache keeps recent analysis results keyed by product.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trustlens/review-api/internal/domain"
)

const keyPrefix = "analysis:"

// DefaultTTL is how long a cached result stays valid.
const DefaultTTL = 10 * time.Minute

// Cache stores analysis results. Get reports a miss with ok == false.
type Cache interface {
	Get(ctx context.Context, id domain.ProductIdentifier) (result *domain.AnalysisResult, ok bool, err error)
	Set(ctx context.Context, id domain.ProductIdentifier, result *domain.AnalysisResult) error
}

// Key returns the cache key for a product.
func Key(id domain.ProductIdentifier) string {
	return keyPrefix + string(id.Platform) + ":" + id.ProductID
}

// Redis caches results as JSON strings with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis cache. A non-positive ttl uses DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Get loads a cached result.
func (c *Redis) Get(ctx context.Context, id domain.ProductIdentifier) (*domain.AnalysisResult, bool, error) {
	data, err := c.client.Get(ctx, Key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get analysis: %w", err)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("unmarshal analysis: %w", err)
	}
	return &result, true, nil
}

// Set stores result under its product key.
func (c *Redis) Set(ctx context.Context, id domain.ProductIdentifier, result *domain.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	if err := c.client.Set(ctx, Key(id), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set analysis: %w", err)
	}
	return nil
}

// Noop never hits.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, domain.ProductIdentifier) (*domain.AnalysisResult, bool, error) {
	return nil, false, nil
}

// Set discards the result.
func (Noop) Set(context.Context, domain.ProductIdentifier, *domain.AnalysisResult) error { return nil }
