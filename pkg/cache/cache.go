// Package cache provides a Redis-backed cache of validated plan documents,
// keyed by the normalized prompt. A cache hit skips the model call entirely;
// any Redis failure degrades to a miss so planning never depends on the
// cache being up.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/planweave/planweave/pkg/models"
)

const keyPrefix = "planweave:plan:"

// PlanCache stores validated plan documents in Redis.
type PlanCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewPlanCache connects to the Redis instance named by url
// (redis://host:port/db). A zero ttl means entries never expire.
func NewPlanCache(url string, ttl time.Duration, logger *slog.Logger) (*PlanCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &PlanCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
		logger: logger.With("module", "plancache"),
	}, nil
}

// Key derives the cache key for a prompt. Prompts are trimmed and
// case-folded so trivially restated requests share an entry.
func Key(prompt string) string {
	normalized := strings.ToLower(strings.TrimSpace(prompt))
	sum := sha256.Sum256([]byte(normalized))

	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached document for the prompt, or false on a miss. Redis
// errors and undecodable entries count as misses.
func (c *PlanCache) Get(ctx context.Context, prompt string) (*models.Document, bool) {
	payload, err := c.client.Get(ctx, Key(prompt)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "Plan cache read failed", "error", err)
		}

		return nil, false
	}

	var doc models.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		c.logger.WarnContext(ctx, "Discarding undecodable plan cache entry", "error", err)

		return nil, false
	}

	return &doc, true
}

// Set stores a validated document for the prompt. Failures are logged and
// swallowed; caching is an optimization, never a requirement.
func (c *PlanCache) Set(ctx context.Context, prompt string, doc *models.Document) {
	payload, err := json.Marshal(doc)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to encode plan for caching", "error", err)

		return
	}

	if err := c.client.Set(ctx, Key(prompt), payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Plan cache write failed", "error", err)
	}
}

// HealthCheck reports whether Redis answers a ping.
func (c *PlanCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *PlanCache) Close() error {
	return c.client.Close()
}
