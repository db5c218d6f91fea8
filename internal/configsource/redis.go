/**
 * Remote configuration source for the WellMonitor agent
 *
 * Runtime settings live as a JSON document under a Redis key so operators
 * can retune the camera, OCR, and analyzer without redeploying the agent.
 * The refresh task fetches the document and feeds it to the configuration
 * hub; a missing key or unreachable Redis leaves the current settings in
 * effect.
 */

package configsource

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/davebirr/WellMonitor-sub000/internal/errors"
	"github.com/davebirr/WellMonitor-sub000/internal/logging"
	"github.com/redis/go-redis/v9"
)

// RedisSource reads the runtime configuration document from a Redis key.
type RedisSource struct {
	client *redis.Client
	key    string
	logger *logging.Logger
}

// NewRedisSource connects to Redis and verifies connectivity. An unreachable
// Redis is reported but not fatal: the caller decides whether to continue on
// defaults.
func NewRedisSource(redisURL, key string) (*RedisSource, error) {
	if key == "" {
		return nil, fmt.Errorf("config key is required")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	logger := logging.NewLogger("ConfigSource")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable at startup, config refresh will retry", "error", err)
	}

	return &RedisSource{client: client, key: key, logger: logger}, nil
}

// FetchLatest returns the current configuration document, or nil when the
// key does not exist.
func (s *RedisSource) FetchLatest(ctx context.Context) (map[string]interface{}, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		s.logger.Debug("No remote configuration published", "key", s.key)
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewConfigFetchError(s.key, err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, errors.NewConfigFetchError(s.key,
			fmt.Errorf("configuration document is not valid JSON: %w", err))
	}
	return doc, nil
}

// Publish writes a configuration document to the key. Used by tooling and
// tests; the agent itself only reads.
func (s *RedisSource) Publish(ctx context.Context, doc map[string]interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration document: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return errors.NewConfigFetchError(s.key, err)
	}
	return nil
}

// Close releases the Redis client.
func (s *RedisSource) Close() error {
	return s.client.Close()
}
