// Package cache keeps scope settings between reads, in Redis when it is
// reachable and in process otherwise.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	orgapp "github.com/multipos/console/internal/application/organization"
	"github.com/multipos/console/internal/domain/organization"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/infrastructure/config"
)

const defaultKeyPrefix = "posconsole:"

// RedisSettingsCache implements SettingsCache on Redis. Redis failures are
// logged and reported as misses.
type RedisSettingsCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRedisSettingsCache connects and pings Redis.
func NewRedisSettingsCache(cfg config.RedisConfig, ttl time.Duration, logger *zap.Logger) (*RedisSettingsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisSettingsCacheWithClient(client, cfg.KeyPrefix, ttl, logger), nil
}

// NewRedisSettingsCacheWithClient wraps an existing client.
func NewRedisSettingsCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration, logger *zap.Logger) *RedisSettingsCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSettingsCache{client: client, keyPrefix: keyPrefix, ttl: ttl, logger: logger}
}

func (c *RedisSettingsCache) key(scope shared.Scope) string {
	return c.keyPrefix + "settings:" + scope.String()
}

func (c *RedisSettingsCache) Get(ctx context.Context, scope shared.Scope) (organization.ScopeSettings, bool) {
	raw, err := c.client.Get(ctx, c.key(scope)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("settings cache read failed", zap.Stringer("scope", scope), zap.Error(err))
		}
		return organization.ScopeSettings{}, false
	}
	var s organization.ScopeSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		c.logger.Warn("settings cache entry corrupt", zap.Stringer("scope", scope), zap.Error(err))
		return organization.ScopeSettings{}, false
	}
	return s, true
}

func (c *RedisSettingsCache) Set(ctx context.Context, s organization.ScopeSettings) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(s.Scope), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("settings cache write failed", zap.Stringer("scope", s.Scope), zap.Error(err))
	}
}

func (c *RedisSettingsCache) Invalidate(ctx context.Context, scope shared.Scope) {
	if err := c.client.Del(ctx, c.key(scope)).Err(); err != nil {
		c.logger.Warn("settings cache invalidate failed", zap.Stringer("scope", scope), zap.Error(err))
	}
}

// Close closes the Redis client
func (c *RedisSettingsCache) Close() error {
	return c.client.Close()
}

var _ orgapp.SettingsCache = (*RedisSettingsCache)(nil)
