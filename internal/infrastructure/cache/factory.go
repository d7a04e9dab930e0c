package cache

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	orgapp "github.com/multipos/console/internal/application/organization"
	"github.com/multipos/console/internal/infrastructure/config"
)

// Cache is a SettingsCache owning resources.
type Cache interface {
	orgapp.SettingsCache
	io.Closer
}

// SettingsCacheFactory picks the settings cache backend from configuration.
type SettingsCacheFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption configures the factory
type FactoryOption func(*SettingsCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *SettingsCacheFactory) { f.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *SettingsCacheFactory) { f.allowInMemoryFallback = allow }
}

// NewSettingsCacheFactory creates a new factory
func NewSettingsCacheFactory(cfg config.RedisConfig, ttl time.Duration, opts ...FactoryOption) *SettingsCacheFactory {
	f := &SettingsCacheFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the Redis cache when enabled and reachable, else the
// in-memory one.
func (f *SettingsCacheFactory) Create() (Cache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("using in-memory settings cache", zap.Duration("ttl", f.ttl))
		return NewInMemorySettingsCache(f.ttl), nil
	}

	c, err := NewRedisSettingsCache(f.redisConfig, f.ttl, f.logger.Named("settings_cache"))
	if err == nil {
		f.logger.Info("using Redis settings cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for settings cache but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory settings cache. "+
		"Settings updates are not shared across instances.",
		zap.Error(err),
	)
	return NewInMemorySettingsCache(f.ttl), nil
}
