// Package persistence stores export history through gorm.
package persistence

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/multipos/console/internal/infrastructure/config"
	"github.com/multipos/console/internal/infrastructure/logger"
	"github.com/multipos/console/internal/infrastructure/telemetry"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// NewDatabase connects to postgres with pool settings from cfg. Statements
// are logged through zap at the configured log level.
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger, logLevel string, opts ...Option) (*Database, error) {
	d, err := Open(postgres.Open(cfg.DSN()), log, logLevel, cfg.SlowThreshold, opts...)
	if err != nil {
		return nil, err
	}

	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return d, nil
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	tracing bool
	tracer  trace.TracerProvider
}

// WithTracing turns every statement into an otelgorm span. A nil tp uses
// the global provider.
func WithTracing(tp trace.TracerProvider) Option {
	return func(o *openOptions) {
		o.tracing = true
		o.tracer = tp
	}
}

// Open wraps any gorm dialector; tests pass sqlite or a sqlmock-backed
// postgres dialector.
func Open(dialector gorm.Dialector, log *zap.Logger, logLevel string, slow time.Duration, opts ...Option) (*Database, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLogger(log, logLevel, slow),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if o.tracing {
		if err := telemetry.TraceGorm(db, o.tracer, db.Dialector.Name(), log); err != nil {
			return nil, err
		}
	}
	return &Database{DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	OpenConnections int           `json:"openConnections"`
	InUse           int           `json:"inUse"`
	Idle            int           `json:"idle"`
	WaitCount       int64         `json:"waitCount"`
	WaitDuration    time.Duration `json:"waitDuration"`
}

// Stats returns pool statistics for the health endpoint.
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	s := sqlDB.Stats()
	return ConnectionStats{
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		WaitCount:       s.WaitCount,
		WaitDuration:    s.WaitDuration,
	}, nil
}
