// Package config loads console configuration from config.toml, POSCONSOLE_*
// environment variables and built-in defaults, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. POSCONSOLE_API_BASE_URL.
const EnvPrefix = "POSCONSOLE"

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	API       APIConfig       `mapstructure:"api"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Export    ExportConfig    `mapstructure:"export"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// APIConfig describes the upstream POS API every slice talks to.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests/second, 0 disables
	Burst     int           `mapstructure:"burst"`
	UserAgent string        `mapstructure:"user_agent"`
}

// AuthConfig controls how bearer tokens are read. Without a secret the
// claims are parsed unverified; the upstream API re-checks every call.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type WorkspaceConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	SettingsTTL   time.Duration `mapstructure:"settings_ttl"`
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DatabaseConfig is the export history store.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
}

// DSN returns the postgres connection URL with escaped credentials.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}

// StorageConfig points at S3-compatible storage for generated exports.
type StorageConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	Bucket          string        `mapstructure:"bucket"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UsePathStyle    bool          `mapstructure:"use_path_style"`
	Prefix          string        `mapstructure:"prefix"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
}

// ExportConfig configures document rendering.
type ExportConfig struct {
	ChromeRemoteURL string        `mapstructure:"chrome_remote_url"`
	ChromePath      string        `mapstructure:"chrome_path"`
	RenderTimeout   time.Duration `mapstructure:"render_timeout"`
	PaperSize       string        `mapstructure:"paper_size"`
	Landscape       bool          `mapstructure:"landscape"`
	Locale          string        `mapstructure:"locale"`
	Currency        string        `mapstructure:"currency"`
	MaxRows         int           `mapstructure:"max_rows"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type HTTPConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	MaxBodySize      int64         `mapstructure:"max_body_size"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
	CORSAllowHeaders []string      `mapstructure:"cors_allow_headers"`
	// RateLimit is a limiter rate such as "300-M"; empty disables it.
	RateLimit        string        `mapstructure:"rate_limit"`
}

type TelemetryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	SamplingRatio     float64 `mapstructure:"sampling_ratio"`
	ServiceName       string  `mapstructure:"service_name"`
	Insecure          bool    `mapstructure:"insecure"`
}

// Load searches config.toml in the working directory, ./config and
// /etc/posconsole.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/posconsole")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFile reads an explicit config file, used by posctl --config.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Load()
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Every key needs a default, otherwise AutomaticEnv cannot surface it
// through Unmarshal.
func setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"app.name": "posconsole",
		"app.env":  "development",
		"app.port": "8090",

		"api.base_url":   "http://localhost:5000/api",
		"api.timeout":    30 * time.Second,
		"api.rate_limit": 0.0,
		"api.burst":      10,
		"api.user_agent": "posconsole/1.0",

		"auth.jwt_secret": "",
		"auth.issuer":     "",

		"workspace.idle_ttl":       30 * time.Minute,
		"workspace.sweep_interval": time.Minute,
		"workspace.settings_ttl":   5 * time.Minute,

		"redis.enabled":    false,
		"redis.host":       "localhost",
		"redis.port":       6379,
		"redis.password":   "",
		"redis.db":         0,
		"redis.key_prefix": "posconsole:",

		"database.enabled":           false,
		"database.host":              "localhost",
		"database.port":              5432,
		"database.user":              "postgres",
		"database.password":          "",
		"database.dbname":            "posconsole",
		"database.sslmode":           "disable",
		"database.max_open_conns":    10,
		"database.max_idle_conns":    2,
		"database.conn_max_lifetime": time.Hour,
		"database.slow_threshold":    200 * time.Millisecond,

		"storage.enabled":           false,
		"storage.endpoint":          "",
		"storage.region":            "us-east-1",
		"storage.bucket":            "posconsole-exports",
		"storage.access_key_id":     "",
		"storage.secret_access_key": "",
		"storage.use_path_style":    true,
		"storage.prefix":            "exports",
		"storage.presign_expiry":    15 * time.Minute,

		"export.chrome_remote_url": "",
		"export.chrome_path":       "",
		"export.render_timeout":    30 * time.Second,
		"export.paper_size":        "A4",
		"export.landscape":         true,
		"export.locale":            "en-US",
		"export.currency":          "",
		"export.max_rows":          50000,

		"log.level":  "info",
		"log.format": "console",
		"log.output": "stdout",

		"http.read_timeout":       15 * time.Second,
		"http.write_timeout":      60 * time.Second,
		"http.idle_timeout":       60 * time.Second,
		"http.request_timeout":    45 * time.Second,
		"http.max_body_size":      int64(2 << 20),
		"http.cors_allow_origins": []string{},
		"http.cors_allow_headers": []string{"Content-Type", "Authorization", "X-Request-ID"},
		"http.rate_limit":         "600-M",

		"telemetry.enabled":            false,
		"telemetry.collector_endpoint": "localhost:4317",
		"telemetry.sampling_ratio":     1.0,
		"telemetry.service_name":       "posconsole",
		"telemetry.insecure":           false,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Validate checks cross-field constraints and production hardening.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.API.RateLimit < 0 {
		return errors.New("api.rate_limit cannot be negative")
	}
	if c.Database.Enabled && c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Storage.Enabled && (c.Storage.Bucket == "" || c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "") {
		return errors.New("storage.bucket, storage.access_key_id and storage.secret_access_key are required when storage is enabled")
	}
	if c.Export.MaxRows <= 0 {
		return errors.New("export.max_rows must be positive")
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.IsProduction() {
		if u.Scheme != "https" {
			return errors.New("api.base_url must use https in production")
		}
		if len(c.Auth.JWTSecret) < 32 {
			return errors.New("auth.jwt_secret must be at least 32 characters in production")
		}
		if c.Database.Enabled && c.Database.SSLMode == "disable" {
			return errors.New("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return errors.New("http.cors_allow_origins cannot be '*' in production")
			}
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
