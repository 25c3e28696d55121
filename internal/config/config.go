package config

import (
	"fmt"
	"time"
)

// Config is the full application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Poll     PollConfig     `mapstructure:"poll"`
	Session  SessionConfig  `mapstructure:"session"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Health   HealthConfig   `mapstructure:"health"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// DatabaseConfig holds the MySQL connection settings.
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // seconds
}

// GetDSN builds the MySQL connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// GetMaxLifetime returns the connection max lifetime as a duration.
func (c *DatabaseConfig) GetMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetime) * time.Second
}

// RedisConfig holds the Redis connection settings used by the session
// registry.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// GetAddress returns the host:port Redis address.
func (c *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PollConfig controls the per-session polling cycle.
type PollConfig struct {
	Interval    int `mapstructure:"interval"`     // seconds between reconcile passes
	HealTimeout int `mapstructure:"heal_timeout"` // seconds budget for one pass's heal writes
}

// GetInterval returns the polling interval as a duration.
func (c *PollConfig) GetInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// GetHealTimeout returns the heal-write budget as a duration.
func (c *PollConfig) GetHealTimeout() time.Duration {
	return time.Duration(c.HealTimeout) * time.Second
}

// SessionConfig controls the session registry and worker refresh.
type SessionConfig struct {
	TTL             int `mapstructure:"ttl"`              // session key TTL in seconds
	RefreshInterval int `mapstructure:"refresh_interval"` // seconds between worker-set refreshes
}

// GetTTL returns the session TTL as a duration.
func (c *SessionConfig) GetTTL() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// GetRefreshInterval returns the worker refresh interval as a duration.
func (c *SessionConfig) GetRefreshInterval() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Second
}

// HTTPConfig holds the view API listener settings.
type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// GetAddress returns the listen address for the view API.
func (c *HTTPConfig) GetAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}

// MetricsConfig holds the Prometheus listener settings.
type MetricsConfig struct {
	Port int    `mapstructure:"port"`
	Path string `mapstructure:"path"`
}

// GetAddress returns the metrics listen address.
func (c *MetricsConfig) GetAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}

// HealthConfig holds the health-check listener settings.
type HealthConfig struct {
	Port int    `mapstructure:"port"`
	Path string `mapstructure:"path"`
}

// GetAddress returns the health listen address.
func (c *HealthConfig) GetAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate checks the configuration for values that cannot be defaulted.
func (cfg *Config) Validate() error {
	if cfg.Database.Host == "" {
		return fmt.Errorf("database host must not be empty")
	}
	if cfg.Database.Database == "" {
		return fmt.Errorf("database name must not be empty")
	}
	if cfg.Redis.Host == "" {
		return fmt.Errorf("redis host must not be empty")
	}
	if cfg.Poll.Interval < 0 {
		return fmt.Errorf("poll interval must not be negative: %d", cfg.Poll.Interval)
	}
	return nil
}

// IsDevelopment reports whether the app runs in development mode.
func (cfg *Config) IsDevelopment() bool {
	return cfg.App.Environment == "development"
}

// IsProduction reports whether the app runs in production mode.
func (cfg *Config) IsProduction() bool {
	return cfg.App.Environment == "production"
}
