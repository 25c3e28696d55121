package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads and validates the configuration file at configPath.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads the configuration file and fills in defaults
// for any omitted values.
func LoadWithDefaults(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, err
	}

	setDefaults(cfg)

	return cfg, nil
}

// setDefaults fills zero values with sane defaults.
func setDefaults(cfg *Config) {
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}

	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 100
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}

	if cfg.Poll.Interval == 0 {
		cfg.Poll.Interval = 5
	}
	if cfg.Poll.HealTimeout == 0 {
		cfg.Poll.HealTimeout = 10
	}

	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 300
	}
	if cfg.Session.RefreshInterval == 0 {
		cfg.Session.RefreshInterval = 10
	}

	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8081
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Health.Port == 0 {
		cfg.Health.Port = 8080
	}
	if cfg.Health.Path == "" {
		cfg.Health.Path = "/health"
	}
}
