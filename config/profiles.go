package config

import (
	"fmt"
	"time"
)

// LoadProfile returns the named preset with environment overrides applied.
func LoadProfile(name string) (*Config, error) {
	build, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", name)
	}
	cfg := build()
	cfg.Profile = name
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

var profiles = map[string]func() *Config{
	"development": developmentProfile,
	"testing":     testingProfile,
	"staging":     stagingProfile,
	"production":  productionProfile,
}

func developmentProfile() *Config {
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "text"
	return cfg
}

func testingProfile() *Config {
	cfg := DefaultConfig()
	cfg.Environment = EnvTesting
	cfg.Storage.Adapter = AdapterMemory
	cfg.Logging.Level = "warn"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Storage.Redis.ProbeTimeout = 500 * time.Millisecond
	return cfg
}

func stagingProfile() *Config {
	cfg := DefaultConfig()
	cfg.Environment = EnvStaging
	cfg.Storage.Adapter = AdapterRedis
	cfg.Metrics.Enabled = true
	cfg.Security.EnableRateLimit = true
	cfg.Tracing.SampleRatio = 0.5
	return cfg
}

func productionProfile() *Config {
	cfg := DefaultConfig()
	cfg.Environment = EnvProduction
	cfg.Server.CORSOrigin = ""
	cfg.Storage.Adapter = AdapterRedis
	cfg.Storage.Redis.UseTLS = true
	cfg.Storage.Redis.Port = 6380
	cfg.Logging.Level = "warn"
	cfg.Metrics.Enabled = true
	cfg.Security.EnableRateLimit = true
	cfg.Security.RateLimit.RequestsPerMinute = 120
	cfg.Security.RateLimit.BurstSize = 20
	cfg.Tracing.SampleRatio = 0.1
	return cfg
}
