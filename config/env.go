package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// loadFromEnv overlays SCOREKIT_* variables onto cfg using the env struct tags.
// Unset variables keep the value already in cfg.
func loadFromEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	cfg.Security.APIKeys = compact(cfg.Security.APIKeys)
	return nil
}

// compact trims list entries and drops empty ones, so "a, b," yields [a b].
func compact(items []string) []string {
	out := items[:0]
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
