package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrSecretNotFound is returned when a secret has no value in the store.
var ErrSecretNotFound = errors.New("secret not found")

// SecretStore resolves named secrets.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, def string) string
}

// EnvironmentSecretStore reads secrets from environment variables. When KEY is unset,
// KEY_FILE may name a file holding the value (the Docker/Kubernetes secrets convention).
type EnvironmentSecretStore struct{}

func NewEnvironmentSecretStore() *EnvironmentSecretStore { return &EnvironmentSecretStore{} }

func (EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, nil
	}
	path := os.Getenv(key + "_FILE")
	if path == "" {
		return "", fmt.Errorf("%s: %w", key, ErrSecretNotFound)
	}
	b, err := os.ReadFile(path) // #nosec G304 - operator-supplied secret path
	if err != nil {
		return "", fmt.Errorf("read %s_FILE: %w", key, err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (s EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, def string) string {
	v, err := s.Get(ctx, key)
	if err != nil {
		return def
	}
	return v
}

// LoadSecretsFromEnv fills credentials from the environment secret store.
func (c *Config) LoadSecretsFromEnv(ctx context.Context) error {
	return c.LoadSecrets(ctx, NewEnvironmentSecretStore())
}

// LoadSecrets fills the Redis password, SQL DSN and API keys from store.
// Missing secrets leave the current values in place.
func (c *Config) LoadSecrets(ctx context.Context, store SecretStore) error {
	secrets := []struct {
		key   string
		apply func(string)
	}{
		{"SCOREKIT_REDIS_PASSWORD", func(v string) { c.Storage.Redis.Password = v }},
		{"SCOREKIT_SQL_DSN", func(v string) { c.Storage.SQL.DSN = v }},
		{"SCOREKIT_SECURITY_API_KEYS", func(v string) {
			keys := strings.Split(v, ",")
			for i := range keys {
				keys[i] = strings.TrimSpace(keys[i])
			}
			c.Security.APIKeys = keys
		}},
	}
	for _, s := range secrets {
		v, err := lookupSecret(ctx, store, s.key)
		if err != nil {
			return err
		}
		if v != "" {
			s.apply(v)
		}
	}
	return nil
}

func lookupSecret(ctx context.Context, store SecretStore, key string) (string, error) {
	v, err := store.Get(ctx, key)
	if errors.Is(err, ErrSecretNotFound) {
		return "", nil
	}
	return v, err
}
