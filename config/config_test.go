package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Test loading default config
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify defaults
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Storage.Adapter)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile(t *testing.T) {
	// Create a temporary config file
	configContent := `{
		"environment": "testing",
		"server": {
			"address": ":9090"
		},
		"storage": {
			"adapter": "memory"
		}
	}`

	tmpFile, err := os.CreateTemp("", "config_test_*.json")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(configContent)
	require.NoError(t, err)
	tmpFile.Close()

	// Load config from file
	cfg, err := LoadFromFile(tmpFile.Name())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify loaded values
	assert.Equal(t, EnvTesting, cfg.Environment)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Storage.Adapter)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      *Config
		expectError bool
	}{
		{
			name: "valid config",
			config: &Config{
				Environment: EnvDevelopment,
				Server: ServerConfig{
					Address:           ":8080",
					ReadTimeout:       time.Second,
					WriteTimeout:      time.Second,
					IdleTimeout:       time.Second,
					ReadHeaderTimeout: time.Second,
					ShutdownTimeout:   time.Second,
				},
				Storage: StorageConfig{
					Adapter: "memory",
				},
				Logging: LoggingConfig{
					Level:  "info",
					Format: "json",
					Output: "stdout",
				},
			},
			expectError: false,
		},
		{
			name: "invalid environment",
			config: &Config{
				Environment: "",
				Server: ServerConfig{
					Address:           ":8080",
					ReadTimeout:       time.Second,
					WriteTimeout:      time.Second,
					IdleTimeout:       time.Second,
					ReadHeaderTimeout: time.Second,
					ShutdownTimeout:   time.Second,
				},
				Storage: StorageConfig{
					Adapter: "memory",
				},
				Logging: LoggingConfig{
					Level:  "info",
					Format: "json",
					Output: "stdout",
				},
			},
			expectError: true,
		},
		{
			name: "invalid server timeout",
			config: &Config{
				Environment: EnvDevelopment,
				Server: ServerConfig{
					Address:           ":8080",
					ReadTimeout:       0,
					WriteTimeout:      time.Second,
					IdleTimeout:       time.Second,
					ReadHeaderTimeout: time.Second,
					ShutdownTimeout:   time.Second,
				},
				Storage: StorageConfig{
					Adapter: "memory",
				},
				Logging: LoggingConfig{
					Level:  "info",
					Format: "json",
					Output: "stdout",
				},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProfiles(t *testing.T) {
	tests := []struct {
		name         string
		profileName  string
		expectConfig bool
		environment  Environment
	}{
		{"development", "development", true, EnvDevelopment},
		{"testing", "testing", true, EnvTesting},
		{"staging", "staging", true, EnvStaging},
		{"production", "production", true, EnvProduction},
		{"unknown", "unknown", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadProfile(tt.profileName)
			if tt.expectConfig {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				assert.Equal(t, tt.environment, cfg.Environment)
			} else {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			}
		})
	}
}

func TestSecrets(t *testing.T) {
	// Test environment secret store
	store := NewEnvironmentSecretStore()

	// Set test environment variable
	testKey := "TEST_SECRET_KEY"
	testValue := "test_secret_value"
	os.Setenv(testKey, testValue)
	defer os.Unsetenv(testKey)

	ctx := context.Background()

	// Test Get
	value, err := store.Get(ctx, testKey)
	assert.NoError(t, err)
	assert.Equal(t, testValue, value)

	// Test GetWithDefault
	defaultValue := "default"
	value = store.GetWithDefault(ctx, "NONEXISTENT_KEY", defaultValue)
	assert.Equal(t, defaultValue, value)

	value = store.GetWithDefault(ctx, testKey, defaultValue)
	assert.Equal(t, testValue, value)
}

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		expectError bool
		setup       func() string // returns path to cleanup
	}{
		{
			name:        "valid json file",
			path:        "config_test.json",
			expectError: false,
			setup: func() string {
				tmpFile, _ := os.CreateTemp("", "config_test_*.json")
				tmpFile.WriteString("{}")
				tmpFile.Close()
				return tmpFile.Name()
			},
		},
		{
			name:        "empty path",
			path:        "",
			expectError: true,
			setup:       func() string { return "" },
		},
		{
			name:        "path traversal",
			path:        "../../../etc/passwd",
			expectError: true,
			setup:       func() string { return "" },
		},
		{
			name:        "non-json file",
			path:        "config.txt",
			expectError: true,
			setup: func() string {
				tmpFile, _ := os.CreateTemp("", "config_test_*.txt")
				tmpFile.WriteString("{}")
				tmpFile.Close()
				return tmpFile.Name()
			},
		},
		{
			name:        "nonexistent file",
			path:        "nonexistent.json",
			expectError: true,
			setup:       func() string { return "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanupPath := tt.setup()
			if cleanupPath != "" {
				defer os.Remove(cleanupPath)
				if tt.path == "config_test.json" || tt.path == "config.txt" {
					tt.path = cleanupPath
				}
			}

			err := validateConfigPath(tt.path)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_EnvOverridesNestedStorage(t *testing.T) {
	t.Setenv("SCOREKIT_STORAGE_ADAPTER", "redis")
	t.Setenv("SCOREKIT_REDIS_HOST", "cache.internal")
	t.Setenv("SCOREKIT_REDIS_TLS", "true")
	t.Setenv("SCOREKIT_REDIS_PROBE_TIMEOUT", "750ms")
	t.Setenv("SCOREKIT_REDIS_WRITE_RETRIES", "9")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, AdapterRedis, cfg.Storage.Adapter)
	assert.Equal(t, "cache.internal", cfg.Storage.Redis.Host)
	assert.True(t, cfg.Storage.Redis.UseTLS)
	assert.Equal(t, 750*time.Millisecond, cfg.Storage.Redis.ProbeTimeout)
	assert.Equal(t, 9, cfg.Storage.Redis.WriteRetries)
	assert.Equal(t, "scorekit:leaderboard", cfg.Storage.Redis.Key)
}

func TestStorageConfig_ValidateAdapters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Adapter = AdapterOffline
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Adapter = "cassandra"
	assert.ErrorContains(t, cfg.Validate(), "adapter must be one of")

	cfg.Storage.Adapter = AdapterSQL
	cfg.Storage.SQL.DSN = ""
	assert.ErrorContains(t, cfg.Validate(), "dsn cannot be empty")

	cfg.Storage.Adapter = AdapterRedis
	cfg.Storage.Redis.Port = 0
	cfg.Storage.Redis.Key = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port must be between 1 and 65535")
	assert.Contains(t, err.Error(), "key cannot be empty")
}

func TestTracingConfig_Validate(t *testing.T) {
	tc := TracingConfig{Enabled: true, Endpoint: "", SampleRatio: 2}
	err := tc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")
	assert.Contains(t, err.Error(), "sample_ratio")

	tc = TracingConfig{Enabled: false}
	assert.NoError(t, tc.Validate())
}

func TestConfig_StringRedactsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Redis.Password = "hunter2"
	cfg.Storage.SQL.DSN = "postgres://u:pw@db/scores"
	cfg.Security.APIKeys = []string{"k-123"}

	out := cfg.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "u:pw@")
	assert.NotContains(t, out, "k-123")
	assert.Contains(t, out, "[REDACTED]")
	assert.Equal(t, "hunter2", cfg.Storage.Redis.Password, "String must not mutate the config")
}

func TestLoadSecretsFromEnv_FileIndirection(t *testing.T) {
	dir := t.TempDir()
	secretPath := dir + "/redis_password"
	require.NoError(t, os.WriteFile(secretPath, []byte("from-file\n"), 0o600))
	t.Setenv("SCOREKIT_REDIS_PASSWORD_FILE", secretPath)
	t.Setenv("SCOREKIT_SECURITY_API_KEYS", "a, b")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadSecretsFromEnv(context.Background()))
	assert.Equal(t, "from-file", cfg.Storage.Redis.Password)
	assert.Equal(t, []string{"a", "b"}, cfg.Security.APIKeys)
	assert.Empty(t, cfg.Storage.SQL.DSN)
}

func TestLoadSecretsFromEnv_UnreadableFile(t *testing.T) {
	t.Setenv("SCOREKIT_SQL_DSN_FILE", "/nonexistent/dsn")
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadSecretsFromEnv(context.Background()))
}

func TestLoad_EnvListsAndMaps(t *testing.T) {
	t.Setenv("SCOREKIT_SECURITY_API_KEYS", " k1, k2 ,")
	t.Setenv("SCOREKIT_LOG_ATTRIBUTES", "service=scorekit,region=eu")
	t.Setenv("SCOREKIT_TRACING_SAMPLE_RATIO", "0.25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Security.APIKeys)
	assert.Equal(t, map[string]string{"service": "scorekit", "region": "eu"}, cfg.Logging.Attributes)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRatio)
	assert.Equal(t, ":8080", cfg.Server.Address, "unset variables keep defaults")
}

func TestLoad_EnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("SCOREKIT_REDIS_PROBE_TIMEOUT", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "ProbeTimeout")
}
