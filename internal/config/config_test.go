package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// configKeys are cleared before each Load test so the host environment does
// not leak in.
var configKeys = []string{
	"ENV", "LOG_LEVEL", "DEBUG", "SECRET_KEY", "ALLOWED_HOSTS", "DATA_PATH",
	"DATABASE_URL", "MEDIA_URL", "SERVER_PORT", "SERVER_READ_TIMEOUT",
	"SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT", "SESSION_DURATION",
	"ADMIN_USERNAME", "ADMIN_PASSWORD", "ADMIN_EMAIL", "REDIS_ADDR",
	"REDIS_PASSWORD", "REDIS_DB", "KAFKA_BROKERS", "KAFKA_TOPIC", "CONFIG_FILE",
	"MAX_UPLOAD_BYTES", "LOGIN_RATE_LIMIT", "LOGIN_BURST", "QUEUE_CONCURRENCY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		if v, ok := os.LookupEnv(k); ok {
			require.NoError(t, os.Unsetenv(k))
			t.Cleanup(func() { _ = os.Setenv(k, v) })
		}
	}
}

func load(t *testing.T, args ...string) *Config {
	t.Helper()
	cfg, err := Load(append([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)

	cfg := load(t)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.False(t, cfg.App.Debug)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, dir, cfg.Data.Path)
	assert.Equal(t, filepath.Join(dir, "gallery.db"), cfg.Database.URL)
	assert.False(t, cfg.Database.IsPostgres())
	assert.Equal(t, "file://"+filepath.Join(dir, "media"), cfg.Media.URL)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 336*time.Hour, cfg.Auth.SessionDuration)
	assert.Equal(t, []string{"localhost", "127.0.0.1"}, cfg.Server.AllowedHosts)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "gallery-events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.False(t, cfg.Admin.Enabled())
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "gallery.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
data_path: `+dir+`
log_level: warn
server:
  port: 9100
kafka:
  brokers: [k1:9092, k2:9092]
`), 0o600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("LOG_LEVEL=error\n# comment\nDEBUG=yes\n"), 0o600))

	t.Setenv("SERVER_PORT", "9200")

	cfg, err := Load([]string{"-config", yamlPath, "-env-file", envPath, "-env", "staging"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = os.Unsetenv("LOG_LEVEL")
		_ = os.Unsetenv("DEBUG")
	})

	assert.Equal(t, "staging", cfg.App.Environment, "flag")
	assert.Equal(t, "9200", cfg.Server.Port, "env beats yaml")
	assert.Equal(t, "error", cfg.Logger.Level, ".env beats yaml")
	assert.True(t, cfg.App.Debug)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers, "yaml list")
	assert.Equal(t, dir, cfg.Data.Path)
}

func TestLoad_EmptyMediaURLDisablesMedia(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("MEDIA_URL", "")

	assert.Empty(t, load(t).Media.URL)
}

func TestLoad_PostgresURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://gallery@localhost/gallery")

	cfg := load(t)
	assert.True(t, cfg.Database.IsPostgres())
	assert.Equal(t, "postgres://gallery@localhost/gallery", cfg.Database.URL)
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("SESSION_DURATION", "two weeks")

	_, err := Load([]string{"-env-file", "/nonexistent"})
	assert.ErrorContains(t, err, "SESSION_DURATION")
}

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Logger:   LoggerConfig{Level: "info"},
		Data:     DataConfig{Path: "/data"},
		Database: DatabaseConfig{URL: "/data/gallery.db"},
		Server:   ServerConfig{Port: "8000", MaxUploadBytes: 1},
		Auth:     AuthConfig{SessionDuration: time.Hour},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"valid", func(*Config) {}, true},
		{"bad env", func(c *Config) { c.App.Environment = "test" }, false},
		{"env is case sensitive", func(c *Config) { c.App.Environment = "DEVELOPMENT" }, false},
		{"bad level", func(c *Config) { c.Logger.Level = "trace" }, false},
		{"level case insensitive", func(c *Config) { c.Logger.Level = "DEBUG" }, true},
		{"bad port", func(c *Config) { c.Server.Port = "http" }, false},
		{"s3 media", func(c *Config) { c.Media.URL = "s3://bucket" }, false},
		{"short secret", func(c *Config) { c.Auth.SecretKey = "abc" }, false},
		{"half admin", func(c *Config) { c.Admin.Username = "root" }, false},
		{"full admin", func(c *Config) { c.Admin = AdminConfig{Username: "root", Password: "pw"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestServerConfig_HostAllowed(t *testing.T) {
	s := ServerConfig{AllowedHosts: []string{"localhost", ".example.com"}}

	assert.True(t, s.HostAllowed("localhost"))
	assert.True(t, s.HostAllowed("LOCALHOST"))
	assert.True(t, s.HostAllowed("example.com"))
	assert.True(t, s.HostAllowed("img.example.com"))
	assert.False(t, s.HostAllowed("evil.com"))
	assert.False(t, s.HostAllowed("notexample.com"))

	assert.True(t, ServerConfig{AllowedHosts: []string{"*"}}.HostAllowed("anything"))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/Gallery", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Gallery"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)
}
