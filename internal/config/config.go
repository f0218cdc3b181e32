// Package config assembles the application configuration from command-line
// flags, environment variables, a .env file, an optional YAML file and
// defaults, in that order of precedence.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Data     DataConfig
	Database DatabaseConfig
	Media    MediaConfig
	Server   ServerConfig
	Auth     AuthConfig
	Admin    AdminConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	Debug       bool // Expose raw error text to callers
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig locates the data directory (database, search index, secret key).
type DataConfig struct {
	Path string
}

// DatabaseConfig selects the metadata store.
type DatabaseConfig struct {
	// URL is a sqlite file path or a postgres:// URL.
	URL string
}

// IsPostgres reports whether URL selects the PostgreSQL store.
func (d DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(d.URL, "postgres://") || strings.HasPrefix(d.URL, "postgresql://")
}

// MediaConfig addresses the media store.
type MediaConfig struct {
	// URL is a file:// URL. Empty disables uploads.
	URL string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedHosts   []string // "*" allows any host
	MaxUploadBytes int64
}

// AuthConfig holds session configuration.
type AuthConfig struct {
	// SecretKey is the 64-character hex PASETO key. When empty it is loaded
	// from or generated into {DATA_PATH}/secret.key at startup.
	SecretKey       string
	SessionDuration time.Duration
	LoginRateLimit  float64 // login attempts per second per client IP
	LoginBurst      int
}

// AdminConfig bootstraps a superuser at startup when both fields are set.
type AdminConfig struct {
	Username string
	Password string
	Email    string
}

// Enabled reports whether an admin should be bootstrapped.
func (a AdminConfig) Enabled() bool {
	return a.Username != "" && a.Password != ""
}

// RedisConfig addresses the task queue backend. Empty Addr disables it.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	Concurrency int
}

// KafkaConfig addresses the event bus. No brokers disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LoadConfig loads configuration from os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load parses args and the environment into a validated Config.
// Precedence: flag > environment > .env file > YAML file > default.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("gallery", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	debug := fs.String("debug", "", "Expose raw error text in responses")
	dataPath := fs.String("data-path", "", "Base path for data storage")
	databaseURL := fs.String("database-url", "", "SQLite path or postgres:// URL")
	mediaURL := fs.String("media-url", "", "Media store URL (file://...)")
	serverPort := fs.String("port", "", "Server port (default: 8000)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 60s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedHosts := fs.String("allowed-hosts", "", "Comma-separated Host header allow-list")
	sessionDuration := fs.String("session-duration", "", "Session lifetime (default: 336h)")
	redisAddr := fs.String("redis-addr", "", "Redis address for the task queue")
	kafkaBrokers := fs.String("kafka-brokers", "", "Comma-separated Kafka brokers")

	envFile := fs.String("env-file", ".env", "Path to .env file")
	configFile := fs.String("config", "", "Path to YAML config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Missing .env is fine.
	_ = loadEnvFile(*envFile)

	yamlPath := *configFile
	if yamlPath == "" {
		yamlPath = os.Getenv("CONFIG_FILE")
	}
	file, err := loadYAMLFile(yamlPath)
	if err != nil {
		return nil, err
	}

	src := source{file: file}

	cfg := &Config{
		App: AppConfig{
			Environment: src.get(*env, "ENV", "development"),
			Debug:       src.getBool(*debug, "DEBUG", false),
		},
		Logger: LoggerConfig{
			Level: src.get(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			Path: src.get(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:           src.get(*serverPort, "SERVER_PORT", "8000"),
			AllowedHosts:   splitList(src.get(*allowedHosts, "ALLOWED_HOSTS", "localhost,127.0.0.1")),
			MaxUploadBytes: int64(src.getInt("", "MAX_UPLOAD_BYTES", 10<<20)),
		},
		Auth: AuthConfig{
			SecretKey:      src.get("", "SECRET_KEY", ""),
			LoginRateLimit: src.getFloat("", "LOGIN_RATE_LIMIT", 0.2),
			LoginBurst:     src.getInt("", "LOGIN_BURST", 5),
		},
		Admin: AdminConfig{
			Username: src.get("", "ADMIN_USERNAME", ""),
			Password: src.get("", "ADMIN_PASSWORD", ""),
			Email:    src.get("", "ADMIN_EMAIL", ""),
		},
		Redis: RedisConfig{
			Addr:        src.get(*redisAddr, "REDIS_ADDR", ""),
			Password:    src.get("", "REDIS_PASSWORD", ""),
			DB:          src.getInt("", "REDIS_DB", 0),
			Concurrency: src.getInt("", "QUEUE_CONCURRENCY", 2),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(src.get(*kafkaBrokers, "KAFKA_BROKERS", "")),
			Topic:   src.get("", "KAFKA_TOPIC", "gallery-events"),
		},
	}

	durations := []struct {
		flagValue, key, def string
		dst                 *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "60s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*sessionDuration, "SESSION_DURATION", "336h", &cfg.Auth.SessionDuration},
	}
	for _, d := range durations {
		raw := src.get(d.flagValue, d.key, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.key, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	cfg.Database.URL = src.get(*databaseURL, "DATABASE_URL", filepath.Join(cfg.Data.Path, "gallery.db"))
	if !cfg.Database.IsPostgres() {
		if cfg.Database.URL, err = expandPath(cfg.Database.URL, ""); err != nil {
			return nil, fmt.Errorf("invalid database path: %w", err)
		}
	}

	// An explicitly empty MEDIA_URL disables media; unset means the default.
	cfg.Media.URL = "file://" + filepath.Join(cfg.Data.Path, "media")
	if *mediaURL != "" {
		cfg.Media.URL = *mediaURL
	} else if v, ok := src.lookup("MEDIA_URL"); ok {
		cfg.Media.URL = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.Path == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.Database.URL == "" {
		return errors.New("database url cannot be empty")
	}

	if c.Media.URL != "" && !strings.HasPrefix(c.Media.URL, "file://") {
		return fmt.Errorf("unsupported media url %q (must be file://...)", c.Media.URL)
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("max upload bytes must be positive")
	}

	if c.Auth.SessionDuration <= 0 {
		return errors.New("session duration must be positive")
	}
	if c.Auth.SecretKey != "" && len(c.Auth.SecretKey) != 64 {
		return fmt.Errorf("SECRET_KEY must be 64 hex characters, got %d", len(c.Auth.SecretKey))
	}

	if (c.Admin.Username == "") != (c.Admin.Password == "") {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}

	return nil
}

// HostAllowed reports whether host (without port) is in the allow-list.
func (s ServerConfig) HostAllowed(host string) bool {
	for _, h := range s.AllowedHosts {
		if h == "*" || strings.EqualFold(h, host) {
			return true
		}
		// ".example.com" matches the domain and its subdomains
		if strings.HasPrefix(h, ".") && (strings.EqualFold(h[1:], host) || strings.HasSuffix(strings.ToLower(host), strings.ToLower(h))) {
			return true
		}
	}
	return false
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned as is.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data path to ~/Gallery/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Data.Path, filepath.Join(homeDir, "Gallery", "data"))
	if err != nil {
		return err
	}
	c.Data.Path = expanded
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads KEY=value lines from a .env file into the environment.
// Variables already set in the environment win.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- user-supplied config path is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
