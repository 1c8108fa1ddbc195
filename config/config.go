// Package config loads application configuration. Values come from an
// optional YAML file first, then environment variables override it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Backend selects the document store implementation.
type Backend string

const (
	BackendJSONBin  Backend = "jsonbin"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	DocStore  DocStoreConfig  `yaml:"docstore"`
	Session   SessionConfig   `yaml:"session"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	HTTP      HTTPConfig      `yaml:"http"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string      `yaml:"name"`
	Environment Environment `yaml:"environment"`
	Version     string      `yaml:"version"`
	LogLevel    string      `yaml:"log_level"`

	// Timezone for cron jobs and date keys.
	Timezone string         `yaml:"timezone"`
	Location *time.Location `yaml:"-"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DocStoreConfig selects and configures the document store backend.
type DocStoreConfig struct {
	Backend Backend `yaml:"backend"`

	// JSONBin backend.
	JSONBinBaseURL   string `yaml:"jsonbin_base_url"`
	JSONBinID        string `yaml:"jsonbin_id"`
	JSONBinMasterKey string `yaml:"jsonbin_master_key"`

	// Postgres backend.
	PostgresURL string `yaml:"postgres_url"`

	// SQLite backend.
	SQLitePath string `yaml:"sqlite_path"`

	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig holds login session settings.
type SessionConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Secret        string        `yaml:"secret"`
	TTL           time.Duration `yaml:"ttl"`
}

// TelegramConfig holds digest notifier settings.
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`

	// DigestUser is the record whose overview is pushed.
	DigestUser string `yaml:"digest_user"`
}

// SchedulerConfig holds periodic job settings.
type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`

	// DigestTime is the HH:MM push time for the morning digest.
	DigestTime string `yaml:"digest_time"`

	// StreakRefreshTime is the HH:MM time for the nightly streak rebuild.
	StreakRefreshTime string `yaml:"streak_refresh_time"`
}

// HTTPConfig holds server settings.
type HTTPConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	IdleTimeout        time.Duration `yaml:"idle_timeout"`
	EnableCORS         bool          `yaml:"enable_cors"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
}

// Load reads the optional YAML file named by STUDYDECK_CONFIG and then
// applies environment overrides.
func Load() (*Config, error) {
	cfg := defaults()

	if path := getEnv("STUDYDECK_CONFIG", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		loc = time.UTC
	}
	cfg.App.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:            "studydeck",
			Environment:     EnvDevelopment,
			Version:         "0.1.0",
			LogLevel:        "info",
			Timezone:        "UTC",
			ShutdownTimeout: 30 * time.Second,
		},
		DocStore: DocStoreConfig{
			Backend:        BackendJSONBin,
			JSONBinBaseURL: "https://api.jsonbin.io/v3",
			SQLitePath:     "studydeck.db",
			Timeout:        15 * time.Second,
		},
		Session: SessionConfig{
			RedisAddr: "localhost:6379",
			TTL:       24 * time.Hour,
		},
		Scheduler: SchedulerConfig{
			DigestTime:        "07:30",
			StreakRefreshTime: "00:05",
		},
		HTTP: HTTPConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       15 * time.Second,
			IdleTimeout:        60 * time.Second,
			EnableCORS:         true,
			AllowedOrigins:     []string{"*"},
			RateLimitPerMinute: 120,
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Environment = Environment(getEnv("APP_ENV", string(cfg.App.Environment)))
	cfg.App.Version = getEnv("APP_VERSION", cfg.App.Version)
	cfg.App.LogLevel = getEnv("APP_LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.Timezone = getEnv("APP_TIMEZONE", cfg.App.Timezone)
	cfg.App.ShutdownTimeout = getEnvDuration("APP_SHUTDOWN_TIMEOUT", cfg.App.ShutdownTimeout)

	cfg.DocStore.Backend = Backend(getEnv("DOCSTORE_BACKEND", string(cfg.DocStore.Backend)))
	cfg.DocStore.JSONBinBaseURL = getEnv("JSONBIN_BASE_URL", cfg.DocStore.JSONBinBaseURL)
	cfg.DocStore.JSONBinID = getEnv("JSONBIN_BIN_ID", cfg.DocStore.JSONBinID)
	cfg.DocStore.JSONBinMasterKey = getEnv("JSONBIN_MASTER_KEY", cfg.DocStore.JSONBinMasterKey)
	cfg.DocStore.PostgresURL = getEnv("DATABASE_URL", cfg.DocStore.PostgresURL)
	cfg.DocStore.SQLitePath = getEnv("SQLITE_PATH", cfg.DocStore.SQLitePath)
	cfg.DocStore.Timeout = getEnvDuration("DOCSTORE_TIMEOUT", cfg.DocStore.Timeout)

	cfg.Session.RedisAddr = getEnv("REDIS_ADDR", cfg.Session.RedisAddr)
	cfg.Session.RedisPassword = getEnv("REDIS_PASSWORD", cfg.Session.RedisPassword)
	cfg.Session.RedisDB = getEnvInt("REDIS_DB", cfg.Session.RedisDB)
	cfg.Session.Secret = getEnv("SESSION_SECRET", cfg.Session.Secret)
	cfg.Session.TTL = getEnvDuration("SESSION_TTL", cfg.Session.TTL)

	cfg.Telegram.Enabled = getEnvBool("TELEGRAM_ENABLED", cfg.Telegram.Enabled)
	cfg.Telegram.Token = getEnv("TELEGRAM_BOT_TOKEN", cfg.Telegram.Token)
	cfg.Telegram.ChatID = getEnvInt64("TELEGRAM_CHAT_ID", cfg.Telegram.ChatID)
	cfg.Telegram.DigestUser = getEnv("TELEGRAM_DIGEST_USER", cfg.Telegram.DigestUser)

	cfg.Scheduler.Enabled = getEnvBool("SCHEDULER_ENABLED", cfg.Scheduler.Enabled)
	cfg.Scheduler.DigestTime = getEnv("SCHEDULER_DIGEST_TIME", cfg.Scheduler.DigestTime)
	cfg.Scheduler.StreakRefreshTime = getEnv("SCHEDULER_STREAK_REFRESH_TIME", cfg.Scheduler.StreakRefreshTime)

	cfg.HTTP.Host = getEnv("HTTP_HOST", cfg.HTTP.Host)
	cfg.HTTP.Port = getEnvInt("HTTP_PORT", cfg.HTTP.Port)
	cfg.HTTP.ReadTimeout = getEnvDuration("HTTP_READ_TIMEOUT", cfg.HTTP.ReadTimeout)
	cfg.HTTP.WriteTimeout = getEnvDuration("HTTP_WRITE_TIMEOUT", cfg.HTTP.WriteTimeout)
	cfg.HTTP.IdleTimeout = getEnvDuration("HTTP_IDLE_TIMEOUT", cfg.HTTP.IdleTimeout)
	cfg.HTTP.EnableCORS = getEnvBool("HTTP_ENABLE_CORS", cfg.HTTP.EnableCORS)
	cfg.HTTP.RateLimitPerMinute = getEnvInt("HTTP_RATE_LIMIT_PER_MINUTE", cfg.HTTP.RateLimitPerMinute)
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch c.DocStore.Backend {
	case BackendJSONBin:
		if c.DocStore.JSONBinID == "" {
			return fmt.Errorf("jsonbin backend requires JSONBIN_BIN_ID")
		}
		if c.DocStore.JSONBinMasterKey == "" {
			return fmt.Errorf("jsonbin backend requires JSONBIN_MASTER_KEY")
		}
	case BackendPostgres:
		if c.DocStore.PostgresURL == "" {
			return fmt.Errorf("postgres backend requires DATABASE_URL")
		}
	case BackendSQLite:
		if c.DocStore.SQLitePath == "" {
			return fmt.Errorf("sqlite backend requires SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown docstore backend %q", c.DocStore.Backend)
	}

	if c.Session.Secret == "" && c.App.Environment == EnvProduction {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	if c.Telegram.Enabled {
		if c.Telegram.Token == "" {
			return fmt.Errorf("telegram digest requires TELEGRAM_BOT_TOKEN")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram digest requires TELEGRAM_CHAT_ID")
		}
		if c.Telegram.DigestUser == "" {
			return fmt.Errorf("telegram digest requires TELEGRAM_DIGEST_USER")
		}
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port %d", c.HTTP.Port)
	}
	return nil
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
