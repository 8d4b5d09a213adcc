package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Session storage backends
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	BotToken     string        `envconfig:"BOT_TOKEN"`
	BotTokenFile string        `envconfig:"BOT_TOKEN_FILE" default:"~/.carcamalbot.telegram.token"`
	PollTimeout  time.Duration `envconfig:"POLL_TIMEOUT" default:"10s"`

	AccessConfigPath string `envconfig:"ACCESS_CONFIG_PATH" default:"~/.carcamalbot.config.yaml"`

	SessionBackend string        `envconfig:"SESSION_BACKEND" default:"file"`
	SessionDir     string        `envconfig:"SESSION_DIR" default:"~/.carcamalbot.sessions"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"0"`
	SQLitePath     string        `envconfig:"SQLITE_PATH" default:"~/.carcamalbot.db"`
	Database       DatabaseConfig

	Workers     int           `envconfig:"WORKERS" default:"4"`
	QueueSize   int           `envconfig:"QUEUE_SIZE" default:"32"`
	TaskTimeout time.Duration `envconfig:"TASK_TIMEOUT" default:"10m"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"carcamalbot"`
	User     string `envconfig:"DB_USER" default:"carcamalbot"`
	Password string `envconfig:"DB_PASSWORD"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize expands paths, resolves the bot token and validates fields
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	cfg.BotTokenFile = expandHome(cfg.BotTokenFile)
	cfg.AccessConfigPath = expandHome(cfg.AccessConfigPath)
	cfg.SessionDir = expandHome(cfg.SessionDir)
	cfg.SQLitePath = expandHome(cfg.SQLitePath)

	cfg.BotToken = strings.TrimSpace(cfg.BotToken)
	if cfg.BotToken == "" && cfg.BotTokenFile != "" {
		data, err := os.ReadFile(cfg.BotTokenFile)
		if err != nil {
			return fmt.Errorf("BOT_TOKEN is not set and token file is unreadable: %w", err)
		}
		cfg.BotToken = strings.TrimSpace(string(data))
	}
	if cfg.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.AccessConfigPath == "" {
		return fmt.Errorf("ACCESS_CONFIG_PATH is required")
	}

	cfg.SessionBackend = strings.ToLower(strings.TrimSpace(cfg.SessionBackend))
	switch cfg.SessionBackend {
	case "":
		cfg.SessionBackend = BackendFile
	case BackendFile, BackendSQLite:
	case BackendPostgres:
		if cfg.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q; allowed: file, postgres, sqlite", cfg.SessionBackend)
	}

	if cfg.Workers <= 0 {
		return fmt.Errorf("WORKERS must be > 0")
	}
	if cfg.QueueSize < 0 {
		return fmt.Errorf("QUEUE_SIZE must be >= 0")
	}
	if cfg.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL must be >= 0")
	}
	return nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
