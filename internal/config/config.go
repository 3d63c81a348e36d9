package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Feed backends
const (
	FeedMemory = "memory"
	FeedRedis  = "redis"
)

// Blob backends
const (
	BlobDir = "dir"
	BlobGCS = "gcs"
)

// Config holds the application configuration
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
	StaticDir string `env:"STATIC_DIR"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DBPath   string `env:"DB_PATH" envDefault:"data/journey.db"`
	MySQLDSN string `env:"MYSQL_DSN"`

	Feed          string `env:"FEED" envDefault:"memory"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	Blob               string `env:"BLOB" envDefault:"dir"`
	BlobDir            string `env:"BLOB_DIR" envDefault:"data/photos"`
	BlobBaseURL        string `env:"BLOB_BASE_URL" envDefault:"/media"`
	GCSBucket          string `env:"GCS_BUCKET"`
	GCSCredentialsFile string `env:"GCS_CREDENTIALS_FILE"`

	AdminPassword     string        `env:"ADMIN_PASSWORD"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	AdminTokenSecret  string        `env:"ADMIN_TOKEN_SECRET"`
	AdminTokenTTL     time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"12h"`

	SessionIdleTTL  time.Duration `env:"SESSION_IDLE_TTL" envDefault:"12h"`
	WaitingLongPoll time.Duration `env:"WAITING_LONG_POLL" envDefault:"25s"`
	GateRateLimit   int           `env:"GATE_RATE_LIMIT" envDefault:"10"`

	WhatsAppEnabled bool          `env:"WHATSAPP_ENABLED" envDefault:"false"`
	WhatsAppDataDir string        `env:"WHATSAPP_DATA_DIR" envDefault:"data"`
	NudgeInterval   time.Duration `env:"NUDGE_INTERVAL" envDefault:"10m"`

	ManojName   string   `env:"MANOJ_NAME" envDefault:"Manoj"`
	ManojPhones []string `env:"MANOJ_PHONES" envDefault:"8825607563,9176316441"`
	PoojaName   string   `env:"POOJA_NAME" envDefault:"Pooja"`
	PoojaPhones []string `env:"POOJA_PHONES" envDefault:"8448522614"`
}

// LoadConfig loads configuration from a .env file if present, then from
// environment variables or defaults
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that depend on each other
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite3 driver")
		}
	case DriverMySQL:
		if c.MySQLDSN == "" {
			return errors.New("MYSQL_DSN is required for the mysql driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.Feed {
	case FeedMemory:
	case FeedRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis feed")
		}
	default:
		return fmt.Errorf("unsupported FEED %q", c.Feed)
	}

	switch c.Blob {
	case BlobDir:
		if c.BlobDir == "" {
			return errors.New("BLOB_DIR is required for the dir backend")
		}
	case BlobGCS:
		if c.GCSBucket == "" {
			return errors.New("GCS_BUCKET is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unsupported BLOB %q", c.Blob)
	}

	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		return errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	}
	if c.AdminTokenSecret == "" {
		return errors.New("ADMIN_TOKEN_SECRET is required")
	}
	if c.WaitingLongPoll <= 0 {
		return errors.New("WAITING_LONG_POLL must be positive")
	}
	if len(c.ManojPhones) == 0 || len(c.PoojaPhones) == 0 {
		return errors.New("both participants need at least one phone number")
	}
	return nil
}
