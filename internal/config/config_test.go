package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DB_DRIVER", "DB_PATH", "MYSQL_DSN", "FEED", "BLOB", "GCS_BUCKET",
		"ADMIN_PASSWORD_HASH", "ADMIN_TOKEN_TTL", "WAITING_LONG_POLL",
		"MANOJ_PHONES", "POOJA_PHONES", "WHATSAPP_ENABLED",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("ADMIN_PASSWORD", "shaadi")
	t.Setenv("ADMIN_TOKEN_SECRET", "test-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Port != "8080" || cfg.DBDriver != DriverSQLite || cfg.Feed != FeedMemory || cfg.Blob != BlobDir {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AdminTokenTTL != 12*time.Hour || cfg.WaitingLongPoll != 25*time.Second {
		t.Fatalf("unexpected durations: ttl=%s poll=%s", cfg.AdminTokenTTL, cfg.WaitingLongPoll)
	}
	if len(cfg.ManojPhones) != 2 || cfg.ManojPhones[1] != "9176316441" {
		t.Fatalf("unexpected manoj phones %v", cfg.ManojPhones)
	}
	if len(cfg.PoojaPhones) != 1 || cfg.PoojaPhones[0] != "8448522614" {
		t.Fatalf("unexpected pooja phones %v", cfg.PoojaPhones)
	}
	if cfg.WhatsAppEnabled {
		t.Fatalf("whatsapp must be off by default")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("MYSQL_DSN", "journey:journey@tcp(db:3306)/journey?parseTime=true")
	t.Setenv("FEED", "redis")
	t.Setenv("WAITING_LONG_POLL", "10s")
	t.Setenv("POOJA_PHONES", "8448522614,9000000000")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DBDriver != DriverMySQL || cfg.Feed != FeedRedis {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.WaitingLongPoll != 10*time.Second {
		t.Fatalf("expected 10s long poll, got %s", cfg.WaitingLongPoll)
	}
	if len(cfg.PoojaPhones) != 2 {
		t.Fatalf("expected 2 pooja phones, got %v", cfg.PoojaPhones)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"mysql without dsn", map[string]string{"DB_DRIVER": "mysql"}, "MYSQL_DSN"},
		{"unknown driver", map[string]string{"DB_DRIVER": "postgres"}, "DB_DRIVER"},
		{"unknown feed", map[string]string{"FEED": "kafka"}, "FEED"},
		{"gcs without bucket", map[string]string{"BLOB": "gcs"}, "GCS_BUCKET"},
		{"no admin password", map[string]string{"ADMIN_PASSWORD": ""}, "ADMIN_PASSWORD"},
		{"no token secret", map[string]string{"ADMIN_TOKEN_SECRET": ""}, "ADMIN_TOKEN_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ADMIN_TOKEN_TTL", "forever")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected a parse error")
	}
}
