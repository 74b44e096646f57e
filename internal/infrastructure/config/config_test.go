package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d", cfg.Server.Port)
	}
	if cfg.Feed.ChannelPrefix != "kanban:tasks:" {
		t.Errorf("feed prefix = %q", cfg.Feed.ChannelPrefix)
	}
	if cfg.JWT.ExpiresIn != time.Hour {
		t.Errorf("jwt expires = %v", cfg.JWT.ExpiresIn)
	}
	if cfg.Audit.Enabled {
		t.Error("audit must be disabled by default")
	}
	if got := cfg.Redis.GetAddr(); got != "localhost:6379" {
		t.Errorf("redis addr = %s", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9091")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_RETRY_DELAY", "2s")
	t.Setenv("AUDIT_ENABLED", "true")
	t.Setenv("AMQP_URL", "amqp://user:pw@mq:5672/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9091 {
		t.Errorf("server port = %d", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("db host = %s", cfg.Database.Host)
	}
	if cfg.Redis.RetryDelay != 2*time.Second {
		t.Errorf("retry delay = %v", cfg.Redis.RetryDelay)
	}
	if !cfg.Audit.Enabled || cfg.Audit.URL != "amqp://user:pw@mq:5672/" {
		t.Errorf("audit = %+v", cfg.Audit)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kanban.yaml")
	body := []byte("server:\n  port: 7000\nfeed:\n  channel_prefix: \"test:\"\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7000 || cfg.Feed.ChannelPrefix != "test:" {
		t.Fatalf("config file ignored: port=%d prefix=%q", cfg.Server.Port, cfg.Feed.ChannelPrefix)
	}
}

func TestValidateRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "production")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for default JWT secret in production")
	}

	t.Setenv("JWT_SECRET", "a-real-secret")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with secret: %v", err)
	}
}

func TestValidatePort(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatal("expected port validation error")
	}
}
