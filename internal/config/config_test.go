package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv pins every override variable so ambient process state cannot leak
// into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "POSTGRES_URL", "REDIS_URL", "KAFKA_BROKERS",
		"JWT_SECRET", "PAYMENT_GATEWAY_URL", "PAYMENT_KEY_ID",
		"PAYMENT_KEY_SECRET", "PAYMENT_CURRENCY", "EMAIL_SERVICE_URL",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadParsesDurationString(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
postgres_url: postgres://localhost/greenbasket
auth:
  jwt_secret: s3cret
  token_ttl: 36h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Auth.TokenTTL != 36*time.Hour {
		t.Fatalf("expected token ttl 36h, got %s", cfg.Auth.TokenTTL)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
postgres_url: postgres://localhost/greenbasket
auth:
  jwt_secret: s3cret
  token_ttl: soon
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unparseable token_ttl")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
postgres_url: postgres://localhost/greenbasket
auth:
  jwt_secret: s3cret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Fatalf("expected default token ttl of 7 days, got %s", cfg.Auth.TokenTTL)
	}
	if cfg.Payment.Currency != "INR" {
		t.Fatalf("expected default currency INR, got %s", cfg.Payment.Currency)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_URL", "postgres://db.internal/greenbasket")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.PostgresURL != "postgres://db.internal/greenbasket" {
		t.Fatalf("unexpected postgres url %s", cfg.PostgresURL)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("unexpected jwt secret %s", cfg.Auth.JWTSecret)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
}

func TestLoadRequiresPostgresURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	if _, err := Load(""); err == nil {
		t.Fatal("expected an error when postgres_url is missing")
	}
}
