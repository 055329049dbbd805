package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries everything the services need, including the signing secrets.
// Secrets are handed to services through constructors; nothing reads the
// environment after startup.
type Config struct {
	Port         string   `yaml:"port"`
	PostgresURL  string   `yaml:"postgres_url"`
	RedisURL     string   `yaml:"redis_url"`
	KafkaBrokers []string `yaml:"kafka_brokers"`

	Auth    AuthConfig    `yaml:"auth"`
	Payment PaymentConfig `yaml:"payment"`

	EmailServiceURL string `yaml:"email_service_url"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"-"`
}

// UnmarshalYAML accepts token_ttl as a duration string like "168h"; yaml.v3
// cannot decode those into time.Duration on its own.
func (a *AuthConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.JWTSecret != "" {
		a.JWTSecret = raw.JWTSecret
	}
	if raw.TokenTTL != "" {
		ttl, err := time.ParseDuration(raw.TokenTTL)
		if err != nil {
			return fmt.Errorf("parse auth.token_ttl: %w", err)
		}
		a.TokenTTL = ttl
	}

	return nil
}

type PaymentConfig struct {
	GatewayURL string `yaml:"gateway_url"`
	KeyID      string `yaml:"key_id"`
	KeySecret  string `yaml:"key_secret"`
	Currency   string `yaml:"currency"`
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port: "8080",
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Payment: PaymentConfig{
			Currency: "INR",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.PostgresURL == "" {
		return nil, fmt.Errorf("postgres_url is required (POSTGRES_URL)")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required (JWT_SECRET)")
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Port, "PORT")
	setString(&c.PostgresURL, "POSTGRES_URL")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Payment.GatewayURL, "PAYMENT_GATEWAY_URL")
	setString(&c.Payment.KeyID, "PAYMENT_KEY_ID")
	setString(&c.Payment.KeySecret, "PAYMENT_KEY_SECRET")
	setString(&c.Payment.Currency, "PAYMENT_CURRENCY")
	setString(&c.EmailServiceURL, "EMAIL_SERVICE_URL")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = strings.Split(v, ",")
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
