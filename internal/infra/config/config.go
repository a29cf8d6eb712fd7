package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP HTTPConfig `yaml:"http"`
	Auth AuthConfig `yaml:"auth"`
	FAQ  FAQConfig  `yaml:"faq"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// AuthConfig controls access token validation.
type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"tokenTtl"`
}

// FAQConfig controls the question service and its backends.
type FAQConfig struct {
	NotifyTimeout time.Duration  `yaml:"notifyTimeout"`
	Postgres      PostgresConfig `yaml:"postgres"`
	Mongo         MongoConfig    `yaml:"mongo"`
	Valkey        ValkeyConfig   `yaml:"valkey"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// MongoConfig points at the document store. It takes precedence over Postgres
// when a URI is set.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// ValkeyConfig contains connection information for notification delivery.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// Load reads configuration from a YAML file, an optional .env file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv exports variables from path without overriding ones already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = parsed
		}
	}
	if v := os.Getenv("FAQ_NOTIFY_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.FAQ.NotifyTimeout = parsed
		}
	}
	if v := os.Getenv("FAQ_POSTGRES_DSN"); v != "" {
		cfg.FAQ.Postgres.DSN = v
	}
	if v := os.Getenv("FAQ_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.FAQ.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("FAQ_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.FAQ.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("FAQ_MONGO_URI"); v != "" {
		cfg.FAQ.Mongo.URI = v
	}
	if v := os.Getenv("FAQ_MONGO_DATABASE"); v != "" {
		cfg.FAQ.Mongo.Database = v
	}
	if v := os.Getenv("FAQ_VALKEY_ENABLED"); v != "" {
		cfg.FAQ.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("FAQ_VALKEY_ADDR"); v != "" {
		cfg.FAQ.Valkey.Addr = v
	}
	if v := os.Getenv("FAQ_VALKEY_PREFIX"); v != "" {
		cfg.FAQ.Valkey.Prefix = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/metrics",
				},
			},
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		FAQ: FAQConfig{
			NotifyTimeout: 5 * time.Second,
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
			Mongo: MongoConfig{
				Database: "healthcare",
			},
			Valkey: ValkeyConfig{
				Prefix: "notify",
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("auth.secret cannot be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.tokenTtl must be positive")
	}
	if c.FAQ.NotifyTimeout < 0 {
		return errors.New("faq.notifyTimeout cannot be negative")
	}
	if c.FAQ.Mongo.URI != "" && strings.TrimSpace(c.FAQ.Mongo.Database) == "" {
		return errors.New("faq.mongo.database cannot be empty when a mongo uri is set")
	}
	if c.FAQ.Valkey.Enabled && strings.TrimSpace(c.FAQ.Valkey.Addr) == "" {
		return errors.New("faq.valkey.addr cannot be empty when valkey is enabled")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}
