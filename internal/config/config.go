package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" or "2h" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int    `yaml:"port"`          // Listen port, default 8080.
	Mode         string `yaml:"mode"`          // gin mode: debug or release.
	FrontendHost string `yaml:"frontend-host"` // Base URL used in password-reset links.
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // PostgreSQL or SQLite DSN.
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret           string   `yaml:"secret"`             // HS256 signing secret.
	Expiry           Duration `yaml:"expiry"`             // Session token lifetime.
	ResetTokenExpiry Duration `yaml:"reset-token-expiry"` // Password-reset token lifetime.
}

// RedisConfig holds optional cache settings. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ProviderConfig holds one LLM vendor's credentials.
type ProviderConfig struct {
	APIKey  string `yaml:"api-key"`
	BaseURL string `yaml:"base-url"` // Override for tests and proxies; empty uses the vendor default.
}

// ProvidersConfig holds all LLM vendor credentials.
type ProvidersConfig struct {
	OpenAI    ProviderConfig `yaml:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic"`
	Gemini    ProviderConfig `yaml:"gemini"`
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	FromName  string `yaml:"from-name"`
	FromEmail string `yaml:"from-email"`
	TLS       bool   `yaml:"tls"`
}

// Enabled reports whether mail delivery is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.FromEmail != ""
}

// SchedulerConfig holds the post-publisher loop settings.
type SchedulerConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"` // Scan interval, default 1m.
}

// QuotaConfig holds usage-accounting policy settings.
type QuotaConfig struct {
	DefaultQuota         int64 `yaml:"default-quota"`          // Quota assigned to new users, default 1000.
	RecordSuperuserUsage *bool `yaml:"record-superuser-usage"` // Whether superuser calls append ledger rows, default true.
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`       // logrus level, default info.
	File       string `yaml:"file"`        // Log file path; empty logs to stdout only.
	MaxSizeMB  int    `yaml:"max-size-mb"` // Rotation threshold, default 100.
	MaxBackups int    `yaml:"max-backups"` // Rotated files kept, default 5.
	MaxAgeDays int    `yaml:"max-age-days"`
	Compress   bool   `yaml:"compress"`
}

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Redis     RedisConfig     `yaml:"redis"`
	Providers ProvidersConfig `yaml:"providers"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Quota     QuotaConfig     `yaml:"quota"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RecordSuperuserUsage resolves the superuser ledger policy with its default.
func (c *Config) RecordSuperuserUsage() bool {
	if c.Quota.RecordSuperuserUsage == nil {
		return true
	}
	return *c.Quota.RecordSuperuserUsage
}

// Load reads configuration from a YAML file and applies environment overrides.
// A missing file is not an error; the configuration then comes entirely from
// defaults and the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		data, errRead := os.ReadFile(path)
		if errRead != nil {
			if !os.IsNotExist(errRead) {
				return nil, fmt.Errorf("config: read %s: %w", path, errRead)
			}
		} else if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("config: database dsn is required (set database.dsn or DATABASE_DSN)")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("config: jwt secret is required (set jwt.secret or JWT_SECRET)")
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Mode: "release",
		},
		JWT: JWTConfig{
			Expiry:           Duration(24 * time.Hour),
			ResetTokenExpiry: Duration(time.Hour),
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Interval: Duration(time.Minute),
		},
		Quota: QuotaConfig{
			DefaultQuota: 1000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if parsed, errParse := strconv.Atoi(v); errParse == nil {
			cfg.Server.Port = parsed
		}
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Providers.OpenAI.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Providers.Anthropic.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Providers.Gemini.APIKey = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
}
