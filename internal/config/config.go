package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	DefaultTenant  string        `mapstructure:"DEFAULT_TENANT"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL    string        `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience   string        `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	RedisURL        string        `mapstructure:"REDIS_URL"`
	OpenAIAPIKey    string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel     string        `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL   string        `mapstructure:"OPENAI_BASE_URL"`
	SummaryCacheTTL time.Duration `mapstructure:"SUMMARY_CACHE_TTL"`

	OverviewLocale          string `mapstructure:"OVERVIEW_LOCALE"`
	OverviewTimezone        string `mapstructure:"OVERVIEW_TIMEZONE"`
	OverviewFallbackEnabled bool   `mapstructure:"OVERVIEW_FALLBACK_ENABLED"`
	OverviewFallbackLimit   int    `mapstructure:"OVERVIEW_FALLBACK_LIMIT"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"DEFAULT_TENANT", "CORS_ORIGINS", "AUTH_ISSUER", "AUTH_JWKS_URL",
	"AUTH_AUDIENCE", "AUTH_SIGNING_KEY", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"REQUEST_TIMEOUT", "REDIS_URL", "OPENAI_API_KEY", "OPENAI_MODEL",
	"OPENAI_BASE_URL", "SUMMARY_CACHE_TTL", "OVERVIEW_LOCALE",
	"OVERVIEW_TIMEZONE", "OVERVIEW_FALLBACK_ENABLED", "OVERVIEW_FALLBACK_LIMIT",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DEFAULT_TENANT", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("SUMMARY_CACHE_TTL", "15m")
	v.SetDefault("OVERVIEW_LOCALE", "nl")
	v.SetDefault("OVERVIEW_TIMEZONE", "Europe/Amsterdam")
	// Pre-production: show a sample of patients when nothing happened in
	// the window. Turn off once the ward has real activity data.
	v.SetDefault("OVERVIEW_FALLBACK_ENABLED", true)
	v.SetDefault("OVERVIEW_FALLBACK_LIMIT", 20)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ENV=development: all requests without a token get admin access.")
	}
	if cfg.OverviewFallbackEnabled {
		log.Printf("WARNING: handover overview falls back to %d sample patients when the window has no activity.", cfg.OverviewFallbackLimit)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Location resolves OVERVIEW_TIMEZONE. The handover day boundary is local
// ward time, not UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.OverviewTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.OverviewTimezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.OverviewTimezone, err)
	}
	return loc, nil
}

// Language parses OVERVIEW_LOCALE as a BCP 47 tag.
func (c *Config) Language() (language.Tag, error) {
	tag, err := language.Parse(c.OverviewLocale)
	if err != nil {
		return language.Und, fmt.Errorf("parse OVERVIEW_LOCALE %q: %w", c.OverviewLocale, err)
	}
	return tag, nil
}

// Validate checks that the configuration is safe to run. Outside development
// either AUTH_ISSUER or AUTH_SIGNING_KEY must be set so tokens are verified.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_ISSUER or AUTH_SIGNING_KEY must be set when ENV=%q", c.Env)
	}
	return c.ValidateOverview()
}

// ValidateOverview checks only the settings the overview and summary
// services read. The offline overview command uses it since it never
// verifies tokens.
func (c *Config) ValidateOverview() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Language(); err != nil {
		return err
	}
	if c.OverviewFallbackEnabled && c.OverviewFallbackLimit < 1 {
		return fmt.Errorf("OVERVIEW_FALLBACK_LIMIT must be at least 1 when the fallback is enabled, got %d", c.OverviewFallbackLimit)
	}
	if c.SummaryCacheTTL < 0 {
		return fmt.Errorf("SUMMARY_CACHE_TTL must not be negative")
	}
	return nil
}
