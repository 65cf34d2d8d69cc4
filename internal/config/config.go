// Package config loads runtime settings for the server and opsctl.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every runtime setting. Keys mirror the dotted viper keys.
type Config struct {
	Env      string
	LogLevel string

	HTTP     HTTPConfig
	Auth     AuthConfig
	DB       DBConfig
	Slack    SlackConfig
	Email    EmailConfig
	Supabase SupabaseConfig
	AI       AIConfig
	ImageGen ImageGenConfig
	Solapi   SolapiConfig
	Outbox   OutboxConfig
}

type HTTPConfig struct {
	Addr               string
	RateLimitPerSecond int
	SlowRequestMS      int
	CSRFKey            string
}

type AuthConfig struct {
	SessionSecret     string
	SessionTTL        time.Duration
	SeedAdminPhone    string
	SeedAdminPassword string
}

type DBConfig struct {
	Driver       string // sqlite | postgres
	DSN          string
	SlowQueryMS  int
	MaxOpenConns int
}

type SlackConfig struct {
	WebhookURL string
}

type EmailConfig struct {
	Provider  string // resend | smtp | noop
	ResendKey string
	From      string
	NotifyTo  string
	SMTP      SMTPConfig
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
	Bucket         string
}

type AIConfig struct {
	GeminiAPIKey string
	TextModel    string
	VisionModel  string
}

type ImageGenConfig struct {
	BaseURL      string
	Token        string
	Model        string
	PollInterval time.Duration
	MaxPolls     int
}

type SolapiConfig struct {
	Username string
	Password string
	BaseURL  string
	Headless bool
	DebugDir string
}

type OutboxConfig struct {
	Interval time.Duration
}

var (
	ErrUnknownDriver   = errors.New("db.driver must be sqlite or postgres")
	ErrUnknownProvider = errors.New("email.provider must be resend, smtp or noop")
	ErrMissingSecret   = errors.New("auth.session_secret is required in production")
	ErrMissingCSRFKey  = errors.New("http.csrf_key must be 32 bytes in production")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("log.level", "info")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.rate_limit_per_second", 10)
	v.SetDefault("http.slow_request_ms", 500)
	v.SetDefault("http.csrf_key", "")

	v.SetDefault("auth.session_secret", "")
	v.SetDefault("auth.session_ttl", "24h")
	v.SetDefault("auth.seed_admin_phone", "")
	v.SetDefault("auth.seed_admin_password", "")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "masgolf.db")
	v.SetDefault("db.slow_query_ms", 100)
	v.SetDefault("db.max_open_conns", 10)

	v.SetDefault("slack.webhook_url", "")

	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.resend_key", "")
	v.SetDefault("email.from", "마쓰구골프 <noreply@masgolf.co.kr>")
	v.SetDefault("email.notify_to", "")
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")

	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.service_role_key", "")
	v.SetDefault("supabase.bucket", "blog-images")

	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.text_model", "gemini-2.5-flash")
	v.SetDefault("ai.vision_model", "gemini-2.5-flash")

	v.SetDefault("imagegen.base_url", "https://api.replicate.com/v1")
	v.SetDefault("imagegen.token", "")
	v.SetDefault("imagegen.model", "black-forest-labs/flux-kontext-pro")
	v.SetDefault("imagegen.poll_interval", "2s")
	v.SetDefault("imagegen.max_polls", 60)

	v.SetDefault("solapi.username", "")
	v.SetDefault("solapi.password", "")
	v.SetDefault("solapi.base_url", "https://console.solapi.com")
	v.SetDefault("solapi.headless", true)
	v.SetDefault("solapi.debug_dir", ".")

	v.SetDefault("outbox.interval", "1m")
}

// Load reads defaults, then the optional config file at path, then
// MASGOLF_* environment variables (MASGOLF_DB_DSN overrides db.dsn).
// PRE: path is empty or names a readable yaml/json/toml file
// POST: Returns a validated Config
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MASGOLF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Env:      v.GetString("env"),
		LogLevel: v.GetString("log.level"),
		HTTP: HTTPConfig{
			Addr:               v.GetString("http.addr"),
			RateLimitPerSecond: v.GetInt("http.rate_limit_per_second"),
			SlowRequestMS:      v.GetInt("http.slow_request_ms"),
			CSRFKey:            v.GetString("http.csrf_key"),
		},
		Auth: AuthConfig{
			SessionSecret:     v.GetString("auth.session_secret"),
			SessionTTL:        v.GetDuration("auth.session_ttl"),
			SeedAdminPhone:    v.GetString("auth.seed_admin_phone"),
			SeedAdminPassword: v.GetString("auth.seed_admin_password"),
		},
		DB: DBConfig{
			Driver:       v.GetString("db.driver"),
			DSN:          v.GetString("db.dsn"),
			SlowQueryMS:  v.GetInt("db.slow_query_ms"),
			MaxOpenConns: v.GetInt("db.max_open_conns"),
		},
		Slack: SlackConfig{WebhookURL: v.GetString("slack.webhook_url")},
		Email: EmailConfig{
			Provider:  v.GetString("email.provider"),
			ResendKey: v.GetString("email.resend_key"),
			From:      v.GetString("email.from"),
			NotifyTo:  v.GetString("email.notify_to"),
			SMTP: SMTPConfig{
				Host:     v.GetString("email.smtp.host"),
				Port:     v.GetInt("email.smtp.port"),
				Username: v.GetString("email.smtp.username"),
				Password: v.GetString("email.smtp.password"),
			},
		},
		Supabase: SupabaseConfig{
			URL:            strings.TrimRight(v.GetString("supabase.url"), "/"),
			ServiceRoleKey: v.GetString("supabase.service_role_key"),
			Bucket:         v.GetString("supabase.bucket"),
		},
		AI: AIConfig{
			GeminiAPIKey: v.GetString("ai.gemini_api_key"),
			TextModel:    v.GetString("ai.text_model"),
			VisionModel:  v.GetString("ai.vision_model"),
		},
		ImageGen: ImageGenConfig{
			BaseURL:      strings.TrimRight(v.GetString("imagegen.base_url"), "/"),
			Token:        v.GetString("imagegen.token"),
			Model:        v.GetString("imagegen.model"),
			PollInterval: v.GetDuration("imagegen.poll_interval"),
			MaxPolls:     v.GetInt("imagegen.max_polls"),
		},
		Solapi: SolapiConfig{
			Username: v.GetString("solapi.username"),
			Password: v.GetString("solapi.password"),
			BaseURL:  strings.TrimRight(v.GetString("solapi.base_url"), "/"),
			Headless: v.GetBool("solapi.headless"),
			DebugDir: v.GetString("solapi.debug_dir"),
		},
		Outbox: OutboxConfig{Interval: v.GetDuration("outbox.interval")},
	}
}

// Validate rejects unknown drivers and providers, and production configs
// without signing secrets.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return ErrUnknownDriver
	}
	switch c.Email.Provider {
	case "resend", "smtp", "noop":
	default:
		return ErrUnknownProvider
	}
	if c.IsProduction() {
		if c.Auth.SessionSecret == "" {
			return ErrMissingSecret
		}
		if len(c.HTTP.CSRFKey) != 32 {
			return ErrMissingCSRFKey
		}
	}
	return nil
}

// IsProduction reports whether env is production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// SlowRequest returns the slow-request threshold as a duration.
func (c *Config) SlowRequest() time.Duration {
	return time.Duration(c.HTTP.SlowRequestMS) * time.Millisecond
}

// SlowQuery returns the slow-query threshold as a duration.
func (c *Config) SlowQuery() time.Duration {
	return time.Duration(c.DB.SlowQueryMS) * time.Millisecond
}
