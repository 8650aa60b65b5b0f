package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"adtopia/internal/domain/model"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url" validate:"required"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type SupabaseConfig struct {
	URL            string `yaml:"url" validate:"required,url"`
	ServiceRoleKey string `yaml:"service_role_key" validate:"required"`
	JWTSecret      string `yaml:"jwt_secret"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret" validate:"required"`
}

type ResendConfig struct {
	APIKey string `yaml:"api_key"`
	From   string `yaml:"from"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number" validate:"omitempty,e164"`
}

type AIConfig struct {
	OpenAIKey    string `yaml:"openai_key"`
	GeminiKey    string `yaml:"gemini_key"`
	GeminiURL    string `yaml:"gemini_url"`
	DefaultModel string `yaml:"default_model"`
	MaxOutput    int    `yaml:"max_output"`
}

type AlertsConfig struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

type QueueConfig struct {
	Driver      string `yaml:"driver" validate:"oneof=memory asynq"`
	Concurrency int    `yaml:"concurrency" validate:"min=1"`
	Buffer      int    `yaml:"buffer"`
}

type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type ReconcileConfig struct {
	Interval   time.Duration `yaml:"interval"`
	PendingTTL time.Duration `yaml:"pending_ttl"`
}

type RateLimitConfig struct {
	ConversionsPerMinute int `yaml:"conversions_per_minute"`
}

// GTMMSchedule is one cron-style prompt generation job.
type GTMMSchedule struct {
	Cron    string              `yaml:"cron" validate:"required"`
	Execute bool                `yaml:"execute"`
	Request model.PromptRequest `yaml:"request"`
}

type GTMMConfig struct {
	Schedules []GTMMSchedule `yaml:"schedules" validate:"dive"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Supabase  SupabaseConfig  `yaml:"supabase"`
	Stripe    StripeConfig    `yaml:"stripe"`
	Resend    ResendConfig    `yaml:"resend"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	AI        AIConfig        `yaml:"ai"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Queue     QueueConfig     `yaml:"queue"`
	Sync      SyncConfig      `yaml:"sync"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	GTMM      GTMMConfig      `yaml:"gtmm"`

	Runtime RuntimeConfig `yaml:"-"`
}

// envOverrides maps the deployment environment onto config fields. These are the
// variable names the hosted Supabase/Stripe/Resend/Twilio setup already exports.
var envOverrides = []struct {
	name string
	set  func(c *Config, v string)
}{
	{"NEXT_PUBLIC_SUPABASE_URL", func(c *Config, v string) { c.Supabase.URL = v }},
	{"SUPABASE_SERVICE_ROLE_KEY", func(c *Config, v string) { c.Supabase.ServiceRoleKey = v }},
	{"SUPABASE_JWT_SECRET", func(c *Config, v string) { c.Supabase.JWTSecret = v }},
	{"DATABASE_URL", func(c *Config, v string) { c.Database.URL = v }},
	{"REDIS_URL", func(c *Config, v string) { c.Redis.URL = v }},
	{"STRIPE_SECRET_KEY", func(c *Config, v string) { c.Stripe.SecretKey = v }},
	{"STRIPE_WEBHOOK_SECRET", func(c *Config, v string) { c.Stripe.WebhookSecret = v }},
	{"RESEND_API_KEY", func(c *Config, v string) { c.Resend.APIKey = v }},
	{"TWILIO_ACCOUNT_SID", func(c *Config, v string) { c.Twilio.AccountSID = v }},
	{"TWILIO_AUTH_KEY", func(c *Config, v string) { c.Twilio.AuthToken = v }},
	{"TWILIO_FROM_NUMBER", func(c *Config, v string) { c.Twilio.FromNumber = v }},
	{"OPENAI_API_KEY", func(c *Config, v string) { c.AI.OpenAIKey = v }},
	{"GEMINI_API_KEY", func(c *Config, v string) { c.AI.GeminiKey = v }},
	{"TELEGRAM_ALERT_TOKEN", func(c *Config, v string) { c.Alerts.TelegramToken = v }},
}

// LoadConfig reads the YAML file at path (optional when every required value
// comes from the environment), applies .env and environment overrides, fills
// defaults and validates the result.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// env-only deployment
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg, os.LookupEnv)
	applyDefaults(&cfg)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	for _, o := range envOverrides {
		if v, ok := lookup(o.name); ok && strings.TrimSpace(v) != "" {
			o.set(cfg, strings.TrimSpace(v))
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 15 * time.Second
	}
	if cfg.HTTP.MaxBodyBytes <= 0 {
		cfg.HTTP.MaxBodyBytes = 64 << 10
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "localhost:6379"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Resend.From == "" {
		cfg.Resend.From = "AdTopia <hello@adtopia.io>"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.MaxOutput <= 0 {
		cfg.AI.MaxOutput = 2048
	}
	if cfg.Queue.Driver == "" {
		cfg.Queue.Driver = "memory"
	}
	if cfg.Queue.Concurrency <= 0 {
		cfg.Queue.Concurrency = 10
	}
	if cfg.Queue.Buffer <= 0 {
		cfg.Queue.Buffer = 256
	}
	if cfg.Sync.Interval <= 0 {
		cfg.Sync.Interval = time.Hour
	}
	if cfg.Sync.LockTTL <= 0 {
		cfg.Sync.LockTTL = 10 * time.Minute
	}
	if cfg.Reconcile.Interval <= 0 {
		cfg.Reconcile.Interval = 30 * time.Minute
	}
	if cfg.Reconcile.PendingTTL <= 0 {
		cfg.Reconcile.PendingTTL = 24 * time.Hour
	}
	if cfg.RateLimit.ConversionsPerMinute <= 0 {
		cfg.RateLimit.ConversionsPerMinute = 60
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// StripeEnabled reports whether outbound Stripe API calls are possible.
func (c *Config) StripeEnabled() bool { return c.Stripe.SecretKey != "" }
