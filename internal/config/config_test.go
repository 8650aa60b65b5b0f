//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
database:
  url: postgres://localhost/adtopia
supabase:
  url: https://abc.supabase.co
  service_role_key: service-key
stripe:
  webhook_secret: whsec_yaml
`

func TestLoadConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, minimalYAML), false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.HTTP.Port != 8080 || cfg.HTTP.RequestTimeout != 15*time.Second {
			t.Errorf("unexpected http defaults: %+v", cfg.HTTP)
		}
		if cfg.Queue.Driver != "memory" || cfg.Queue.Concurrency != 10 {
			t.Errorf("unexpected queue defaults: %+v", cfg.Queue)
		}
		if cfg.Reconcile.PendingTTL != 24*time.Hour || cfg.RateLimit.ConversionsPerMinute != 60 {
			t.Errorf("unexpected worker defaults: %+v %+v", cfg.Reconcile, cfg.RateLimit)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("unexpected log defaults: %+v", cfg.Log)
		}
	})

	t.Run("environment overrides yaml", func(t *testing.T) {
		t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_env")
		t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "https://env.supabase.co")
		t.Setenv("TWILIO_AUTH_KEY", "twilio-token")
		t.Setenv("RESEND_API_KEY", " re_key ")

		cfg, err := LoadConfig(writeConfig(t, minimalYAML), true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Stripe.WebhookSecret != "whsec_env" {
			t.Errorf("webhook secret = %q", cfg.Stripe.WebhookSecret)
		}
		if cfg.Supabase.URL != "https://env.supabase.co" {
			t.Errorf("supabase url = %q", cfg.Supabase.URL)
		}
		if cfg.Twilio.AuthToken != "twilio-token" || cfg.Resend.APIKey != "re_key" {
			t.Errorf("vendor keys not applied: %+v %+v", cfg.Twilio, cfg.Resend)
		}
		if !cfg.Runtime.Dev {
			t.Error("dev flag not propagated")
		}
	})

	t.Run("env-only deployment without a file", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://env/adtopia")
		t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "https://env.supabase.co")
		t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "srk")
		t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_env")

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Database.URL != "postgres://env/adtopia" {
			t.Errorf("database url = %q", cfg.Database.URL)
		}
	})

	t.Run("missing required values fail validation", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "log:\n  level: debug\n"), false)
		if err == nil || !strings.Contains(err.Error(), "validate config") {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("unknown queue driver is rejected", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, minimalYAML+"queue:\n  driver: kafka\n"), false)
		if err == nil {
			t.Fatal("expected error for unknown queue driver")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "database: [unterminated"), false)
		if err == nil || !strings.Contains(err.Error(), "parse config") {
			t.Fatalf("expected parse error, got %v", err)
		}
	})
}
