package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all service configuration, read from environment variables.
type Config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"gatherly.db"`

	AuthJWTSecret    string   `env:"AUTH_JWT_SECRET,required"`
	AdminEmails      []string `env:"ADMIN_EMAILS" envSeparator:","`
	LegacyAdminEmail string   `env:"LEGACY_ADMIN_EMAIL"`

	EmailAPIKey  string `env:"EMAIL_API_KEY"`
	EmailAPIURL  string `env:"EMAIL_API_URL" envDefault:"https://api.resend.com/emails"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"Gatherly <notifications@gatherly.app>"`
	EmailReplyTo string `env:"EMAIL_REPLY_TO"`

	SMSAccountSID string `env:"SMS_ACCOUNT_SID"`
	SMSAuthToken  string `env:"SMS_AUTH_TOKEN"`
	SMSAPIURL     string `env:"SMS_API_URL" envDefault:"https://api.twilio.com/2010-04-01"`
	SMSFrom       string `env:"SMS_FROM"`

	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"5s"`
	NotifyCooldown  time.Duration `env:"NOTIFY_COOLDOWN" envDefault:"15s"`
}

// Load parses service configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
