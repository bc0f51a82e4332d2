package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL string // Postgres; when empty SQLitePath is used
	SQLitePath  string
	LogLevel    string
	Environment string

	Email    EmailSettings
	Twilio   TwilioSettings
	NotifyTo Recipients

	CronSpecDispatch string
	JobTimeout       time.Duration

	TelegramToken       string // console is disabled when empty
	AdminTelegramID     int64
	ReadOnlyTelegramIDs []int64

	MetricsAddr             string // metrics endpoint is disabled when empty
	BreakerFailureThreshold uint32
	BreakerOpenTimeout      time.Duration
	EphemeralTTL            time.Duration
}

type EmailSettings struct {
	User     string
	Password string
	FromName string
	SMTPHost string
	SMTPPort int
}

type TwilioSettings struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
}

// Recipients are the default destinations for scheduled reminders.
type Recipients struct {
	Email    string
	WhatsApp string
}

// Load reads configuration from environment variables and .env file (if present).
// Channel credentials are not required here; a channel without them is reported
// as unconfigured when it is used.
func Load() (*AppConfig, error) {
	// godotenv.Load does not override variables that are already set.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SQLitePath = getenv("SQLITE_PATH", "renewal_notifier.db")

	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getenv("ENVIRONMENT", "development"))

	cfg.Email = EmailSettings{
		User:     os.Getenv("EMAIL_USER"),
		Password: os.Getenv("EMAIL_PASSWORD"),
		FromName: getenv("EMAIL_FROM_NAME", "TrackingDude"),
		SMTPHost: getenv("SMTP_HOST", "smtp.gmail.com"),
	}
	if cfg.Email.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}

	cfg.Twilio = TwilioSettings{
		AccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		AuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		WhatsAppFrom: os.Getenv("TWILIO_WHATSAPP_FROM"),
	}
	cfg.NotifyTo = Recipients{
		Email:    os.Getenv("NOTIFY_EMAIL_TO"),
		WhatsApp: os.Getenv("NOTIFY_WHATSAPP_TO"),
	}

	cfg.CronSpecDispatch = getenv("CRON_SPEC_DISPATCH", "0 9 * * *") // Default: 9 AM daily
	if cfg.JobTimeout, err = getDuration("JOB_TIMEOUT", 10*time.Minute); err != nil {
		return nil, err
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	if cfg.ReadOnlyTelegramIDs, err = parseIDList(os.Getenv("READONLY_TELEGRAM_IDS")); err != nil {
		return nil, fmt.Errorf("invalid READONLY_TELEGRAM_IDS: %w", err)
	}

	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	threshold, err := getInt("BREAKER_FAILURE_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	if threshold < 1 {
		return nil, fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be at least 1, got %d", threshold)
	}
	cfg.BreakerFailureThreshold = uint32(threshold)
	if cfg.BreakerOpenTimeout, err = getDuration("BREAKER_OPEN_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}
	if cfg.EphemeralTTL, err = getDuration("EPHEMERAL_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsReadOnly reports whether telegramID was granted read-only access.
func (c *AppConfig) IsReadOnly(telegramID int64) bool {
	for _, id := range c.ReadOnlyTelegramIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseIDList(value string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
