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
	TelegramToken      string
	DatabaseURL        string
	GroupChatID        int64
	OperatorTelegramID int64 // 0 means no operator is configured

	ReviewersFile string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	SMTPAddr string // host:port; empty disables the smtp author gateway
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	FollowupInterval  time.Duration
	ContentRequestTTL time.Duration
	PublishTimezone   string
	PublishTime       string // "HH:MM", local to PublishTimezone

	CronSpecFollowupCheck string
	CronSpecContentExpiry string
	CronSpecMailPoll      string

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	groupIDStr := os.Getenv("GROUP_CHAT_ID")
	if groupIDStr == "" {
		return nil, fmt.Errorf("GROUP_CHAT_ID is not set")
	}
	cfg.GroupChatID, err = strconv.ParseInt(groupIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GROUP_CHAT_ID: %w", err)
	}

	// Operator is optional. Without one the content-request step is skipped
	// and override/rejection confirmation are open to any group member.
	if operatorStr := os.Getenv("OPERATOR_TELEGRAM_ID"); operatorStr != "" {
		cfg.OperatorTelegramID, err = strconv.ParseInt(operatorStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OPERATOR_TELEGRAM_ID: %w", err)
		}
	}

	cfg.ReviewersFile = os.Getenv("REVIEWERS_FILE")
	if cfg.ReviewersFile == "" {
		cfg.ReviewersFile = "./reviewers.yaml"
	}

	cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = "https://api.openai.com/v1"
	}
	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is not set")
	}
	cfg.LLMModel = os.Getenv("LLM_MODEL")
	if cfg.LLMModel == "" {
		cfg.LLMModel = "gpt-4o"
	}

	cfg.SMTPAddr = os.Getenv("SMTP_ADDR")
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPass = os.Getenv("SMTP_PASS")
	cfg.SMTPFrom = os.Getenv("SMTP_FROM")
	if cfg.SMTPAddr != "" && cfg.SMTPFrom == "" {
		return nil, fmt.Errorf("SMTP_FROM is required when SMTP_ADDR is set")
	}

	cfg.FollowupInterval, err = durationFromDaysEnv("FOLLOWUP_INTERVAL_DAYS", 3)
	if err != nil {
		return nil, err
	}
	cfg.ContentRequestTTL, err = durationFromHoursEnv("CONTENT_REQUEST_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}

	cfg.PublishTimezone = os.Getenv("PUBLISH_TIMEZONE")
	if cfg.PublishTimezone == "" {
		cfg.PublishTimezone = "Asia/Taipei"
	}
	if _, err := time.LoadLocation(cfg.PublishTimezone); err != nil {
		return nil, fmt.Errorf("invalid PUBLISH_TIMEZONE: %w", err)
	}
	cfg.PublishTime = os.Getenv("PUBLISH_TIME")
	if cfg.PublishTime == "" {
		cfg.PublishTime = "09:30"
	}
	if _, err := time.Parse("15:04", cfg.PublishTime); err != nil {
		return nil, fmt.Errorf("invalid PUBLISH_TIME: %w", err)
	}

	cfg.CronSpecFollowupCheck = os.Getenv("CRON_SPEC_FOLLOWUP_CHECK")
	if cfg.CronSpecFollowupCheck == "" {
		cfg.CronSpecFollowupCheck = "0 * * * *" // Default: hourly
	}
	cfg.CronSpecContentExpiry = os.Getenv("CRON_SPEC_CONTENT_EXPIRY")
	if cfg.CronSpecContentExpiry == "" {
		cfg.CronSpecContentExpiry = "*/15 * * * *" // Default: every 15 minutes
	}
	cfg.CronSpecMailPoll = os.Getenv("CRON_SPEC_MAIL_POLL")
	if cfg.CronSpecMailPoll == "" {
		cfg.CronSpecMailPoll = "*/5 * * * *" // Default: every 5 minutes
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}

// OperatorConfigured reports whether the content-request step applies.
func (c *AppConfig) OperatorConfigured() bool {
	return c.OperatorTelegramID != 0
}

func durationFromDaysEnv(key string, fallback int) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(fallback) * 24 * time.Hour, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return time.Duration(n) * 24 * time.Hour, nil
}

func durationFromHoursEnv(key string, fallback int) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(fallback) * time.Hour, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return time.Duration(n) * time.Hour, nil
}
