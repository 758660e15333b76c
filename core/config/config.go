package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// PlatformTelegram serves documents through a Telegram bot.
	PlatformTelegram = "telegram"
	// PlatformDiscord serves documents through a Discord bot.
	PlatformDiscord = "discord"
)

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// DiscordConfig holds Discord bot settings.
type DiscordConfig struct {
	Token   string `yaml:"token" envconfig:"DISCORD_TOKEN"`
	Prefix  string `yaml:"prefix" envconfig:"DISCORD_PREFIX"`
	AdminID string `yaml:"admin_id" envconfig:"DISCORD_ADMIN_ID"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	ErrorsFile  string `yaml:"errors_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// PagerConfig tunes the pagination sessions started by the bot.
type PagerConfig struct {
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds" envconfig:"PAGER_IDLE_TIMEOUT_SECONDS"`
	InputTimeoutSeconds int    `yaml:"input_timeout_seconds" envconfig:"PAGER_INPUT_TIMEOUT_SECONDS"`
	NoticeDelaySeconds  int    `yaml:"notice_delay_seconds" envconfig:"PAGER_NOTICE_DELAY_SECONDS"`
	Compact             bool   `yaml:"compact" envconfig:"PAGER_COMPACT"`
	DisableInput        bool   `yaml:"disable_input" envconfig:"PAGER_DISABLE_INPUT"`
	AskPrompt           string `yaml:"ask_prompt"`
	TooSlowPrompt       string `yaml:"too_slow_prompt"`
}

// IdleTimeout returns the configured idle timeout, zero means the built-in default.
func (p PagerConfig) IdleTimeout() time.Duration {
	return time.Duration(p.IdleTimeoutSeconds) * time.Second
}

// InputTimeout returns the configured numeric input timeout.
func (p PagerConfig) InputTimeout() time.Duration {
	return time.Duration(p.InputTimeoutSeconds) * time.Second
}

// NoticeDelay returns how long the "too slow" notice stays visible.
func (p PagerConfig) NoticeDelay() time.Duration {
	return time.Duration(p.NoticeDelaySeconds) * time.Second
}

// DocumentsConfig points at the YAML documents shipped with the bot.
type DocumentsConfig struct {
	Dir         string `yaml:"dir" envconfig:"DOCUMENTS_DIR"`
	SeedOnStart bool   `yaml:"seed_on_start" envconfig:"DOCUMENTS_SEED_ON_START"`
}

// RuntimeConfig holds process level settings.
type RuntimeConfig struct {
	LockFile string `yaml:"lock_file" envconfig:"LOCK_FILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": control button presses
// - "message": standard text messages, including page number replies
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the bot configuration.
type Config struct {
	Platform  string          `yaml:"platform" envconfig:"PLATFORM"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Discord   DiscordConfig   `yaml:"discord"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Pager     PagerConfig     `yaml:"pager"`
	Database  DatabaseConfig  `yaml:"database"`
	Documents DocumentsConfig `yaml:"documents"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields for the selected platform and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	platform := strings.ToLower(strings.TrimSpace(cfg.Platform))
	if platform == "" {
		platform = PlatformTelegram
	}
	switch platform {
	case PlatformTelegram:
		if err := normalizeTelegram(cfg); err != nil {
			return err
		}
	case PlatformDiscord:
		if strings.TrimSpace(cfg.Discord.Token) == "" {
			return fmt.Errorf("discord token is required")
		}
		if strings.TrimSpace(cfg.Discord.Prefix) == "" {
			cfg.Discord.Prefix = "!"
		}
	default:
		return fmt.Errorf("invalid platform %q; allowed: telegram, discord", cfg.Platform)
	}
	cfg.Platform = platform

	if err := normalizePager(&cfg.Pager); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Documents.Dir) == "" {
		cfg.Documents.Dir = "documents"
	}
	if cfg.Database.Enabled && strings.TrimSpace(cfg.Database.Name) == "" {
		return fmt.Errorf("database.name is required when database.enabled is true")
	}
	if cfg.Database.MigrationsDir == "" {
		cfg.Database.MigrationsDir = "migrations"
	}

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}

func normalizeTelegram(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm
	return nil
}

func normalizePager(p *PagerConfig) error {
	if p.IdleTimeoutSeconds < 0 {
		return fmt.Errorf("pager.idle_timeout_seconds must be >= 0")
	}
	if p.InputTimeoutSeconds < 0 {
		return fmt.Errorf("pager.input_timeout_seconds must be >= 0")
	}
	if p.NoticeDelaySeconds < 0 {
		return fmt.Errorf("pager.notice_delay_seconds must be >= 0")
	}
	p.AskPrompt = strings.TrimSpace(p.AskPrompt)
	p.TooSlowPrompt = strings.TrimSpace(p.TooSlowPrompt)
	return nil
}
