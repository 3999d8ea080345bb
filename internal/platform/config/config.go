package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the gateway process.
// Values come from configs/config.defaults.yaml, overridden by
// WATSON_-prefixed environment variables (WATSON_LOG_LEVEL, ...).
type Config struct {
	ServerPort int    `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	// API security: plain shared keys; empty key disables the check.
	APIKey   string `mapstructure:"API_KEY"`
	AdminKey string `mapstructure:"ADMIN_KEY"`

	// Persisted documents (whole-file JSON, atomic replace).
	ContactsFile    string `mapstructure:"CONTACTS_FILE"`
	MessagesFile    string `mapstructure:"MESSAGES_FILE"`
	AutomationsFile string `mapstructure:"AUTOMATIONS_FILE"`
	JobsFile        string `mapstructure:"JOBS_FILE"`
	LastSendFile    string `mapstructure:"LAST_SEND_FILE"`

	// Message retention.
	MessagesMax         int `mapstructure:"MESSAGES_MAX"`
	MessagesMemoryLimit int `mapstructure:"MESSAGES_MEMORY_LIMIT"`

	// Outbound pacing (milliseconds).
	BaseDelayMS    int `mapstructure:"BASE_DELAY_MS"`
	JitterMS       int `mapstructure:"JITTER_MS"`
	PerJIDGapMS    int `mapstructure:"PER_JID_GAP_MS"`
	GlobalMinGapMS int `mapstructure:"GLOBAL_MIN_GAP_MS"`

	// Delivery retries.
	MaxRetries     int `mapstructure:"MAX_RETRIES"`
	RetryBackoffMS int `mapstructure:"RETRY_BACKOFF_MS"`

	// Automation forwarding defaults (seed the automations document on
	// first boot; later mutations come through the admin API).
	WebhookURL    string `mapstructure:"WEBHOOK_URL"`
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET"`
	GroupPrefix   string `mapstructure:"GROUP_PREFIX"`
	QuietHoursTZ  string `mapstructure:"QUIET_HOURS_TZ"`

	// Auto reply.
	AutoReplyEnabled    bool   `mapstructure:"AUTO_REPLY_ENABLED"`
	AutoReplyScope      string `mapstructure:"AUTO_REPLY_SCOPE"`      // dm | group | both
	AutoReplyMatchType  string `mapstructure:"AUTO_REPLY_MATCH_TYPE"` // contains | equals | regex
	AutoReplyMatchValue string `mapstructure:"AUTO_REPLY_MATCH_VALUE"`
	AutoReplyText       string `mapstructure:"AUTO_REPLY_TEXT"`
	AutoReplyCooldownMS int    `mapstructure:"AUTO_REPLY_COOLDOWN_MS"`

	// Signed media URLs and upload retention.
	UploadDir              string `mapstructure:"UPLOAD_DIR"`
	MediaSigningSecret     string `mapstructure:"MEDIA_SIGNING_SECRET"`
	MediaURLTTLSeconds     int    `mapstructure:"MEDIA_URL_TTL_SECONDS"`
	MediaTTLDays           int    `mapstructure:"MEDIA_TTL_DAYS"`
	MediaCleanupEveryHours int    `mapstructure:"MEDIA_CLEANUP_EVERY_HOURS"`
}

// Load reads the defaults file (if present) and applies environment overrides.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config.defaults")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("WATSON")

	v.SetDefault("SERVER_PORT", 3000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("API_KEY", "")
	v.SetDefault("ADMIN_KEY", "")

	v.SetDefault("CONTACTS_FILE", "/data/contacts.json")
	v.SetDefault("MESSAGES_FILE", "/data/messages.json")
	v.SetDefault("AUTOMATIONS_FILE", "/data/automations.json")
	v.SetDefault("JOBS_FILE", "/data/jobs.json")
	v.SetDefault("LAST_SEND_FILE", "/data/lastsend.json")

	v.SetDefault("MESSAGES_MAX", 20000)
	v.SetDefault("MESSAGES_MEMORY_LIMIT", 1500)

	v.SetDefault("BASE_DELAY_MS", 900)
	v.SetDefault("JITTER_MS", 600)
	v.SetDefault("PER_JID_GAP_MS", 1500)
	v.SetDefault("GLOBAL_MIN_GAP_MS", 0)

	v.SetDefault("MAX_RETRIES", 3)
	v.SetDefault("RETRY_BACKOFF_MS", 1500)

	v.SetDefault("WEBHOOK_URL", "")
	v.SetDefault("WEBHOOK_SECRET", "")
	v.SetDefault("GROUP_PREFIX", "!bot")
	v.SetDefault("QUIET_HOURS_TZ", "Africa/Johannesburg")

	v.SetDefault("AUTO_REPLY_ENABLED", false)
	v.SetDefault("AUTO_REPLY_SCOPE", "both")
	v.SetDefault("AUTO_REPLY_MATCH_TYPE", "contains")
	v.SetDefault("AUTO_REPLY_MATCH_VALUE", "help")
	v.SetDefault("AUTO_REPLY_TEXT", "Hi! How can I help?")
	v.SetDefault("AUTO_REPLY_COOLDOWN_MS", 30000)

	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("MEDIA_SIGNING_SECRET", "")
	v.SetDefault("MEDIA_URL_TTL_SECONDS", 172800)
	v.SetDefault("MEDIA_TTL_DAYS", 2)
	v.SetDefault("MEDIA_CLEANUP_EVERY_HOURS", 12)

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; env + defaults are enough to run.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
