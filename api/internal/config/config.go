package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultMaxInputLength is the network-boundary backstop for input size, in characters.
	DefaultMaxInputLength = 8000
	// DefaultUIMaxInputLength is the product limit a client enforces before sending.
	DefaultUIMaxInputLength = 600
	// DefaultUIWarnLength is the client-side "getting long" threshold.
	DefaultUIWarnLength = 400

	DefaultMaxOutputTokens = 4096
	DefaultUpstreamTimeout = 60 * time.Second

	// DefaultBotWorkers bounds how many chats the bot serves at once.
	DefaultBotWorkers = 16
)

type Config struct {
	Port     string
	LogLevel string

	Provider         string
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
	GeminiAPIKey     string
	GeminiModel      string
	MaxOutputTokens  int
	UpstreamTimeout  time.Duration

	MaxInputLength   int
	UIMaxInputLength int
	UIWarnLength     int
	LensFile         string

	DatabaseURL      string
	TelegramBotToken string
	WebhookURL       string
	BotWorkers       int
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// getDuration accepts Go durations ("45s") and bare seconds ("45").
func getDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

// Load reads the environment. Upstream credentials are optional here: a
// missing key surfaces as an upstream-unavailable failure per request.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Provider:         strings.ToLower(getEnv("UPSTREAM_PROVIDER", "anthropic")),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		MaxOutputTokens:  getInt("MAX_OUTPUT_TOKENS", DefaultMaxOutputTokens),
		UpstreamTimeout:  getDuration("UPSTREAM_TIMEOUT", DefaultUpstreamTimeout),

		MaxInputLength:   getInt("MAX_INPUT_LENGTH", DefaultMaxInputLength),
		UIMaxInputLength: getInt("UI_MAX_INPUT_LENGTH", DefaultUIMaxInputLength),
		UIWarnLength:     getInt("UI_WARN_LENGTH", DefaultUIWarnLength),
		LensFile:         getEnv("LENS_FILE", ""),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		BotWorkers:       getInt("BOT_WORKERS", DefaultBotWorkers),
	}
}

// RequireBot checks the settings the Telegram bot cannot start without.
func (c *Config) RequireBot() error {
	if c.TelegramBotToken == "" {
		return errors.New("missing required env TELEGRAM_BOT_TOKEN")
	}
	return nil
}
