package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL     = "https://inference.do-ai.run/"
	DefaultModel       = "llama3.3-70b-instruct"
	DefaultTimeout     = 60 * time.Second
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
	DefaultCacheSize   = 128
)

// AIConfig configures the chat-completions round-trip.
type AIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
	CacheSize   int // 0 disables the result cache
}

// Enabled reports whether a round-trip can be attempted at all.
func (c AIConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// DispatchConfig holds the external commands run for each intent kind.
// An empty command means no handler is installed for that kind.
type DispatchConfig struct {
	AlarmCmd    string
	CalendarCmd string
	MessageCmd  string
}

type Config struct {
	DBPath    string
	LogFormat string
	AI        AIConfig
	Dispatch  DispatchConfig
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		AI: AIConfig{
			BaseURL:     DefaultBaseURL,
			Model:       DefaultModel,
			Timeout:     DefaultTimeout,
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
			CacheSize:   DefaultCacheSize,
		},
	}
}

// Load reads envFile (if it exists) into the process environment without
// overriding variables that are already set, then builds a Config from the
// CAPSULE_* variables on top of the defaults.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	cfg.DBPath = strings.TrimSpace(getenv("CAPSULE_DB"))
	cfg.LogFormat = strings.TrimSpace(getenv("CAPSULE_LOG_FORMAT"))

	cfg.AI.APIKey = strings.TrimSpace(getenv("CAPSULE_AI_API_KEY"))
	if v := strings.TrimSpace(getenv("CAPSULE_AI_BASE_URL")); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := strings.TrimSpace(getenv("CAPSULE_AI_MODEL")); v != "" {
		cfg.AI.Model = v
	}
	if v := strings.TrimSpace(getenv("CAPSULE_AI_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid CAPSULE_AI_TIMEOUT %q", v)
		}
		cfg.AI.Timeout = d
	}
	if v := strings.TrimSpace(getenv("CAPSULE_AI_TEMPERATURE")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 2 {
			return Config{}, fmt.Errorf("invalid CAPSULE_AI_TEMPERATURE %q", v)
		}
		cfg.AI.Temperature = f
	}
	if v := strings.TrimSpace(getenv("CAPSULE_AI_MAX_TOKENS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid CAPSULE_AI_MAX_TOKENS %q", v)
		}
		cfg.AI.MaxTokens = n
	}
	if v := strings.TrimSpace(getenv("CAPSULE_AI_CACHE_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid CAPSULE_AI_CACHE_SIZE %q", v)
		}
		cfg.AI.CacheSize = n
	}

	cfg.Dispatch.AlarmCmd = strings.TrimSpace(getenv("CAPSULE_ALARM_CMD"))
	cfg.Dispatch.CalendarCmd = strings.TrimSpace(getenv("CAPSULE_CALENDAR_CMD"))
	cfg.Dispatch.MessageCmd = strings.TrimSpace(getenv("CAPSULE_MESSAGE_CMD"))

	return cfg, nil
}
