package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Log       LogConfig
	LLM       LLMConfig
	Store     StoreConfig
	Extractor ExtractorConfig
	Browser   BrowserConfig
	Fetch     FetchConfig
	Engine    EngineConfig
	Notify    NotifyConfig
}

var (
	ErrMissingAPIKey     = errors.New("config: RECIPEBOX_LLM_API_KEY is required")
	ErrUnknownProvider   = errors.New("config: unknown LLM provider")
	ErrUnknownBackend    = errors.New("config: unknown store backend")
	ErrMissingBucket     = errors.New("config: RECIPEBOX_S3_BUCKET is required for the s3 backend")
	ErrUnknownPolicy     = errors.New("config: unknown usability policy")
	ErrMissingKafkaTopic = errors.New("config: RECIPEBOX_KAFKA_TOPIC is required when brokers are set")
)

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// AuthConfig controls API key authentication on the HTTP surface.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"

	// File redirects logs to a file. The terminal popup sets this so log
	// lines do not tear the screen.
	File string
}

// LLMConfig selects and configures the summarization service.
type LLMConfig struct {
	// Provider is "gemini", "openai" or "cohere".
	Provider string // default: "gemini"

	// APIKey is the credential sent to the provider. It is only ever read
	// from the environment or a .env file.
	APIKey string

	// Model overrides the provider's default model.
	Model string

	// BaseURL overrides the provider endpoint (self-hosted gateways, tests).
	BaseURL string

	// Timeout bounds the single upstream call. Zero means no timeout.
	Timeout time.Duration // default: 0
}

// StoreConfig selects the keyed store backend.
type StoreConfig struct {
	// Backend is "memory", "sqlite", "redis" or "s3".
	Backend string // default: "sqlite"

	SQLitePath string // default: "recipebox.db"

	RedisAddr     string // default: "localhost:6379"
	RedisPassword string
	RedisDB       int    // default: 0
	RedisPrefix   string // default: "recipebox:"

	S3Bucket       string
	S3Prefix       string // default: "summaries/"
	S3Region       string
	S3Profile      string
	S3UsePathStyle bool // default: false
}

// ExtractorConfig controls page extraction.
type ExtractorConfig struct {
	// ProfilesFile is an optional YAML file of site selector profiles.
	// Its profiles are added to the built-in ones.
	ProfilesFile string

	// Policy decides when an extracted record is usable:
	// "title_and_any_list" (default) or "all_fields".
	Policy string
}

// BrowserConfig controls the Rod browser used for server-side fetches
// and for attaching to the user's own Chrome.
type BrowserConfig struct {
	// Headless controls whether the launched browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity.
	MaxPages int // default: 4

	// DefaultProxy is the proxy URL for launched browsers.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// CDPURL is the DevTools endpoint of the user's running Chrome,
	// e.g. "http://127.0.0.1:9222". When set, the active tab is read from it.
	CDPURL string
}

// FetchConfig controls server-side page fetching.
type FetchConfig struct {
	// DefaultTimeout is the per-fetch timeout.
	DefaultTimeout time.Duration // default: 30s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 120s

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 15s

	// BlockedResourceTypes lists resource types the browser does not load.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// EngineConfig controls the multi-engine racing dispatcher.
type EngineConfig struct {
	// EnableBrowser adds the rod engines to the race. With it off only the
	// plain HTTP engine runs and no Chrome is launched.
	EnableBrowser bool // default: true

	// EscalationDelays is the staged start delay for each engine tier.
	EscalationDelays []time.Duration // default: [0s, 2s, 5s]

	// HTTPTimeout is the deadline for the pure HTTP engine.
	HTTPTimeout time.Duration // default: 5s

	// MemoryTTL is how long a domain remembers its winning engine.
	MemoryTTL time.Duration // default: 24h
}

// NotifyConfig controls best-effort change notifications.
type NotifyConfig struct {
	WebhookURL    string
	WebhookSecret string

	KafkaBrokers []string
	KafkaTopic   string // default: "recipebox.summaries"
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first if present; values
// already set in the environment win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("config: failed to load .env", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: envOr("RECIPEBOX_HOST", "0.0.0.0"),
			Port: envIntOr("RECIPEBOX_PORT", 8080),
			Mode: envOr("RECIPEBOX_MODE", "release"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("RECIPEBOX_AUTH_ENABLED", true),
			APIKeys: envSliceOr("RECIPEBOX_API_KEYS", nil),
		},
		Log: LogConfig{
			Level:  envOr("RECIPEBOX_LOG_LEVEL", "info"),
			Format: envOr("RECIPEBOX_LOG_FORMAT", "json"),
			File:   os.Getenv("RECIPEBOX_LOG_FILE"),
		},
		LLM: LLMConfig{
			Provider: strings.ToLower(envOr("RECIPEBOX_LLM_PROVIDER", "gemini")),
			APIKey:   os.Getenv("RECIPEBOX_LLM_API_KEY"),
			Model:    os.Getenv("RECIPEBOX_LLM_MODEL"),
			BaseURL:  os.Getenv("RECIPEBOX_LLM_BASE_URL"),
			Timeout:  envDurationOr("RECIPEBOX_LLM_TIMEOUT", 0),
		},
		Store: StoreConfig{
			Backend:        strings.ToLower(envOr("RECIPEBOX_STORE", "sqlite")),
			SQLitePath:     envOr("RECIPEBOX_SQLITE_PATH", "recipebox.db"),
			RedisAddr:      envOr("RECIPEBOX_REDIS_ADDR", "localhost:6379"),
			RedisPassword:  os.Getenv("RECIPEBOX_REDIS_PASSWORD"),
			RedisDB:        envIntOr("RECIPEBOX_REDIS_DB", 0),
			RedisPrefix:    envOr("RECIPEBOX_REDIS_PREFIX", "recipebox:"),
			S3Bucket:       os.Getenv("RECIPEBOX_S3_BUCKET"),
			S3Prefix:       envOr("RECIPEBOX_S3_PREFIX", "summaries/"),
			S3Region:       os.Getenv("RECIPEBOX_S3_REGION"),
			S3Profile:      os.Getenv("RECIPEBOX_S3_PROFILE"),
			S3UsePathStyle: envBoolOr("RECIPEBOX_S3_PATH_STYLE", false),
		},
		Extractor: ExtractorConfig{
			ProfilesFile: os.Getenv("RECIPEBOX_PROFILES_FILE"),
			Policy:       envOr("RECIPEBOX_POLICY", "title_and_any_list"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("RECIPEBOX_HEADLESS", true),
			MaxPages:     envIntOr("RECIPEBOX_MAX_PAGES", 4),
			DefaultProxy: os.Getenv("RECIPEBOX_PROXY"),
			NoSandbox:    envBoolOr("RECIPEBOX_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("RECIPEBOX_BROWSER_BIN"),
			CDPURL:       os.Getenv("RECIPEBOX_CDP_URL"),
		},
		Fetch: FetchConfig{
			DefaultTimeout:    envDurationOr("RECIPEBOX_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:        envDurationOr("RECIPEBOX_MAX_TIMEOUT", 120*time.Second),
			NavigationTimeout: envDurationOr("RECIPEBOX_NAV_TIMEOUT", 15*time.Second),
			BlockedResourceTypes: envSliceOr("RECIPEBOX_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Engine: EngineConfig{
			EnableBrowser:    envBoolOr("RECIPEBOX_BROWSER_ENGINE", true),
			EscalationDelays: envDurationSliceOr("RECIPEBOX_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second, 5 * time.Second}),
			HTTPTimeout:      envDurationOr("RECIPEBOX_HTTP_TIMEOUT", 5*time.Second),
			MemoryTTL:        envDurationOr("RECIPEBOX_ENGINE_MEMORY_TTL", 24*time.Hour),
		},
		Notify: NotifyConfig{
			WebhookURL:    os.Getenv("RECIPEBOX_WEBHOOK_URL"),
			WebhookSecret: os.Getenv("RECIPEBOX_WEBHOOK_SECRET"),
			KafkaBrokers:  envSliceOr("RECIPEBOX_KAFKA_BROKERS", nil),
			KafkaTopic:    envOr("RECIPEBOX_KAFKA_TOPIC", "recipebox.summaries"),
		},
	}
}

// Validate checks settings that would otherwise fail late, at first use.
// needSummarizer is false for commands that never call the LLM (list, delete).
func (c *Config) Validate(needSummarizer bool) error {
	if needSummarizer {
		switch c.LLM.Provider {
		case "gemini", "openai", "cohere":
		default:
			return fmt.Errorf("%w: %q", ErrUnknownProvider, c.LLM.Provider)
		}
		if c.LLM.APIKey == "" {
			return ErrMissingAPIKey
		}
	}

	switch c.Store.Backend {
	case "memory", "sqlite", "redis":
	case "s3":
		if c.Store.S3Bucket == "" {
			return ErrMissingBucket
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Store.Backend)
	}

	switch c.Extractor.Policy {
	case "title_and_any_list", "all_fields":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPolicy, c.Extractor.Policy)
	}

	if len(c.Notify.KafkaBrokers) > 0 && c.Notify.KafkaTopic == "" {
		return ErrMissingKafkaTopic
	}
	return nil
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
