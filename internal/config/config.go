package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDemo = "DEMO"
	EnvProd = "PROD"
)

// ConfigError is a missing or invalid configuration value. Fatal at startup.
type ConfigError struct {
	Source string // file path or "env"
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Endpoints are the REST host and WebSocket URL for one environment.
type Endpoints struct {
	RESTBaseURL string
	WSURL       string
}

var endpoints = map[string]Endpoints{
	EnvDemo: {
		RESTBaseURL: "https://demo-api.kalshi.co",
		WSURL:       "wss://demo-api.kalshi.co/trade-api/ws/v2",
	},
	EnvProd: {
		RESTBaseURL: "https://api.elections.kalshi.com",
		WSURL:       "wss://api.elections.kalshi.com/trade-api/ws/v2",
	},
}

// EndpointsFor resolves DEMO or PROD (case-insensitive).
func EndpointsFor(env string) (Endpoints, error) {
	ep, ok := endpoints[strings.ToUpper(strings.TrimSpace(env))]
	if !ok {
		return Endpoints{}, fmt.Errorf("unknown env %q (want DEMO or PROD)", env)
	}
	return ep, nil
}

// Config holds the process-level settings read from the environment.
type Config struct {
	// Kalshi API
	KalshiKeyID   string
	KalshiKeyFile string
	KalshiEnv     string // empty means "use the strategy file's env"

	RateInterval time.Duration

	// Strategy files
	MarketMakingConfigPath string
	CombinedConfigPath     string

	// Optional SQLite action journal
	JournalPath string

	// Telemetry
	LogLevel string
	LogFile  string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		KalshiKeyID:   envStr("KALSHI_API_KEY", ""),
		KalshiKeyFile: envStr("KALSHI_PRIVATE_KEY_PATH", ""),
		KalshiEnv:     strings.ToUpper(envStr("KALSHI_ENV", "")),

		RateInterval: time.Duration(envInt("KALSHI_RATE_INTERVAL_MS", 120)) * time.Millisecond,

		MarketMakingConfigPath: envStr("MARKET_MAKING_CONFIG", "market_making/config.json"),
		CombinedConfigPath:     envStr("COMBINED_NO_CONFIG", "market_making/combined_no_config.json"),

		JournalPath: envStr("JOURNAL_PATH", ""),

		LogLevel: envStr("LOG_LEVEL", "info"),
		LogFile:  envStr("LOG_FILE", ""),
	}
}

// ValidateCredentials reports missing API credentials as a ConfigError.
func (c *Config) ValidateCredentials() error {
	var missing []string
	if c.KalshiKeyID == "" {
		missing = append(missing, "KALSHI_API_KEY")
	}
	if c.KalshiKeyFile == "" {
		missing = append(missing, "KALSHI_PRIVATE_KEY_PATH")
	}
	if len(missing) > 0 {
		return &ConfigError{Source: "env", Err: errors.New("missing " + strings.Join(missing, ", "))}
	}
	return nil
}

// ResolveEnv picks KALSHI_ENV when set, else the strategy file's env,
// else DEMO.
func (c *Config) ResolveEnv(fileEnv string) string {
	if c.KalshiEnv != "" {
		return c.KalshiEnv
	}
	if fileEnv != "" {
		return strings.ToUpper(fileEnv)
	}
	return EnvDemo
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
