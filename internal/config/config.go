// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, the language model
// endpoint, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "echome-x")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// LLMConfig defines the OpenAI-compatible chat-completion endpoint. An empty
// APIKey disables the provider and every reply comes from the local fallback.
type LLMConfig struct {
	APIKey      string        // GROQ_API_KEY (alias LLM_API_KEY)
	BaseURL     string        // LLM_BASE_URL
	Model       string        // LLM_MODEL
	Timeout     time.Duration // LLM_TIMEOUT
	MaxTokens   int           // LLM_MAX_TOKENS
	Temperature float64       // LLM_TEMPERATURE in [0..2]
	MaxRetries  int           // LLM_MAX_RETRIES in [0..1]
}

// RedisConfig defines the optional recent-turns cache. An empty Addr
// disables it.
type RedisConfig struct {
	Addr     string        // REDIS_ADDR (e.g. "localhost:6379")
	Password string        // REDIS_PASSWORD
	DB       int           // REDIS_DB
	TTL      time.Duration // RECENT_TURNS_TTL
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	DebugRoutes    bool   // mount /debug/twins
	APIBasePath    string // base path for API routes

	// App
	DBPath          string // SQLite path
	HistoryWindow   int    // prior turns sent to the model (>= 0)
	MaxMessageRunes int    // cap on a chat message (>= 1)

	// Language model and cache
	LLM   LLMConfig
	Redis RedisConfig

	// Rate limiting
	RateRPS      float64 // tokens per second (>= 0)
	RateBurst    int     // bucket size (>= 1)
	RateChatCost int     // tokens a chat request spends (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		DebugRoutes:    getbool("DEBUG_ROUTES", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// App
		DBPath:          getenv("DB_PATH", "echome.db"),
		HistoryWindow:   getint("HISTORY_WINDOW", 6),
		MaxMessageRunes: getint("MAX_MESSAGE_RUNES", 2000),

		// Language model
		LLM: LLMConfig{
			APIKey:      getenv("GROQ_API_KEY", getenv("LLM_API_KEY", "")),
			BaseURL:     getenv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       getenv("LLM_MODEL", "llama-3.1-8b-instant"),
			Timeout:     getdur("LLM_TIMEOUT", 10*time.Second),
			MaxTokens:   getint("LLM_MAX_TOKENS", 150),
			Temperature: getfloat("LLM_TEMPERATURE", 0.7),
			MaxRetries:  getint("LLM_MAX_RETRIES", 1),
		},

		// Recent-turns cache
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
			TTL:      getdur("RECENT_TURNS_TTL", 30*time.Minute),
		},

		// Rate limiting
		RateRPS:      getfloat("RATE_RPS", 5.0),
		RateBurst:    getint("RATE_BURST", 10),
		RateChatCost: getint("RATE_CHAT_COST", 2),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "echome-x"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	if !oneOf(cfg.GinMode, "debug", "release", "test") {
		cfg.GinMode = "release"
	}
	return cfg, cfg.validate()
}

// validate reports every broken setting at once.
func (cfg Config) validate() error {
	rules := []struct {
		bad bool
		msg string
	}{
		{!oneOf(cfg.LogLevel, "debug", "info", "warn", "error", "fatal", "panic"), "LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"},
		{strings.TrimSpace(cfg.Port) == "", "PORT must not be empty"},
		{cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0, "timeouts must be positive durations"},
		{cfg.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0"},
		{strings.TrimSpace(cfg.DBPath) == "", "DB_PATH must not be empty"},
		{cfg.HistoryWindow < 0, "HISTORY_WINDOW must be >= 0"},
		{cfg.MaxMessageRunes < 1, "MAX_MESSAGE_RUNES must be >= 1"},
		{cfg.LLM.Timeout <= 0, "LLM_TIMEOUT must be > 0"},
		{cfg.LLM.MaxTokens < 1, "LLM_MAX_TOKENS must be >= 1"},
		{cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2, "LLM_TEMPERATURE must be in [0,2]"},
		{cfg.LLM.MaxRetries < 0 || cfg.LLM.MaxRetries > 1, "LLM_MAX_RETRIES must be 0 or 1"},
		{cfg.Redis.Addr != "" && cfg.Redis.TTL <= 0, "RECENT_TURNS_TTL must be > 0"},
		{cfg.RateRPS < 0, "RATE_RPS must be >= 0"},
		{cfg.RateBurst < 1, "RATE_BURST must be >= 1"},
		{cfg.RateChatCost < 1, "RATE_CHAT_COST must be >= 1"},
		{cfg.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0"},
		{cfg.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0"},
		{cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]"},
	}
	var errs []error
	for _, r := range rules {
		if r.bad {
			errs = append(errs, errors.New(r.msg))
		}
	}
	return errors.Join(errs...)
}

// ---- env helpers ----

// lookup returns parse(value) for a set, non-empty k, else def. Unparsable
// values fall back to def.
func lookup[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	if out, err := parse(strings.TrimSpace(v)); err == nil {
		return out
	}
	return def
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	return lookup(k, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func getint(k string, def int) int { return lookup(k, def, strconv.Atoi) }

func getdur(k string, def time.Duration) time.Duration { return lookup(k, def, time.ParseDuration) }

func getbool(k string, def bool) bool {
	return lookup(k, def, func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return false, errors.New("not a bool")
	})
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeBasePath returns "/" for empty input, otherwise the path with a
// leading slash and no trailing slash.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
