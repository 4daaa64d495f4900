package config

import "time"

// Duration wraps time.Duration so YAML files can say "5s".
type Duration struct {
	time.Duration
}

type HTTPConfig struct {
	Addr              string   `yaml:"addr"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	IdleTimeout       Duration `yaml:"idle_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `yaml:"max_request_bytes"`
	MaxAudioBytes     int64    `yaml:"max_audio_bytes"`
	AllowOrigins      []string `yaml:"allow_origins"`

	// MetricsAddr moves /metrics to a separate listener when set.
	MetricsAddr string `yaml:"metrics_addr"`

	// StaticDir, when set, serves a built single-page frontend with an
	// index.html fallback for unknown GET routes.
	StaticDir string `yaml:"static_dir"`
}

type LLMConfig struct {
	// Engine is one of "gemini", "oai_http", "langchain_openai" or "mock".
	Engine  string   `yaml:"engine"`
	Model   string   `yaml:"model"`
	APIKey  string   `yaml:"api_key"`
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`

	Temperature float64 `yaml:"temperature"`

	// ChatCompletionsPath applies to "oai_http" only.
	ChatCompletionsPath string `yaml:"chat_completions_path"`
}

type SpeechConfig struct {
	Enabled      bool     `yaml:"enabled"`
	LanguageCode string   `yaml:"language_code"`
	Model        string   `yaml:"model"`
	Timeout      Duration `yaml:"timeout"`
	MaxRetries   int      `yaml:"max_retries"`
}

type DBConfig struct {
	// Driver is "sqlite", "postgres" or "" (call log disabled).
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type RateLimitConfig struct {
	RedisAddr string   `yaml:"redis_addr"`
	Limit     int      `yaml:"limit"`
	Window    Duration `yaml:"window"`
	Prefix    string   `yaml:"prefix"`
}

type OtelConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Version     string `yaml:"version"`
}

type Config struct {
	Env       string          `yaml:"env"`
	HTTP      HTTPConfig      `yaml:"http"`
	LLM       LLMConfig       `yaml:"llm"`
	Speech    SpeechConfig    `yaml:"speech"`
	DB        DBConfig        `yaml:"db"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Otel      OtelConfig      `yaml:"otel"`
}
