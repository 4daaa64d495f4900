package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/neurathon-mate/internal/platform/envutil"
)

const (
	EngineGemini    = "gemini"
	EngineOAIHTTP   = "oai_http"
	EngineLangchain = "langchain_openai"
	EngineMock      = "mock"

	DefaultGeminiModel = "gemini-2.5-flash"
)

var ErrMissingCredential = errors.New("missing LLM API key")

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	s := strings.TrimSpace(node.Value)
	if s == "" || s == "null" || s == "~" {
		d.Duration = 0
		return nil
	}
	if dd, err := time.ParseDuration(s); err == nil {
		d.Duration = dd
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a string like \"5s\" or integer seconds: %q", s)
	}
	d.Duration = time.Duration(n) * time.Second
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":5001",
			ReadHeaderTimeout: Duration{5 * time.Second},
			IdleTimeout:       Duration{2 * time.Minute},
			ShutdownTimeout:   Duration{15 * time.Second},
			MaxRequestBytes:   1 << 20,
			MaxAudioBytes:     10 << 20,
		},
		LLM: LLMConfig{
			Engine:      EngineGemini,
			Model:       DefaultGeminiModel,
			Timeout:     Duration{60 * time.Second},
			Temperature: 0.7,
		},
		Speech: SpeechConfig{
			LanguageCode: "en-US",
			Timeout:      Duration{time.Minute},
			MaxRetries:   3,
		},
		RateLimit: RateLimitConfig{
			Limit:  30,
			Window: Duration{time.Minute},
			Prefix: "mate:rl:",
		},
		Otel: OtelConfig{
			ServiceName: "neurathon-mate",
		},
	}
}

// Load resolves configuration from defaults, an optional YAML file
// (MATE_CONFIG_PATH or ./config/config.yaml) and environment overrides.
func Load() (*Config, error) {
	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(os.Getenv("MATE_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "config.yaml")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}
	if cfgPath != "" {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	applyEnv(cfg)
	normalize(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	cfg.HTTP.Addr = envutil.String("MATE_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.StaticDir = envutil.String("STATIC_DIR", cfg.HTTP.StaticDir)
	cfg.HTTP.MetricsAddr = envutil.String("METRICS_ADDR", cfg.HTTP.MetricsAddr)
	if v := strings.TrimSpace(os.Getenv("CORS_ALLOW_ORIGINS")); v != "" {
		cfg.HTTP.AllowOrigins = splitList(v)
	}

	cfg.LLM.Engine = envutil.String("LLM_ENGINE", cfg.LLM.Engine)
	cfg.LLM.Model = envutil.String("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.BaseURL = envutil.String("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Timeout.Duration = envutil.Duration("LLM_TIMEOUT", cfg.LLM.Timeout.Duration)
	cfg.LLM.APIKey = envutil.String("LLM_API_KEY", cfg.LLM.APIKey)
	if strings.EqualFold(strings.TrimSpace(cfg.LLM.Engine), EngineGemini) {
		cfg.LLM.APIKey = envutil.String("GEMINI_API_KEY", cfg.LLM.APIKey)
	}

	cfg.Speech.Enabled = envutil.Bool("SPEECH_ENABLED", cfg.Speech.Enabled)
	cfg.Speech.LanguageCode = envutil.String("SPEECH_LANGUAGE_CODE", cfg.Speech.LanguageCode)

	cfg.DB.Driver = envutil.String("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.DSN = envutil.String("DB_DSN", cfg.DB.DSN)

	cfg.RateLimit.RedisAddr = envutil.String("REDIS_ADDR", cfg.RateLimit.RedisAddr)
	cfg.RateLimit.Limit = envutil.Int("RATE_LIMIT", cfg.RateLimit.Limit)
	cfg.RateLimit.Window.Duration = envutil.Duration("RATE_LIMIT_WINDOW", cfg.RateLimit.Window.Duration)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Otel.ServiceName)
}

func normalize(cfg *Config) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":5001"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 1 << 20
	}
	if cfg.HTTP.MaxAudioBytes <= 0 {
		cfg.HTTP.MaxAudioBytes = 10 << 20
	}

	cfg.LLM.Engine = strings.ToLower(strings.TrimSpace(cfg.LLM.Engine))
	if cfg.LLM.Engine == "openai_http" {
		cfg.LLM.Engine = EngineOAIHTTP
	}
	if cfg.LLM.Engine == "" {
		cfg.LLM.Engine = EngineGemini
	}
	cfg.LLM.Model = strings.TrimSpace(cfg.LLM.Model)
	if cfg.LLM.Model == "" && cfg.LLM.Engine == EngineGemini {
		cfg.LLM.Model = DefaultGeminiModel
	}
	cfg.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.LLM.BaseURL), "/")
	cfg.LLM.APIKey = strings.TrimSpace(cfg.LLM.APIKey)
	if cfg.LLM.Engine == EngineOAIHTTP && strings.TrimSpace(cfg.LLM.ChatCompletionsPath) == "" {
		cfg.LLM.ChatCompletionsPath = "/v1/chat/completions"
	}
	if cfg.LLM.Timeout.Duration <= 0 {
		cfg.LLM.Timeout = Duration{60 * time.Second}
	}

	if cfg.Speech.Timeout.Duration <= 0 {
		cfg.Speech.Timeout = Duration{time.Minute}
	}
	if cfg.Speech.MaxRetries < 0 {
		cfg.Speech.MaxRetries = 0
	}

	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	if cfg.DB.Driver == "sqlite" && strings.TrimSpace(cfg.DB.DSN) == "" {
		cfg.DB.DSN = "mate.db"
	}

	if cfg.RateLimit.Window.Duration <= 0 {
		cfg.RateLimit.Window = Duration{time.Minute}
	}
	if strings.TrimSpace(cfg.RateLimit.Prefix) == "" {
		cfg.RateLimit.Prefix = "mate:rl:"
	}
}

// Validate fails fast on configuration the server cannot start with,
// most importantly a missing credential for a remote engine.
func (c *Config) Validate() error {
	switch c.LLM.Engine {
	case EngineGemini:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingCredential)
		}
	case EngineLangchain:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: set LLM_API_KEY", ErrMissingCredential)
		}
		if c.LLM.Model == "" {
			return errors.New("llm.model is required for langchain_openai")
		}
	case EngineOAIHTTP:
		if c.LLM.BaseURL == "" {
			return errors.New("llm.base_url is required for oai_http")
		}
		if c.LLM.Model == "" {
			return errors.New("llm.model is required for oai_http")
		}
	case EngineMock:
	default:
		return fmt.Errorf("unsupported llm.engine %q", c.LLM.Engine)
	}

	switch c.DB.Driver {
	case "", "sqlite":
	case "postgres":
		if strings.TrimSpace(c.DB.DSN) == "" {
			return errors.New("db.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported db.driver %q", c.DB.Driver)
	}

	if c.RateLimit.RedisAddr != "" && c.RateLimit.Limit <= 0 {
		return errors.New("rate_limit.limit must be positive when redis is configured")
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
