package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Log formats accepted by LOG_FORMAT
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Config holds application configuration
type Config struct {
	DatabaseURL    string        `yaml:"database_url" env:"DATABASE_URL" env-default:"sqlite://todos.db"`
	ServerPort     string        `yaml:"server_port" env:"SERVER_PORT" env-default:"8080"`
	FrontendURL    string        `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:3000"`
	StaticDir      string        `yaml:"static_dir" env:"STATIC_DIR" env-default:"web"`
	OpenAPIPath    string        `yaml:"openapi_path" env:"OPENAPI_PATH" env-default:"api/openapi/openapi.yaml"`
	SeedSampleData bool          `yaml:"seed_sample_data" env:"SEED_SAMPLE_DATA" env-default:"true"`
	RedisURL       string        `yaml:"redis_url" env:"REDIS_URL"`
	StatsCacheTTL  time.Duration `yaml:"stats_cache_ttl" env:"STATS_CACHE_TTL" env-default:"30s"`
	// RateLimit uses the limiter format, e.g. "100-M". Empty disables limiting.
	RateLimit       string        `yaml:"rate_limit" env:"RATE_LIMIT"`
	EnableHSTS      bool          `yaml:"enable_hsts" env:"ENABLE_HSTS" env-default:"false"`
	ServerDebugMode bool          `yaml:"server_debug_mode" env:"SERVER_DEBUG_MODE" env-default:"false"`
	LogFormat       string        `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	OTELEnabled     bool          `yaml:"otel_enabled" env:"OTEL_ENABLED" env-default:"false"`
	OTELEndpoint    string        `yaml:"otel_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Load reads configuration from the YAML file at path, if given, with environment
// variables taking precedence. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if strings.TrimSpace(c.ServerPort) == "" {
		return fmt.Errorf("SERVER_PORT must not be empty")
	}
	switch c.LogFormat {
	case LogFormatJSON, LogFormatConsole:
	default:
		return fmt.Errorf("LOG_FORMAT must be %q or %q, got %q", LogFormatJSON, LogFormatConsole, c.LogFormat)
	}
	if c.StatsCacheTTL < 0 {
		return fmt.Errorf("STATS_CACHE_TTL must not be negative")
	}
	if c.OTELEnabled && c.OTELEndpoint == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED is set")
	}
	return nil
}

// AllowedOrigins splits FrontendURL on commas for the CORS middleware
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.FrontendURL, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.ServerPort
}
