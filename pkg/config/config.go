package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// AI providers supported for text generation.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration for gipoly-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	Auth      AuthConfig      `yaml:"auth"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	GCP       GCPConfig       `yaml:"gcp"`
	Quota     QuotaConfig     `yaml:"quota"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT tokens are validated.
	// Set to false for local development without an auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSURL switches verification to RS256 keys fetched from a JWKS endpoint.
	// When empty, tokens are verified with JWTSecret (HS256).
	JWKSURL string `yaml:"jwks_url" env:"AUTH_JWKS_URL" env-default:""`

	JWTSecret string `yaml:"-" env:"AUTH_JWT_SECRET"` // Secret - not in YAML

	// CookieName is checked before the Authorization header.
	CookieName string `yaml:"cookie_name" env:"AUTH_COOKIE_NAME" env-default:"gipoly_jwt"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"gipoly"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"gipoly"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds Redis configuration. Redis is optional; an empty host
// makes the rate limiter fall back to an in-process store.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// AIConfig selects and tunes the external generation providers.
type AIConfig struct {
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"gemini"`

	GeminiAPIKey    string `yaml:"-" env:"GEMINI_API_KEY"`    // Secret - not in YAML
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`    // Secret - not in YAML
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML

	// OpenAIBaseURL allows any OpenAI-compatible endpoint.
	OpenAIBaseURL string `yaml:"openai_base_url" env:"OPENAI_BASE_URL" env-default:""`

	// TextModels is an ordered fallback list; the first entry is the primary model.
	TextModelsStr string   `yaml:"text_models" env:"AI_TEXT_MODELS" env-default:"gemini-2.0-flash,gemini-1.5-flash"`
	TextModels    []string `yaml:"-"`

	ImageModel   string `yaml:"image_model" env:"AI_IMAGE_MODEL" env-default:"imagen-3.0-generate-002"`
	EnableImages bool   `yaml:"enable_images" env:"AI_ENABLE_IMAGES" env-default:"true"`

	Temperature float32 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.7"`
	MaxTokens   int32   `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"2000"`

	CallTimeout time.Duration `yaml:"call_timeout" env:"AI_CALL_TIMEOUT" env-default:"45s"`

	CircuitThreshold  int           `yaml:"circuit_threshold" env:"AI_CIRCUIT_THRESHOLD" env-default:"5"`
	CircuitResetAfter time.Duration `yaml:"circuit_reset_after" env:"AI_CIRCUIT_RESET_AFTER" env-default:"30s"`
}

// GCPConfig holds Google Cloud settings for translation, Vertex AI image
// generation and image storage.
type GCPConfig struct {
	ProjectID       string `yaml:"project_id" env:"GOOGLE_CLOUD_PROJECT_ID" env-default:""`
	Location        string `yaml:"location" env:"GOOGLE_CLOUD_LOCATION" env-default:"us-central1"`
	Bucket          string `yaml:"bucket" env:"ADCREATIVE_BUCKET" env-default:"gipoly-adcreative-images"`
	CredentialsFile string `yaml:"-" env:"GOOGLE_APPLICATION_CREDENTIALS"`
	EnableTranslate bool   `yaml:"enable_translate" env:"GCP_ENABLE_TRANSLATE" env-default:"true"`
}

// QuotaConfig bounds how many stored analyses a workspace may keep per tool.
type QuotaConfig struct {
	MaxAnalysesPerTool int `yaml:"max_analyses_per_tool" env:"QUOTA_MAX_ANALYSES_PER_TOOL" env-default:"3"`
}

// RateLimitConfig controls the per-user request limiter on generation endpoints.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Requests int           `yaml:"requests" env:"RATE_LIMIT_REQUESTS" env-default:"20"`
	Window   time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"1m"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// A missing config.yaml is not an error; defaults and environment apply.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.parseComplexFields()

	if err := cfg.validateAI(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	if cfg.Quota.MaxAnalysesPerTool <= 0 {
		return nil, fmt.Errorf("quota.max_analyses_per_tool must be positive, got %d", cfg.Quota.MaxAnalysesPerTool)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() {
	c.AI.TextModels = parseList(c.AI.TextModelsStr)
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
}

// validateAI fails fast when the selected provider has no credential.
func (c *Config) validateAI() error {
	switch c.AI.Provider {
	case ProviderGemini:
		if c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider %q", c.AI.Provider)
		}
	case ProviderOpenAI:
		if c.AI.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider %q", c.AI.Provider)
		}
	case ProviderAnthropic:
		if c.AI.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", c.AI.Provider)
		}
	default:
		return fmt.Errorf("unknown provider %q", c.AI.Provider)
	}

	if len(c.AI.TextModels) == 0 {
		return fmt.Errorf("at least one text model must be configured")
	}
	return nil
}

// parseList splits a comma-separated value, dropping empty entries.
func parseList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the database connection as a postgres:// URL, used by migrations.
func (c *DatabaseConfig) URL() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Database,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// Addr returns the Redis address, or empty string when Redis is not configured.
func (c *RedisConfig) Addr() string {
	if c.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
