package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file, overridable with CONFIG_PATH.
var ConfigPath = envOr("CONFIG_PATH", "config.yaml")

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port            string `yaml:"port"`
	DatabaseURL     string `yaml:"databaseURL"`
	RedisAddr       string `yaml:"redisAddr"`
	RedisPassword   string `yaml:"redisPassword"`
	LogLevel        string `yaml:"logLevel"`
	CORSOrigins     string `yaml:"corsOrigins"`
	TrustedProxies  string `yaml:"trustedProxies"`
	DisplayTimezone string `yaml:"displayTimezone"`

	SessionStrategy string `yaml:"sessionStrategy"` // redis | jwt
	SessionTTL      string `yaml:"sessionTTL"`
	JWTSecret       string `yaml:"jwtSecret"`
	JWTIssuer       string `yaml:"jwtIssuer"`
	JWTAudience     string `yaml:"jwtAudience"`
	JWTLeeway       string `yaml:"jwtLeeway"`

	LLMProvider   string `yaml:"llmProvider"` // gemini | ollama | openai
	LLMTimeout    string `yaml:"llmTimeout"`
	GeminiAPIKey  string `yaml:"geminiApiKey"`
	GeminiModel   string `yaml:"geminiModel"`
	OllamaBaseURL string `yaml:"ollamaBaseURL"`
	OllamaModel   string `yaml:"ollamaModel"`
	OpenAIBaseURL string `yaml:"openaiBaseURL"`
	OpenAIAPIKey  string `yaml:"openaiApiKey"`
	OpenAIModel   string `yaml:"openaiModel"`

	TMDBAPIKey      string `yaml:"tmdbApiKey"`
	TMDBBaseURL     string `yaml:"tmdbBaseURL"`
	TMDBLanguage    string `yaml:"tmdbLanguage"`
	TMDBRegion      string `yaml:"tmdbRegion"`
	TMDBTimeout     string `yaml:"tmdbTimeout"`
	CatalogCacheTTL string `yaml:"catalogCacheTTL"`

	EmailUser        string `yaml:"emailUser"`
	EmailPass        string `yaml:"emailPass"`
	SMTPHost         string `yaml:"smtpHost"`
	SMTPPort         int    `yaml:"smtpPort"`
	MailFrom         string `yaml:"mailFrom"`
	MailQueueEnabled bool   `yaml:"mailQueueEnabled"`

	ResetRateLimitPerMinute int `yaml:"resetRateLimitPerMinute"`
}

// Load reads config from path, then applies environment overrides. A missing
// file is only an error when the path was chosen explicitly.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	explicit := path != "" && path != "config.yaml"
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	strs := map[string]*string{
		"PORT":              &cfg.Port,
		"DATABASE_URL":      &cfg.DatabaseURL,
		"REDIS_ADDR":        &cfg.RedisAddr,
		"REDIS_PASSWORD":    &cfg.RedisPassword,
		"LOG_LEVEL":         &cfg.LogLevel,
		"CORS_ORIGINS":      &cfg.CORSOrigins,
		"TRUSTED_PROXIES":   &cfg.TrustedProxies,
		"DISPLAY_TIMEZONE":  &cfg.DisplayTimezone,
		"SESSION_STRATEGY":  &cfg.SessionStrategy,
		"SESSION_TTL":       &cfg.SessionTTL,
		"JWT_SECRET":        &cfg.JWTSecret,
		"JWT_ISSUER":        &cfg.JWTIssuer,
		"JWT_AUDIENCE":      &cfg.JWTAudience,
		"JWT_LEEWAY":        &cfg.JWTLeeway,
		"LLM_PROVIDER":      &cfg.LLMProvider,
		"LLM_TIMEOUT":       &cfg.LLMTimeout,
		"GEMINI_API_KEY":    &cfg.GeminiAPIKey,
		"GEMINI_MODEL":      &cfg.GeminiModel,
		"OLLAMA_BASE_URL":   &cfg.OllamaBaseURL,
		"OLLAMA_MODEL":      &cfg.OllamaModel,
		"OPENAI_BASE_URL":   &cfg.OpenAIBaseURL,
		"OPENAI_API_KEY":    &cfg.OpenAIAPIKey,
		"OPENAI_MODEL":      &cfg.OpenAIModel,
		"TMDB_API_KEY":      &cfg.TMDBAPIKey,
		"TMDB_BASE_URL":     &cfg.TMDBBaseURL,
		"TMDB_LANGUAGE":     &cfg.TMDBLanguage,
		"TMDB_REGION":       &cfg.TMDBRegion,
		"TMDB_TIMEOUT":      &cfg.TMDBTimeout,
		"CATALOG_CACHE_TTL": &cfg.CatalogCacheTTL,
		"EMAIL_USER":        &cfg.EmailUser,
		"EMAIL_PASS":        &cfg.EmailPass,
		"SMTP_HOST":         &cfg.SMTPHost,
		"MAIL_FROM":         &cfg.MailFrom,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SMTPPort = n
		}
	}
	if v := os.Getenv("MAIL_QUEUE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MailQueueEnabled = b
		}
	}
	if v := os.Getenv("RESET_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ResetRateLimitPerMinute = n
		}
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.SessionStrategy == "" {
		cfg.SessionStrategy = "redis"
	}
	cfg.SessionStrategy = strings.ToLower(strings.TrimSpace(cfg.SessionStrategy))
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "gemini"
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if cfg.SMTPHost == "" {
		cfg.SMTPHost = "smtp.gmail.com"
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 465
	}
	if cfg.DisplayTimezone == "" {
		cfg.DisplayTimezone = "UTC"
	}
}

func validateConfig(cfg FileConfig) error {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required (sessions and password reset use redis)")
	}
	switch cfg.SessionStrategy {
	case "redis":
	case "jwt":
		if len(cfg.JWTSecret) < 32 {
			return errors.New("config: jwtSecret of at least 32 bytes is required for the jwt session strategy (set JWT_SECRET)")
		}
	default:
		return fmt.Errorf("config: unknown sessionStrategy %q (redis or jwt)", cfg.SessionStrategy)
	}
	switch cfg.LLMProvider {
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return errors.New("config: geminiApiKey is required (set GEMINI_API_KEY)")
		}
	case "ollama":
		if strings.TrimSpace(cfg.OllamaModel) == "" {
			return errors.New("config: ollamaModel is required for the ollama provider")
		}
	case "openai":
		if strings.TrimSpace(cfg.OpenAIBaseURL) == "" || strings.TrimSpace(cfg.OpenAIModel) == "" {
			return errors.New("config: openaiBaseURL and openaiModel are required for the openai provider")
		}
	default:
		return fmt.Errorf("config: unknown llmProvider %q", cfg.LLMProvider)
	}
	if strings.TrimSpace(cfg.TMDBAPIKey) == "" {
		return errors.New("config: tmdbApiKey is required (set TMDB_API_KEY)")
	}
	if cfg.EmailUser != "" && cfg.EmailPass == "" {
		return errors.New("config: emailPass is required when emailUser is set")
	}
	if cfg.SMTPPort < 0 || cfg.SMTPPort > 65535 {
		return errors.New("config: smtpPort out of range")
	}
	if cfg.ResetRateLimitPerMinute < 0 {
		return errors.New("config: resetRateLimitPerMinute must be >= 0")
	}
	if _, err := time.LoadLocation(cfg.DisplayTimezone); err != nil {
		return fmt.Errorf("config: invalid displayTimezone: %w", err)
	}
	for name, v := range map[string]string{
		"sessionTTL":      cfg.SessionTTL,
		"jwtLeeway":       cfg.JWTLeeway,
		"llmTimeout":      cfg.LLMTimeout,
		"tmdbTimeout":     cfg.TMDBTimeout,
		"catalogCacheTTL": cfg.CatalogCacheTTL,
	} {
		if _, err := ParseDuration(name, v); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// ParseDuration parses an optional duration string; empty means zero.
func ParseDuration(name, value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", name, err)
	}
	if dur < 0 {
		return 0, fmt.Errorf("invalid %s duration: must not be negative", name)
	}
	return dur, nil
}

// SplitList splits a comma-separated setting, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envOr(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}
