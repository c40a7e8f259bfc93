package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file, overridable with CHAIN_CONFIG.
var ConfigPath = "config.yaml"

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

var generationProviders = map[string]bool{
	"openai":        true,
	"openai-compat": true,
	"anthropic":     true,
	"gemini":        true,
	"ollama":        true,
}

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                  string   `yaml:"port"`
	LogLevel              string   `yaml:"logLevel"`
	StoreDriver           string   `yaml:"storeDriver"`
	DatabaseURL           string   `yaml:"databaseURL"`
	GenerationProvider    string   `yaml:"generationProvider"`
	GenerationBaseURL     string   `yaml:"generationBaseURL"`
	GenerationAPIKey      string   `yaml:"generationAPIKey"`
	GenerationModel       string   `yaml:"generationModel"`
	ExtractionModel       string   `yaml:"extractionModel"`
	OMDbAPIKey            string   `yaml:"omdbAPIKey"`
	OMDbBaseURL           string   `yaml:"omdbBaseURL"`
	OMDbRequestsPerSecond float64  `yaml:"omdbRequestsPerSecond"`
	RedisAddr             string   `yaml:"redisAddr"`
	RedisPassword         string   `yaml:"redisPassword"`
	RateLimitPerMinute    int      `yaml:"rateLimitPerMinute"`
	TrustedProxies        []string `yaml:"trustedProxies"`
	AllowedOrigins        []string `yaml:"allowedOrigins"`
	JWTSecret             string   `yaml:"jwtSecret"`
	JWTIssuer             string   `yaml:"jwtIssuer"`
	JWTAudience           string   `yaml:"jwtAudience"`
	JWTLeeway             string   `yaml:"jwtLeeway"`
	ShutdownTimeout       string   `yaml:"shutdownTimeout"`
}

// Load reads config from path (defaults to CHAIN_CONFIG, then config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = os.Getenv("CHAIN_CONFIG")
	}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("OMDB_API_KEY"); v != "" {
		cfg.OMDbAPIKey = v
	}
	if v := os.Getenv("GENERATION_API_KEY"); v != "" {
		cfg.GenerationAPIKey = v
	}
	if v := os.Getenv("GENERATION_PROVIDER"); v != "" {
		cfg.GenerationProvider = strings.TrimSpace(v)
	}
	if v := os.Getenv("GENERATION_MODEL"); v != "" {
		cfg.GenerationModel = strings.TrimSpace(v)
	}
	if v := os.Getenv("GENERATION_BASE_URL"); v != "" {
		cfg.GenerationBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("CHAIN_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("CHAIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("CHAIN_TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitCSV(v)
	}
	if v := os.Getenv("CHAIN_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func applyDefaults(cfg *FileConfig) {
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = StoreDriverPostgres
	}
	cfg.GenerationProvider = strings.ToLower(strings.TrimSpace(cfg.GenerationProvider))
	if cfg.GenerationProvider == "" {
		cfg.GenerationProvider = "openai"
	}
	if strings.TrimSpace(cfg.ExtractionModel) == "" {
		cfg.ExtractionModel = cfg.GenerationModel
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return errors.New("config: databaseURL is required for the postgres store (set in config.yaml or DATABASE_URL)")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("config: unknown storeDriver %q (postgres or memory)", cfg.StoreDriver)
	}
	if strings.TrimSpace(cfg.OMDbAPIKey) == "" {
		return errors.New("config: omdbAPIKey is required (set in config.yaml or OMDB_API_KEY)")
	}
	if strings.TrimSpace(cfg.GenerationModel) == "" {
		return errors.New("config: generationModel is required (set in config.yaml or GENERATION_MODEL)")
	}
	if !generationProviders[cfg.GenerationProvider] {
		return fmt.Errorf("config: unknown generationProvider %q", cfg.GenerationProvider)
	}
	if cfg.RateLimitPerMinute < 0 {
		return errors.New("config: rateLimitPerMinute must be >= 0")
	}
	if cfg.RateLimitPerMinute > 0 && strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required when rateLimitPerMinute is set")
	}
	if _, err := ParseDuration(cfg.JWTLeeway, "jwtLeeway"); err != nil {
		return err
	}
	if _, err := ParseDuration(cfg.ShutdownTimeout, "shutdownTimeout"); err != nil {
		return err
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// ParseDuration parses an optional duration field. Empty yields zero.
func ParseDuration(value, field string) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", field, err)
	}
	return dur, nil
}
