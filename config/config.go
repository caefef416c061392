package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	DeepSeek  DeepSeekConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	App       AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	// TrustedProxies lists the peers allowed to set X-Forwarded-For. Empty
	// means client IPs come from the socket only.
	TrustedProxies []string
}

// DeepSeekConfig holds the completion API settings. APIKey may be empty:
// the service still starts and every suggestion request reports the
// missing credential.
type DeepSeekConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES", nil),
		},
		DeepSeek: DeepSeekConfig{
			APIKey:      strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY")),
			BaseURL:     strings.TrimRight(getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com"), "/"),
			Model:       getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
			Temperature: getEnvAsFloat("DEEPSEEK_TEMPERATURE", 0.7),
			Timeout:     time.Duration(getEnvAsInt("DEEPSEEK_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 20),
			Burst:     getEnvAsInt("RATE_LIMIT_BURST", 5),
		},
		Cache: CacheConfig{
			RedisURL: os.Getenv("REDIS_URL"),
			TTL:      time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 600)) * time.Second,
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.DeepSeek.APIKey == "" {
		log.Println("Warning: DEEPSEEK_API_KEY is not set, suggestion requests will fail")
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.DeepSeek.BaseURL == "" {
		return fmt.Errorf("DEEPSEEK_BASE_URL is required")
	}

	if c.DeepSeek.Model == "" {
		return fmt.Errorf("DEEPSEEK_MODEL is required")
	}

	if c.DeepSeek.Timeout <= 0 {
		return fmt.Errorf("DEEPSEEK_TIMEOUT_SECONDS must be positive")
	}

	if c.DeepSeek.Temperature < 0 || c.DeepSeek.Temperature > 2 {
		return fmt.Errorf("DEEPSEEK_TEMPERATURE must be between 0 and 2")
	}

	if c.RateLimit.PerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}

	return nil
}

// HasAPIKey reports whether the completion API credential is configured.
func (c DeepSeekConfig) HasAPIKey() bool {
	return c.APIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
