package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Session   SessionConfig
	Redis     RedisConfig
	Backend   BackendConfig
	Cache     CacheConfig
	Uploads   UploadsConfig
	R2        R2Config
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	Env             string
	PublicURL       string
	ShutdownTimeout time.Duration
}

// Session backends
const (
	SessionBackendCookie = "cookie"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

type SessionConfig struct {
	Secret      string
	CookieName  string
	Secure      bool
	IdleTimeout time.Duration
	Backend     string
	MaxEntries  int
}

type RedisConfig struct {
	URL      string // Full redis:// URL, takes precedence over Addr
	Addr     string
	Password string
	DB       int
}

type BackendConfig struct {
	URL              string
	Timeout          time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

type CacheConfig struct {
	PropertyTTL time.Duration
	MaxEntries  int
}

type UploadsConfig struct {
	Dir           string
	MaxPassportMB int
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
	Region          string
	Endpoint        string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	MaxFailures int
	Window      time.Duration
	Block       time.Duration
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	port := getEnv("PORT", "8080")
	host := getEnv("HOST", "localhost")

	config := &Config{
		Server: ServerConfig{
			Port:            port,
			Host:            host,
			Env:             getEnv("ENV", "development"),
			PublicURL:       getEnv("PUBLIC_URL", fmt.Sprintf("http://%s:%s", host, port)),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Session: SessionConfig{
			Secret:      getEnv("SESSION_SECRET", "your-secret-key-change-in-production"),
			CookieName:  getEnv("SESSION_COOKIE_NAME", "guest_session"),
			Secure:      getEnvAsBool("SESSION_SECURE", false),
			IdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", 12*time.Hour),
			Backend:     strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendMemory)),
			MaxEntries:  getEnvAsInt("SESSION_MAX_ENTRIES", 100000),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Backend: BackendConfig{
			URL:              strings.TrimSuffix(getEnv("BACKEND_API_URL", "http://127.0.0.1:8000/api"), "/"),
			Timeout:          getEnvAsDuration("BACKEND_TIMEOUT", 30*time.Second),
			BreakerThreshold: getEnvAsInt("BACKEND_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  getEnvAsDuration("BACKEND_BREAKER_COOLDOWN", 30*time.Second),
		},
		Cache: CacheConfig{
			PropertyTTL: getEnvAsDuration("PROPERTY_CACHE_TTL", time.Minute),
			MaxEntries:  getEnvAsInt("PROPERTY_CACHE_MAX_ENTRIES", 1000),
		},
		Uploads: UploadsConfig{
			Dir:           getEnv("UPLOADS_DIR", "uploads"),
			MaxPassportMB: getEnvAsInt("MAX_PASSPORT_MB", 5),
		},
		R2: R2Config{
			AccountID:       getEnv("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("R2_BUCKET_NAME", "guest-passports"),
			PublicURL:       getEnv("R2_PUBLIC_URL", ""),
			Region:          getEnv("R2_REGION", "auto"),
			Endpoint:        getEnv("R2_ENDPOINT", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		RateLimit: RateLimitConfig{
			MaxFailures: getEnvAsInt("TOKEN_MAX_FAILURES", 10),
			Window:      getEnvAsDuration("TOKEN_FAILURE_WINDOW", 15*time.Minute),
			Block:       getEnvAsDuration("TOKEN_BLOCK_DURATION", 30*time.Minute),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// R2Enabled reports whether R2 credentials are configured
func (c *Config) R2Enabled() bool {
	return c.R2.AccessKeyID != "" && c.R2.SecretAccessKey != ""
}

// Validate checks settings that would otherwise fail at first use
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid BACKEND_API_URL %q", c.Backend.URL)
	}

	switch c.Session.Backend {
	case SessionBackendCookie, SessionBackendRedis, SessionBackendMemory:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend)
	}

	if c.IsProduction() && (c.Session.Secret == "" || c.Session.Secret == "your-secret-key-change-in-production") {
		return fmt.Errorf("SESSION_SECRET must be set in production")
	}

	if c.Uploads.MaxPassportMB <= 0 {
		return fmt.Errorf("MAX_PASSPORT_MB must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
