package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Auth      AuthConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// RedisConfig configures the shared-cache counter backend. An empty
// Addr disables Redis and the limiter runs on the in-process table only.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type AuthConfig struct {
	JWTSecret         string
	AccessTokenExpiry time.Duration
	CleanupInterval   time.Duration
}

type EmailConfig struct {
	Enabled              bool
	AWSRegion            string
	FromAddress          string
	BaseURL              string
	VerificationTokenTTL time.Duration
	PasswordResetTTL     time.Duration
}

// RateLimitConfig holds per-policy quota overrides plus the coarse
// global burst guard applied ahead of the policy limiter.
type RateLimitConfig struct {
	GlobalBurstPerMinute int
	AuthLimit            int64
	AuthWindow           time.Duration
	APILimit             int64
	APIWindow            time.Duration
	UploadLimit          int64
	UploadWindow         time.Duration
	DefaultLimit         int64
	DefaultWindow        time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "eventlane"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Timeout:  getEnvAsDuration("REDIS_TIMEOUT", 500*time.Millisecond),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
		},
		Auth: AuthConfig{
			JWTSecret:         jwtSecret,
			AccessTokenExpiry: getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
			CleanupInterval:   getEnvAsDuration("TOKEN_CLEANUP_INTERVAL", 1*time.Hour),
		},
		Email: EmailConfig{
			Enabled:              getEnvAsBool("EMAIL_ENABLED", false),
			AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
			FromAddress:          getEnv("EMAIL_FROM_ADDRESS", "no-reply@eventlane.io"),
			BaseURL:              getEnv("EMAIL_BASE_URL", "http://localhost:8080"),
			VerificationTokenTTL: getEnvAsDuration("EMAIL_VERIFICATION_TTL", 24*time.Hour),
			PasswordResetTTL:     getEnvAsDuration("PASSWORD_RESET_TTL", 30*time.Minute),
		},
		RateLimit: RateLimitConfig{
			GlobalBurstPerMinute: getEnvAsInt("RATE_LIMIT_GLOBAL_BURST", 300),
			AuthLimit:            int64(getEnvAsInt("RATE_LIMIT_AUTH", 5)),
			AuthWindow:           getEnvAsDuration("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute),
			APILimit:             int64(getEnvAsInt("RATE_LIMIT_API", 100)),
			APIWindow:            getEnvAsDuration("RATE_LIMIT_API_WINDOW", 1*time.Hour),
			UploadLimit:          int64(getEnvAsInt("RATE_LIMIT_UPLOAD", 10)),
			UploadWindow:         getEnvAsDuration("RATE_LIMIT_UPLOAD_WINDOW", 1*time.Hour),
			DefaultLimit:         int64(getEnvAsInt("RATE_LIMIT_DEFAULT", 20)),
			DefaultWindow:        getEnvAsDuration("RATE_LIMIT_DEFAULT_WINDOW", 1*time.Minute),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for the signing secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
