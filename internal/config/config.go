package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string `validate:"required,numeric"`

	// Geolocation API
	GeoAPIURL        string        `validate:"required,url"`
	GeoAPIKey        string        // Sent as apiKey when set
	GeoAPIQueryParam string        `validate:"required"`
	GeoAPITimeout    time.Duration `validate:"gte=0"` // 0 disables the client timeout

	// Rate limiting
	RateLimitType   string `validate:"oneof=memory redis"`
	RateLimit       int    `validate:"gt=0"` // number of requests allowed
	RateLimitWindow int    `validate:"gt=0"` // time window in seconds

	// Datastore configuration
	DatastoreType string `validate:"oneof=file memory redis mysql"`
	DatastorePath string `validate:"required_if=DatastoreType file"` // JSON file for the file backend

	// MySQL configuration
	MySQLDSN string `validate:"required_if=DatastoreType mysql"`

	// Redis configuration
	RedisAddr     string `validate:"required"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	// Logging
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogPretty bool
}

// Load reads configuration from environment variables
// with sensible defaults
func Load() *Config {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	return &Config{
		Port: getEnv("PORT", "3000"),

		GeoAPIURL:        getEnv("GEO_API_URL", "https://geo.ipify.org/api/v2/country,city"),
		GeoAPIKey:        getEnv("GEO_API_KEY", ""),
		GeoAPIQueryParam: getEnv("GEO_API_QUERY_PARAM", "ip"),
		GeoAPITimeout:    getEnvAsDuration("GEO_API_TIMEOUT", 0),

		// default: memory, 5 requests per 1 second
		RateLimitType:   getEnv("RATE_LIMITER_TYPE", "memory"),
		RateLimit:       getEnvAsInt("RATE_LIMIT", 5),
		RateLimitWindow: getEnvAsInt("RATE_LIMIT_WINDOW", 1),

		DatastoreType: strings.ToLower(getEnv("DATASTORE_TYPE", "file")),
		DatastorePath: getEnv("DATASTORE_PATH", "./data/iptracker.json"),

		MySQLDSN: getEnv("MYSQL_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
	}
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// RateLimitDuration returns the rate limit window as a duration
func (c *Config) RateLimitDuration() time.Duration {
	return time.Duration(c.RateLimitWindow) * time.Second
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt reads an environment variable as an integer
// Returns default if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool reads an environment variable as a bool (1, true, false, ...)
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDuration reads an environment variable as a duration
// Bare integers are taken as seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
