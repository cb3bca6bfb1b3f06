package app

import (
	"os"
	"strconv"
	"time"

	"github.com/glimpse-social/glimpse/pkg/jwtx"
)

type Config struct {
	Issuer    string // Issuer claim for tokens (default: glimpse-api)
	JWTSecret string // Required: HS256 signing secret, at least 32 bytes

	AccessTokenTTL  time.Duration // Access token lifetime (default: 5m)
	RefreshTokenTTL time.Duration // Refresh token lifetime (default: 168h)

	DatabaseFile string // Path to SQLite database file (default: ./glimpse.db)

	S3Region         string // Media bucket region
	S3Bucket         string // Required: media bucket name
	S3AccessKey      string // Media bucket credentials
	S3SecretKey      string
	S3Endpoint       string // Optional: S3-compatible endpoint (MinIO, R2)
	S3ForcePathStyle bool   // Optional: path-style addressing for S3-compatible hosts
	MediaBaseURL     string // Optional: public base URL for media objects

	MediaDeleteBatch int // Keys per bulk media delete request (default: 100, max: 100)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-ban sweep interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:    getEnvOrDefault("API_ISSUER", "glimpse-api"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		AccessTokenTTL:  getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL: getEnvDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),

		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "glimpse.db"),

		S3Region:         getEnvOrDefault("S3_REGION", "us-east-1"),
		S3Bucket:         os.Getenv("S3_BUCKET"),
		S3AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:      os.Getenv("S3_SECRET_KEY"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3ForcePathStyle: getEnvBoolOrDefault("S3_FORCE_PATH_STYLE", false),
		MediaBaseURL:     os.Getenv("MEDIA_BASE_URL"),

		MediaDeleteBatch: getEnvIntOrDefault("MEDIA_DELETE_BATCH", 100),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
