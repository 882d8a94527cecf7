// Package config centralises runtime configuration.
//
// Configuration is read once at startup into an immutable Config value and
// passed down explicitly; business logic never reads the environment.
// Missing token secrets are a startup error, not a per-request failure.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// minSecretLen is the minimum accepted length for HMAC signing secrets.
const minSecretLen = 16

// Config holds all runtime configuration for the server.
type Config struct {
	Port   int
	DBPath string

	// Token signing. Access and refresh tokens use distinct secrets so a
	// leaked access secret cannot mint refresh tokens.
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	// CookieSecure marks auth cookies Secure; enable in production (HTTPS).
	CookieSecure bool

	// Media storage (S3-compatible endpoint, MinIO included).
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	// TempDir is where multipart uploads are staged before the media
	// upload. Defaults to the OS temp dir.
	TempDir string
}

// Load reads configuration from environment variables, providing sane
// defaults for everything except the token secrets, which are required.
func Load() (Config, error) {
	cfg := Config{
		Port:               getIntEnv("PORT", 8080),
		DBPath:             getEnv("DB_PATH", "data/userhub.db"),
		AccessTokenSecret:  getEnv("ACCESS_TOKEN_SECRET", ""),
		RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", ""),
		AccessTokenTTL:     getDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    getDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		CookieSecure:       getBoolEnv("COOKIE_SECURE", false),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3Bucket:           getEnv("S3_BUCKET", "userhub-media"),
		S3AccessKey:        getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:        getEnv("S3_SECRET_KEY", ""),
		TempDir:            getEnv("UPLOAD_TEMP_DIR", os.TempDir()),
	}

	if len(cfg.AccessTokenSecret) < minSecretLen {
		return Config{}, fmt.Errorf("config: ACCESS_TOKEN_SECRET is required and must be at least %d characters", minSecretLen)
	}
	if len(cfg.RefreshTokenSecret) < minSecretLen {
		return Config{}, fmt.Errorf("config: REFRESH_TOKEN_SECRET is required and must be at least %d characters", minSecretLen)
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return Config{}, fmt.Errorf("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		switch strings.ToLower(val) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return fallback
}
