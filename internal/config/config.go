package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (optional driver switch via ENV, default: in-memory sqlite).
	// The default connection is memory-backed so the whole feed lives and
	// dies with the process.
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret     string
	SessionExpiry time.Duration

	// Caption generation (Gemini)
	GeminiAPIKey string
	GeminiModel  string

	// Email (share-by-email via Resend)
	EmailFrom    string
	ResendAPIKey string

	// Uploads
	MaxUploadSize int64

	// Observability (optional)
	SentryDSN string

	// Storage backend: "memory" (default) or "s3"
	StorageBackend  string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string // Optional: for S3-compatible services (MinIO, R2, etc.)
	S3PresignExpiry time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Affeed"),
		AppEnv:  envString("APP_ENV", "development"),
		AppURL:  envString("APP_URL", "http://localhost:8090"),
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "file:affeed?mode=memory&cache=shared&_pragma=foreign_keys(1)"),

		// Security
		JWTSecret:     envRequired("JWT_SECRET"),
		SessionExpiry: envDuration("SESSION_EXPIRY", 24*time.Hour),

		// Caption generation (GEMINI_API_KEY optional in development: the
		// caption service falls back to log mode)
		GeminiAPIKey: envString("GEMINI_API_KEY", ""),
		GeminiModel:  envString("GEMINI_MODEL", "gemini-2.5-flash"),

		// Email
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Uploads
		MaxUploadSize: envInt64("MAX_UPLOAD_SIZE", 50<<20), // 50MB, videos included

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		StorageBackend:  envString("STORAGE_BACKEND", "memory"),
		S3Region:        envString("S3_REGION", ""),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures required services are configured for production
// deployments. Development allows caption generation and email to run in log
// mode for easier local testing.
func validateProduction(cfg *Config) {
	if cfg.GeminiAPIKey == "" {
		slog.Error("production deployment requires GEMINI_API_KEY",
			"hint", "set APP_ENV=development for local testing with caption log mode")
		os.Exit(1)
	}
	if cfg.StorageBackend == "s3" && (cfg.S3Bucket == "" || cfg.S3Region == "") {
		slog.Error("STORAGE_BACKEND=s3 requires S3_BUCKET and S3_REGION")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
