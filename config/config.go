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
	Server   ServerConfig
	Firebase FirebaseConfig
	Store    StoreConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Session  SessionConfig
	Login    LoginConfig
	Archive  ArchiveConfig
	App      AppConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type FirebaseConfig struct {
	CredentialsPath string
	ProjectID       string
	WebAPIKey       string
}

// StoreConfig selects the document store backend ("firestore" or "memory").
// The dev fields only apply to the in-memory backend.
type StoreConfig struct {
	Backend       string
	DevPassword   string
	DevAdminEmail string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	RoleTTL  time.Duration
}

type DatabaseConfig struct {
	DSN string
}

type SessionConfig struct {
	Secret       string
	SecureCookie bool
	TTL          time.Duration
}

type LoginConfig struct {
	RatePerMinute int
	Burst         int
}

// ArchiveConfig drives the monthly archive job.
type ArchiveConfig struct {
	CronEnabled bool
	Formats     []string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	Timezone    string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", nil),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			WebAPIKey:       getEnv("FIREBASE_WEB_API_KEY", ""),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(getEnv("DOCSTORE", "firestore")),
			DevPassword:   getEnv("DEV_PASSWORD", ""),
			DevAdminEmail: getEnv("DEV_ADMIN_EMAIL", "admin@primus.local"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			RoleTTL:  getEnvAsDuration("ROLE_CACHE_TTL", time.Minute),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DB_DSN", ""),
		},
		Session: SessionConfig{
			Secret:       getEnv("SESSION_SECRET", ""),
			SecureCookie: getEnvAsBool("SESSION_SECURE_COOKIE", false),
			TTL:          getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
		},
		Login: LoginConfig{
			RatePerMinute: getEnvAsInt("LOGIN_RATE_PER_MINUTE", 10),
			Burst:         getEnvAsInt("LOGIN_BURST", 5),
		},
		Archive: ArchiveConfig{
			CronEnabled: getEnvAsBool("ARCHIVE_CRON_ENABLED", true),
			Formats:     getEnvAsList("ARCHIVE_FORMATS", []string{"pdf"}),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Timezone:    getEnv("APP_TIMEZONE", "Europe/Berlin"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}

	switch c.Store.Backend {
	case "firestore":
		if c.Firebase.CredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required for DOCSTORE=firestore")
		}
	case "memory":
		if c.App.Environment == "production" {
			return fmt.Errorf("DOCSTORE=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("DOCSTORE must be firestore or memory, got %q", c.Store.Backend)
	}

	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}

	return nil
}

// Location returns the configured local timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
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
	return out
}
