package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	App           AppConfig
	Platform      PlatformConfig
	Database      DatabaseConfig
	Sync          SyncConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// AppConfig holds application-level settings used by the auth flows.
type AppConfig struct {
	// BaseURL is the public origin of the web application. Password-reset
	// links sent by the identity platform redirect back to this origin.
	BaseURL string
	// LoginPath is where unauthenticated visitors are sent.
	LoginPath string
	// RestrictedPaths are path substrings that the post-sign-out redirect
	// must never resolve into.
	RestrictedPaths []string
}

// PlatformConfig holds the hosted identity platform configuration.
// ServiceRoleKey authorizes elevated operations and must never be exposed
// outside the server process.
type PlatformConfig struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	JWTAudience    string
	HTTPTimeout    time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// SyncConfig holds the two external contact service endpoints.
type SyncConfig struct {
	Source   ProviderConfig
	Target   ProviderConfig
	PageSize int
}

// ProviderConfig holds one external contact service configuration
type ProviderConfig struct {
	Name       string
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env if present (repo root or current directory)
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		App: AppConfig{
			BaseURL:         strings.TrimSuffix(getEnv("APP_BASE_URL", ""), "/"),
			LoginPath:       getEnv("APP_LOGIN_PATH", "/login"),
			RestrictedPaths: getEnvAsList("AUTH_RESTRICTED_PATHS", []string{"/dashboard", "/admin"}),
		},
		Platform: PlatformConfig{
			URL:            strings.TrimSuffix(getEnv("PLATFORM_URL", ""), "/"),
			AnonKey:        getEnv("PLATFORM_ANON_KEY", ""),
			ServiceRoleKey: getEnv("PLATFORM_SERVICE_KEY", ""),
			JWTAudience:    getEnv("PLATFORM_JWT_AUDIENCE", "authenticated"),
			HTTPTimeout:    getEnvAsDuration("PLATFORM_HTTP_TIMEOUT", 10*time.Second),
		},
		Database: loadDatabaseConfig(),
		Sync: SyncConfig{
			Source: ProviderConfig{
				Name:       getEnv("SYNC_SOURCE_NAME", "source"),
				BaseURL:    getEnv("SYNC_SOURCE_URL", ""),
				APIKey:     getEnv("SYNC_SOURCE_API_KEY", ""),
				Timeout:    getEnvAsDuration("SYNC_SOURCE_TIMEOUT", 30*time.Second),
				MaxRetries: getEnvAsInt("SYNC_SOURCE_MAX_RETRIES", 3),
			},
			Target: ProviderConfig{
				Name:       getEnv("SYNC_TARGET_NAME", "target"),
				BaseURL:    getEnv("SYNC_TARGET_URL", ""),
				APIKey:     getEnv("SYNC_TARGET_API_KEY", ""),
				Timeout:    getEnvAsDuration("SYNC_TARGET_TIMEOUT", 30*time.Second),
				MaxRetries: getEnvAsInt("SYNC_TARGET_MAX_RETRIES", 3),
			},
			PageSize: getEnvAsInt("SYNC_PAGE_SIZE", 100),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (DATABASE_URL or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	// Identity platform validation (required in production)
	if c.IsProduction() {
		if c.Platform.URL == "" {
			return fmt.Errorf("identity platform URL is required in production")
		}
		if c.Platform.AnonKey == "" {
			return fmt.Errorf("identity platform anon key is required in production")
		}
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "dev"),
		Password:        getEnv("DB_PASSWORD", "syncline"),
		Database:        getEnv("DB_NAME", "syncline"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
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
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated env var, trimming whitespace.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
