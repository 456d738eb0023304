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

// Identity provider names accepted by IDENTITY_PROVIDER
const (
	IdentitySupabase = "supabase"
	IdentityLocal    = "local"
	IdentityNone     = "none"
)

// minLocalSecretLen is the shortest HS256 secret accepted in production
const minLocalSecretLen = 32

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Identity      IdentityConfig
	Session       SessionConfig
	Dashboard     DashboardConfig
	Activity      ActivityConfig
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
	RequestTimeout  time.Duration
	PublicURL       string   // externally visible base URL; https enables secure cookies
	AllowedOrigins  []string // CORS origins of the dashboard front end
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
	InitSchema       bool          // create tables on startup (local databases only)
	LockTimeout      time.Duration // per-transaction lock_timeout; 0 waits forever
}

// IdentityConfig selects and configures the identity provider
type IdentityConfig struct {
	Provider          string // supabase, local or none
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string // optional HS256 secret; JWKS is used when empty
	LocalJWTSecret    string
	LocalTokenTTL     time.Duration
	JWKSCacheTTL      time.Duration
	JWKSRefresh       time.Duration // minimum gap between refetches on an unknown kid
	HTTPTimeout       time.Duration
}

// SessionConfig holds session cookie and resolution settings
type SessionConfig struct {
	CookieSecure       bool
	MaxAge             time.Duration
	ResolveTimeout     time.Duration
	PrincipalCacheSize int
	PrincipalCacheTTL  time.Duration
	CleanupInterval    time.Duration
}

// DashboardConfig holds page settings
type DashboardConfig struct {
	Timezone         string // IANA name used for "today" and daily report buckets
	RecentDeliveries int
}

// ActivityConfig sizes the asynchronous activity recorder
type ActivityConfig struct {
	BufferSize  int
	WorkerCount int
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a new Config by loading the given env files (".env" when none
// are named) and then the process environment. Variables already set in the
// environment win over file values.
func New(ctx context.Context, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load(".env")
	} else {
		for _, f := range envFiles {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
			}
		}
	}

	environment := getEnv("ENVIRONMENT", "development")
	publicURL := getEnv("PUBLIC_URL", "http://localhost:8080")

	cfg := &Config{
		Environment: environment,
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			PublicURL:       publicURL,
			AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:*"}),
		},
		Database: loadDatabaseConfig(),
		Identity: IdentityConfig{
			Provider:          strings.ToLower(getEnv("IDENTITY_PROVIDER", IdentitySupabase)),
			SupabaseURL:       getEnv("SUPABASE_URL", ""),
			SupabaseAnonKey:   getEnv("SUPABASE_ANON_KEY", ""),
			SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
			LocalJWTSecret:    getEnv("LOCAL_JWT_SECRET", ""),
			LocalTokenTTL:     getEnvAsDuration("LOCAL_TOKEN_TTL", 12*time.Hour),
			JWKSCacheTTL:      getEnvAsDuration("JWKS_CACHE_TTL", time.Hour),
			JWKSRefresh:       getEnvAsDuration("JWKS_REFRESH_INTERVAL", 30*time.Second),
			HTTPTimeout:       getEnvAsDuration("IDENTITY_HTTP_TIMEOUT", 10*time.Second),
		},
		Session: SessionConfig{
			CookieSecure:       getEnvAsBool("SESSION_COOKIE_SECURE", strings.HasPrefix(publicURL, "https")),
			MaxAge:             getEnvAsDuration("SESSION_MAX_AGE", 12*time.Hour),
			ResolveTimeout:     getEnvAsDuration("SESSION_RESOLVE_TIMEOUT", 3*time.Second),
			PrincipalCacheSize: getEnvAsInt("PRINCIPAL_CACHE_SIZE", 1000),
			PrincipalCacheTTL:  getEnvAsDuration("PRINCIPAL_CACHE_TTL", 5*time.Minute),
			CleanupInterval:    getEnvAsDuration("PRINCIPAL_CACHE_CLEANUP_INTERVAL", time.Minute),
		},
		Dashboard: DashboardConfig{
			Timezone:         getEnv("BUSINESS_TIMEZONE", "UTC"),
			RecentDeliveries: getEnvAsInt("RECENT_DELIVERIES", 5),
		},
		Activity: ActivityConfig{
			BufferSize:  getEnvAsInt("ACTIVITY_BUFFER_SIZE", 1000),
			WorkerCount: getEnvAsInt("ACTIVITY_WORKERS", 2),
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

	switch c.Identity.Provider {
	case IdentitySupabase:
		if c.IsProduction() {
			if c.Identity.SupabaseURL == "" {
				return fmt.Errorf("SUPABASE_URL is required in production")
			}
			if c.Identity.SupabaseAnonKey == "" {
				return fmt.Errorf("SUPABASE_ANON_KEY is required in production")
			}
		}
	case IdentityLocal:
		if c.Identity.LocalJWTSecret == "" {
			return fmt.Errorf("LOCAL_JWT_SECRET is required for the local identity provider")
		}
		if c.IsProduction() && len(c.Identity.LocalJWTSecret) < minLocalSecretLen {
			return fmt.Errorf("LOCAL_JWT_SECRET must be at least %d bytes in production", minLocalSecretLen)
		}
	case IdentityNone:
		if c.IsProduction() {
			return fmt.Errorf("an identity provider is required in production")
		}
	default:
		return fmt.Errorf("unknown identity provider %q", c.Identity.Provider)
	}

	if _, err := c.Dashboard.Location(); err != nil {
		return err
	}
	if c.Dashboard.RecentDeliveries <= 0 {
		return fmt.Errorf("RECENT_DELIVERIES must be positive")
	}
	if c.Session.PrincipalCacheSize <= 0 {
		return fmt.Errorf("PRINCIPAL_CACHE_SIZE must be positive")
	}
	if c.Activity.BufferSize <= 0 || c.Activity.WorkerCount <= 0 {
		return fmt.Errorf("activity buffer size and worker count must be positive")
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

// Location returns the business timezone
func (c *DashboardConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
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
		if err == nil && u.Host != "" {
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
	cfg := DatabaseConfig{
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		InitSchema:      getEnvAsBool("DB_INIT_SCHEMA", false),
		LockTimeout:     getEnvAsDuration("DB_LOCK_TIMEOUT", 5*time.Second),
	}
	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		cfg.ConnectionString = dbURL
		return cfg
	}
	cfg.Host = getEnv("DB_HOST", "localhost")
	cfg.Port = getEnvAsInt("DB_PORT", 5432)
	cfg.User = getEnv("DB_USER", "postgres")
	cfg.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database = getEnv("DB_NAME", "kitchen")
	cfg.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg
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

// getEnvAsList splits a comma-separated variable, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
