package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DevJWTSecret signs tokens when no secret is configured. It is guessable and
// must never be relied on outside local development.
const DevJWTSecret = "carecycle-dev-secret-key"

// DefaultFrontendURL is the public donation form allowed through CORS when no
// origin is configured.
const DefaultFrontendURL = "https://carecycle-frontend.onrender.com"

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongoDB  = "mongodb"
)

// Config is the immutable application configuration. It is built once at
// startup by Load and handed to every component that needs it.
type Config struct {
	Env       string
	DataDir   string
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Donations DonationsConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MaxBodySize     int64 // bytes

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// DatabaseConfig selects and addresses the persistent store.
type DatabaseConfig struct {
	Driver string
	URL    string
	Name   string // mongo database name
}

// AuthConfig controls token issuance and password hashing.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	fallbackSecret bool
}

// RateLimitConfig controls per-IP limits on the public write endpoints. When
// RedisAddr is set the counters are shared through Redis.
type RateLimitConfig struct {
	LoginPerMinute     int
	DonationsPerMinute int
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
}

// DonationsConfig toggles donation endpoint behaviour.
type DonationsConfig struct {
	ListRequiresAuth bool
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// IsDevelopment reports whether internal error details may be shown to clients.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UsingFallbackSecret reports whether tokens are signed with DevJWTSecret
// because no secret was configured.
func (c Config) UsingFallbackSecret() bool {
	return c.Auth.fallbackSecret
}

// SetDefaults registers default values for every key on v.
func SetDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault("env", "production")
	v.SetDefault("data_dir", filepath.Join(home, ".carecycle"))
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.frontend_url", DefaultFrontendURL)
	v.SetDefault("server.max_body_size", 1<<20)
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("database.driver", "")
	v.SetDefault("database.url", "")
	v.SetDefault("database.name", "carecycle")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("ratelimit.login_per_minute", 20)
	v.SetDefault("ratelimit.donations_per_minute", 30)
	v.SetDefault("ratelimit.redis_addr", "")
	v.SetDefault("ratelimit.redis_password", "")
	v.SetDefault("ratelimit.redis_db", 0)
	v.SetDefault("donations.list_requires_auth", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// BindEnv wires CARECYCLE_* variables plus the names used by existing
// deployments (MONGODB_URI, JWT_SECRET, FRONTEND_URL, PORT, ...).
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CARECYCLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("env", "CARECYCLE_ENV", "APP_ENV", "NODE_ENV")
	v.BindEnv("server.port", "CARECYCLE_SERVER_PORT", "PORT")
	v.BindEnv("server.frontend_url", "CARECYCLE_SERVER_FRONTEND_URL", "FRONTEND_URL")
	v.BindEnv("database.url", "CARECYCLE_DATABASE_URL", "DATABASE_URL", "MONGODB_URI")
	v.BindEnv("auth.jwt_secret", "CARECYCLE_AUTH_JWT_SECRET", "JWT_SECRET")
	v.BindEnv("auth.token_ttl", "CARECYCLE_AUTH_TOKEN_TTL", "JWT_EXPIRES_IN")
	v.BindEnv("ratelimit.redis_addr", "CARECYCLE_RATELIMIT_REDIS_ADDR", "REDIS_ADDR")
}

// Load builds a validated Config from v. SetDefaults should have been called
// on v beforehand.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:     strings.ToLower(strings.TrimSpace(v.GetString("env"))),
		DataDir: v.GetString("data_dir"),
		Server: ServerConfig{
			Host:        v.GetString("server.host"),
			Port:        v.GetInt("server.port"),
			MaxBodySize: v.GetInt64("server.max_body_size"),
			TrustProxy:  v.GetBool("server.trust_proxy"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			URL:    strings.TrimSpace(v.GetString("database.url")),
			Name:   v.GetString("database.name"),
		},
		Auth: AuthConfig{
			JWTSecret:  v.GetString("auth.jwt_secret"),
			BcryptCost: v.GetInt("auth.bcrypt_cost"),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute:     v.GetInt("ratelimit.login_per_minute"),
			DonationsPerMinute: v.GetInt("ratelimit.donations_per_minute"),
			RedisAddr:          v.GetString("ratelimit.redis_addr"),
			RedisPassword:      v.GetString("ratelimit.redis_password"),
			RedisDB:            v.GetInt("ratelimit.redis_db"),
		},
		Donations: DonationsConfig{
			ListRequiresAuth: v.GetBool("donations.list_requires_auth"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	var err error
	if cfg.Server.ShutdownTimeout, err = ParseDuration(v.GetString("server.shutdown_timeout")); err != nil {
		return Config{}, fmt.Errorf("server.shutdown_timeout: %w", err)
	}
	if cfg.Auth.TokenTTL, err = ParseDuration(v.GetString("auth.token_ttl")); err != nil {
		return Config{}, fmt.Errorf("auth.token_ttl: %w", err)
	}

	cfg.Server.CORSOrigins = splitList(v.GetStringSlice("server.cors_origins"))
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = splitList([]string{v.GetString("server.frontend_url")})
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = DevJWTSecret
		cfg.Auth.fallbackSecret = true
	}

	if cfg.Database.URL == "" && (cfg.Database.Driver == "" || cfg.Database.Driver == DriverSQLite) {
		cfg.Database.URL = filepath.Join(cfg.DataDir, "carecycle.db")
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = InferDriver(cfg.Database.URL)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Env {
	case "development", "production", "test":
	default:
		return fmt.Errorf("env must be development, production or test, got %q", c.Env)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxBodySize <= 0 {
		return fmt.Errorf("server.max_body_size must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL, DriverMongoDB:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == DriverMongoDB && c.Database.Name == "" {
		return fmt.Errorf("database.name is required for mongodb")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// InferDriver guesses the database driver from a connection URL.
func InferDriver(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.HasPrefix(lower, "mongodb://"), strings.HasPrefix(lower, "mongodb+srv://"):
		return DriverMongoDB
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(lower, "mysql://"), strings.Contains(lower, "@tcp("):
		return DriverMySQL
	default:
		return DriverSQLite
	}
}

// ParseDuration accepts Go durations ("90m"), day counts ("7d") and bare
// integers, which are read as seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseFloat(days, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
