package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of carecycle.yaml. Durations are kept as strings
// so the file stays human-editable.
type File struct {
	Env       string        `yaml:"env"`
	DataDir   string        `yaml:"data_dir,omitempty"`
	Server    ServerFile    `yaml:"server"`
	Database  DatabaseFile  `yaml:"database"`
	Auth      AuthFile      `yaml:"auth"`
	RateLimit RateLimitFile `yaml:"ratelimit"`
	Donations DonationsFile `yaml:"donations"`
	Log       LogFile       `yaml:"log"`
}

// ServerFile mirrors ServerConfig.
type ServerFile struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	CORSOrigins     []string `yaml:"cors_origins"`
	MaxBodySize     int64    `yaml:"max_body_size"`
	TrustProxy      bool     `yaml:"trust_proxy"`
}

// DatabaseFile mirrors DatabaseConfig.
type DatabaseFile struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
	Name   string `yaml:"name"`
}

// AuthFile mirrors AuthConfig.
type AuthFile struct {
	JWTSecret  string `yaml:"jwt_secret"`
	TokenTTL   string `yaml:"token_ttl"`
	BcryptCost int    `yaml:"bcrypt_cost"`
}

// RateLimitFile mirrors RateLimitConfig.
type RateLimitFile struct {
	LoginPerMinute     int    `yaml:"login_per_minute"`
	DonationsPerMinute int    `yaml:"donations_per_minute"`
	RedisAddr          string `yaml:"redis_addr"`
	RedisPassword      string `yaml:"redis_password"`
	RedisDB            int    `yaml:"redis_db"`
}

// DonationsFile mirrors DonationsConfig.
type DonationsFile struct {
	ListRequiresAuth bool `yaml:"list_requires_auth"`
}

// LogFile mirrors LogConfig.
type LogFile struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// File converts c to its YAML layout. When redact is set, secrets are masked.
func (c Config) File(redact bool) File {
	f := File{
		Env:     c.Env,
		DataDir: c.DataDir,
		Server: ServerFile{
			Host:            c.Server.Host,
			Port:            c.Server.Port,
			ShutdownTimeout: c.Server.ShutdownTimeout.String(),
			CORSOrigins:     c.Server.CORSOrigins,
			MaxBodySize:     c.Server.MaxBodySize,
			TrustProxy:      c.Server.TrustProxy,
		},
		Database: DatabaseFile{
			Driver: c.Database.Driver,
			URL:    c.Database.URL,
			Name:   c.Database.Name,
		},
		Auth: AuthFile{
			JWTSecret:  c.Auth.JWTSecret,
			TokenTTL:   c.Auth.TokenTTL.String(),
			BcryptCost: c.Auth.BcryptCost,
		},
		RateLimit: RateLimitFile{
			LoginPerMinute:     c.RateLimit.LoginPerMinute,
			DonationsPerMinute: c.RateLimit.DonationsPerMinute,
			RedisAddr:          c.RateLimit.RedisAddr,
			RedisPassword:      c.RateLimit.RedisPassword,
			RedisDB:            c.RateLimit.RedisDB,
		},
		Donations: DonationsFile{ListRequiresAuth: c.Donations.ListRequiresAuth},
		Log:       LogFile{Level: c.Log.Level, Format: c.Log.Format},
	}
	if c.UsingFallbackSecret() {
		f.Auth.JWTSecret = ""
	}
	if redact {
		if f.Auth.JWTSecret != "" {
			f.Auth.JWTSecret = "********"
		}
		if f.RateLimit.RedisPassword != "" {
			f.RateLimit.RedisPassword = "********"
		}
	}
	return f
}

// Marshal renders f as YAML.
func (f File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// DefaultFile returns the configuration file written by `carecycle config init`.
// Machine-specific values such as the data directory are left out.
func DefaultFile() File {
	return File{
		Env: "production",
		Server: ServerFile{
			Host:            "0.0.0.0",
			Port:            5000,
			ShutdownTimeout: "30s",
			CORSOrigins:     []string{DefaultFrontendURL},
			MaxBodySize:     1 << 20,
		},
		Database: DatabaseFile{Driver: DriverSQLite, Name: "carecycle"},
		Auth:     AuthFile{TokenTTL: "24h", BcryptCost: 10},
		RateLimit: RateLimitFile{
			LoginPerMinute:     20,
			DonationsPerMinute: 30,
		},
		Log: LogFile{Level: "info", Format: "text"},
	}
}

// LoadFile parses a YAML configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &f, nil
}
