package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/carecycle/carecycle/internal/config"
	"github.com/carecycle/carecycle/internal/service"
	"github.com/carecycle/carecycle/internal/store"
	"github.com/carecycle/carecycle/internal/store/mongostore"
	"github.com/carecycle/carecycle/internal/store/sqlstore"
)

// loadConfig builds the immutable configuration from flags, file and env.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newRegistry creates a store registry with every supported driver registered.
func newRegistry() *store.Registry {
	registry := store.NewRegistry()
	registry.RegisterDriver(config.DriverSQLite, sqlstore.Factory(sqlstore.DialectSQLite))
	registry.RegisterDriver(config.DriverPostgres, sqlstore.Factory(sqlstore.DialectPostgres))
	registry.RegisterDriver(config.DriverMySQL, sqlstore.Factory(sqlstore.DialectMySQL))
	registry.RegisterDriver(config.DriverMongoDB, mongostore.Factory)
	return registry
}

// openStore connects to the configured database.
func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	return newRegistry().Open(ctx, cfg.Database)
}

// openSQLStore connects to the configured database, which must be one of the
// SQL drivers.
func openSQLStore(ctx context.Context, cfg config.Config) (*sqlstore.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite, config.DriverPostgres, config.DriverMySQL:
		return sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	default:
		return nil, fmt.Errorf("driver %q has no SQL migrations", cfg.Database.Driver)
	}
}

// newAdminService wires an AdminService for CLI use.
func newAdminService(st store.Store, cfg config.Config) *service.AdminService {
	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	return service.NewAdminService(st, tokens, service.NewPasswordHasher(cfg.Auth.BcryptCost))
}

// newLogger builds the process logger from the log settings.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// redactURL hides the password of a connection URL for display.
func redactURL(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return raw
	}
	if user, _, hasPw := strings.Cut(creds, ":"); hasPw {
		return scheme + "://" + user + ":****@" + host
	}
	return raw
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
