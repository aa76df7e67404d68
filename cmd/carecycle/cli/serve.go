package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/carecycle/carecycle/internal/server"
	"github.com/carecycle/carecycle/internal/server/middleware"
	"github.com/carecycle/carecycle/internal/service"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the CareCycle API server",
		Long:  "Start the HTTP server exposing the donation and admin APIs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dev {
				viper.Set("env", "development")
				viper.Set("log.level", "debug")
			}
			return runServe(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 5000, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging, error details in responses)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.Log)

	if cfg.UsingFallbackSecret() {
		logger.Warn("no JWT secret configured; signing tokens with the built-in development key",
			"hint", "set CARECYCLE_AUTH_JWT_SECRET or JWT_SECRET")
	}

	// 1. Open the store
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("store opened", "driver", cfg.Database.Driver, "url", redactURL(cfg.Database.URL))

	// 2. Optional shared rate limit counters
	var redisClient *redis.Client
	if addr := cfg.RateLimit.RedisAddr; addr != "" {
		redisClient, err = middleware.NewRedisClient(ctx, addr, cfg.RateLimit.RedisPassword, cfg.RateLimit.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable; using in-process rate limits", "addr", addr, "error", err)
		} else {
			defer redisClient.Close()
			logger.Info("redis rate limiter enabled", "addr", addr)
		}
	}

	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := service.NewPasswordHasher(cfg.Auth.BcryptCost)

	// 3. First-run detection
	hasSuper, err := service.NewAdminService(st, tokens, hasher).HasSuperAdmin(ctx)
	if err != nil {
		logger.Warn("failed to check for superadmin", "error", err)
	} else if !hasSuper {
		logger.Warn("no superadmin account found - run: carecycle admin create")
	}

	// 4. Build and start HTTP server
	srvCfg := server.ConfigFrom(cfg)
	srvCfg.Version = versionString()
	srv := server.New(srvCfg, server.Deps{
		Store:  st,
		Tokens: tokens,
		Hasher: hasher,
		Redis:  redisClient,
	}, logger)

	fmt.Printf("→ CareCycle %s (%s)\n", versionString(), cfg.Env)
	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:     http://%s:%d/health\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}
