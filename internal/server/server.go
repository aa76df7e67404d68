package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/carecycle/carecycle/internal/config"
	"github.com/carecycle/carecycle/internal/handler"
	"github.com/carecycle/carecycle/internal/model"
	"github.com/carecycle/carecycle/internal/openapi"
	"github.com/carecycle/carecycle/internal/server/middleware"
	"github.com/carecycle/carecycle/internal/service"
	"github.com/carecycle/carecycle/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MaxBodySize     int64 // bytes

	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP. Only
	// enable it behind a reverse proxy that overwrites those headers.
	TrustProxy bool

	// Dev exposes internal error messages in 500 responses.
	Dev bool

	// ListRequiresAuth gates GET /api/donations behind donations:read.
	ListRequiresAuth bool

	// Per-IP request limits per minute. Zero disables a limit.
	LoginPerMinute     int
	DonationsPerMinute int

	Version string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               5000,
		ShutdownTimeout:    30 * time.Second,
		CORSOrigins:        []string{config.DefaultFrontendURL},
		MaxBodySize:        1 << 20, // 1MB
		LoginPerMinute:     20,
		DonationsPerMinute: 30,
	}
}

// ConfigFrom derives the server settings from the application config.
func ConfigFrom(cfg config.Config) Config {
	return Config{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		ShutdownTimeout:    cfg.Server.ShutdownTimeout,
		CORSOrigins:        cfg.Server.CORSOrigins,
		MaxBodySize:        cfg.Server.MaxBodySize,
		TrustProxy:         cfg.Server.TrustProxy,
		Dev:                cfg.IsDevelopment(),
		ListRequiresAuth:   cfg.Donations.ListRequiresAuth,
		LoginPerMinute:     cfg.RateLimit.LoginPerMinute,
		DonationsPerMinute: cfg.RateLimit.DonationsPerMinute,
	}
}

// Deps are the collaborators the server wires into its handlers.
type Deps struct {
	Store  store.Store
	Tokens *service.TokenService
	Hasher *service.PasswordHasher

	// Redis, when set, shares rate limit counters between instances.
	Redis *redis.Client
}

// Server is the top-level HTTP server for the donation API. It owns the Chi
// router, the store and the services built on it.
type Server struct {
	cfg        Config
	router     chi.Router
	store      store.Store
	admins     *service.AdminService
	donations  *service.DonationService
	authSvc    *service.AuthService
	metrics    *middleware.Metrics
	limiter    *middleware.RedisLimiter
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		store:     deps.Store,
		admins:    service.NewAdminService(deps.Store, deps.Tokens, deps.Hasher),
		donations: service.NewDonationService(deps.Store),
		authSvc:   service.NewAuthService(deps.Tokens, deps.Store),
		metrics:   middleware.NewMetrics(),
		logger:    logger,
	}
	if deps.Redis != nil {
		s.limiter = middleware.NewRedisLimiter(deps.Redis, logger, s.metrics)
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	if s.cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recoverer(s.logger))
	r.Use(s.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))
	r.Use(chimw.RequestSize(s.cfg.MaxBodySize))

	resp := handler.NewResponder(s.logger, s.cfg.Dev)
	sysHandler := handler.NewSystemHandler(s.store, s.logger)
	adminHandler := handler.NewAdminHandler(s.admins, resp)
	donationHandler := handler.NewDonationHandler(s.donations, resp)
	openAPIHandler := handler.NewOpenAPIHandler(openapi.Generate(openapi.Options{
		Version:          s.cfg.Version,
		ListRequiresAuth: s.cfg.ListRequiresAuth,
	}))

	authenticate := middleware.Authenticate(s.authSvc, s.logger, s.metrics)
	can := middleware.RequireCapability
	loginLimit := s.rateLimit("login", s.cfg.LoginPerMinute)
	donationLimit := s.rateLimit("donations", s.cfg.DonationsPerMinute)

	// --- Probes and documents (no auth required) ---
	r.Get("/health", sysHandler.Health)
	r.Get("/readyz", sysHandler.Ready)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/openapi.json", openAPIHandler.ServeSpec)

	r.Route("/api/admin", func(r chi.Router) {
		r.With(loginLimit).Post("/login", adminHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.With(loginLimit, can(model.CapAdminsCreate)).Post("/register", adminHandler.Register)
			r.With(can(model.CapAdminsRead)).Get("/admins", adminHandler.List)
			r.With(can(model.CapProfileRead)).Get("/me", adminHandler.Me)
			r.With(can(model.CapProfileRead)).Get("/verify", adminHandler.Verify)
			r.Post("/logout", adminHandler.Logout)
		})
	})

	r.Route("/api/donations", func(r chi.Router) {
		r.With(donationLimit).Post("/", donationHandler.Create)

		if s.cfg.ListRequiresAuth {
			r.With(authenticate, can(model.CapDonationsRead)).Get("/", donationHandler.List)
		} else {
			r.Get("/", donationHandler.List)
		}

		r.With(authenticate, can(model.CapDonationsVerify)).Patch("/{id}/verify", donationHandler.Verify)
		r.With(authenticate, can(model.CapDonationsDelete)).Delete("/{id}", donationHandler.Delete)
	})

	s.router = r
}

// rateLimit picks the shared Redis limiter when one is configured and the
// in-process limiter otherwise.
func (s *Server) rateLimit(name string, perMinute int) func(http.Handler) http.Handler {
	if s.limiter != nil {
		return s.limiter.Limit(name, perMinute, time.Minute)
	}
	return middleware.RateLimit(perMinute, time.Minute, s.metrics)
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before closing the store.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := s.store.Close(); err != nil {
		s.logger.Warn("close store", "error", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
