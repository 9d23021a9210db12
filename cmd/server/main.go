package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"Fingerpost/internal/api/handlers/images"
	"Fingerpost/internal/api/handlers/wellknown"
	"Fingerpost/internal/api/middleware"
	"Fingerpost/internal/api/routes"
	"Fingerpost/internal/config"
	"Fingerpost/internal/core/accounts"
	"Fingerpost/internal/core/mediatype"
	"Fingerpost/internal/core/nodeinfo"
	"Fingerpost/internal/core/webfinger"
	"Fingerpost/internal/db/migrations"
	postgresRepo "Fingerpost/internal/db/postgres"
	"Fingerpost/internal/fetch"
	"Fingerpost/internal/logging"
	"Fingerpost/internal/metrics"
)

func main() {
	cfg, err := config.LoadFromEnv("")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := logging.Setup(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Color:  cfg.Log.Color,
	}); err != nil {
		slog.Error("Failed to set up logging", "error", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}

	var accountRepo accounts.Repository
	if db != nil {
		defer func() { _ = db.Close() }()
		accountRepo = postgresRepo.NewAccountRepository(db)
	} else {
		slog.Warn("DATABASE_URL not set, local lookups will answer 503")
	}

	prober, err := mediatype.New(mediatype.Kind(cfg.Site.Prober))
	if err != nil {
		return err
	}

	fetchClient := fetch.NewClient(cfg.FetchOptions())
	resolver := webfinger.NewResolver(fetchClient, prober)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	if cfg.Server.TrustProxy {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	services := routes.WellKnownServices{
		Resolver: resolver,
		Accounts: accountRepo,
	}
	if cfg.NodeInfo.Enabled {
		services.NodeInfo = nodeinfo.NewService(accountRepo, cfg.NodeInfoConfig())
	}

	// Rate limiting: configured requests per window per client IP
	if cfg.RateLimit.Requests > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimitWindow(), cfg.Server.TrustProxy)
		defer limiter.Stop()
		services.Limiter = limiter
	}

	routes.RegisterWellKnownRoutes(r, services, wellknown.SiteOptions{
		Site:       cfg.SiteConfig(),
		TrustProxy: cfg.Server.TrustProxy,
	})

	if cfg.Site.ServeImages {
		routes.RegisterImageRoutes(r, images.NewHandler(cfg.Site.ImageRoot, prober))
	}
	if cfg.Site.ServeProfiles {
		if err := routes.RegisterWebRoutes(r, accountRepo, cfg.Site.MissingAvatar); err != nil {
			return err
		}
	}

	r.Get("/metrics", metrics.Handler())
	r.Get("/health", healthHandler(db))

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Fingerpost starting",
			"addr", cfg.Server.Addr,
			"host", cfg.Site.Host,
			"prober", cfg.Site.Prober)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openDatabase connects to the account store and applies migrations. It
// returns a nil *sql.DB when no database is configured.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Info("Connected to account database")

	if cfg.AutoMigrate {
		if err := migrations.Up(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		slog.Info("Migrations completed successfully")
	}

	return db, nil
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				slog.Warn("Health check failed", "error", err)
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
