package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"storefront/internal/checkout"
	"storefront/internal/checkout/api"
	"storefront/internal/common/database"
	"storefront/internal/common/events"
	"storefront/internal/common/kafka"
	"storefront/internal/common/middleware"
	natsclient "storefront/internal/common/nats"
	"storefront/internal/orders"
	"storefront/internal/providers/storefront"
)

// Event backends
const (
	backendNATS  = "nats"
	backendKafka = "kafka"
)

const envProduction = "production"

var errTrustedTokens = errors.New("STOREFRONT_RESOLVE_TOKENS must be enabled in production")

// Config holds service configuration
type Config struct {
	Port           int      `envconfig:"CHECKOUT_PORT" default:"8086"`
	Environment    string   `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string   `envconfig:"LOG_FORMAT" default:"json"`
	EventsBackend  string   `envconfig:"EVENTS_BACKEND" default:"nats"`
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	Database   database.Config
	NATS       natsclient.Config
	Kafka      kafka.Config
	Storefront storefront.Config
	Checkout   checkout.Config
}

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to process config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("checkout service failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Database.Migrate {
		if err := database.Migrate(cfg.Database.URL, orders.Migrations, orders.MigrationsDir, logger); err != nil {
			return err
		}
	}

	db, err := database.New(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	nc, err := natsclient.New(ctx, cfg.NATS, logger)
	if err != nil {
		return err
	}
	defer nc.Close()

	publisher, closePublisher, err := setupPublisher(ctx, cfg, nc, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	store, err := checkout.NewMemoryStore(cfg.Checkout.MaxSessions, logger)
	if err != nil {
		return err
	}

	sf := storefront.New(nc, cfg.Storefront, logger)
	svc := checkout.NewService(store, checkout.Dependencies{
		ShippingConfig: sf.ShippingConfig(),
		Coupons:        sf.Coupons(),
		Profiles:       sf.Profiles(),
		Addresses:      sf.Addresses(),
		Orders:         orders.New(db, logger),
		Events:         publisher,
	}, cfg.Checkout, logger)

	resolve, err := tokenResolver(cfg, sf.ResolveToken, logger)
	if err != nil {
		return err
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unhealthy")
			return
		}
		writeStatus(w, http.StatusOK, "healthy")
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := nc.HealthCheck(); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(middleware.Authenticate(resolve, logger))
		r.Mount("/", api.NewHandler(svc).Routes())
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting checkout service",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"events_backend", cfg.EventsBackend,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Background shipping and autofill fetches are bounded by the fetch
	// timeout, so this returns promptly.
	svc.Wait()

	logger.Info("server stopped")
	return nil
}

func setupPublisher(ctx context.Context, cfg Config, nc *natsclient.Client, logger *slog.Logger) (events.EventPublisher, func(), error) {
	switch cfg.EventsBackend {
	case backendKafka:
		p := kafka.NewPublisher(cfg.Kafka, logger)
		return p, func() {
			if err := p.Close(); err != nil {
				logger.Warn("closing kafka publisher", "error", err)
			}
		}, nil
	case backendNATS:
		if err := nc.EnsureStream(ctx, natsclient.CheckoutStreamConfig()); err != nil {
			return nil, nil, err
		}
		return natsclient.NewPublisher(nc, logger), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
}

func writeStatus(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"status":%q}`, text)
}

// tokenResolver decides how bearer tokens become user IDs. With resolution
// off the raw token is the user ID, which only non-production setups allow.
func tokenResolver(cfg Config, resolve middleware.TokenResolver, logger *slog.Logger) (middleware.TokenResolver, error) {
	if cfg.Storefront.ResolveTokens {
		return resolve, nil
	}
	if cfg.Environment == envProduction {
		return nil, errTrustedTokens
	}
	logger.Warn("token resolution disabled, bearer tokens are trusted as user IDs",
		"environment", cfg.Environment,
	)
	return nil, nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
