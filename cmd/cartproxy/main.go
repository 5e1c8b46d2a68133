// Beyuvana cart proxy - keeps one cart engine per shopper and converges it
// against the remote commerce backend.
// Designed for Cloud Run deployment; engines are in-memory, so run a single
// instance or pin shoppers to instances with session affinity.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhilash2200/beyuvana-sub000/internal/cartsync"
	"github.com/abhilash2200/beyuvana-sub000/internal/commerce"
	"github.com/abhilash2200/beyuvana-sub000/internal/config"
	"github.com/abhilash2200/beyuvana-sub000/internal/handler"
	"github.com/abhilash2200/beyuvana-sub000/internal/middleware"
)

// evictionInterval is how often idle cart engines are swept.
const evictionInterval = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("store_id", cfg.StoreID),
		slog.String("environment", cfg.Environment),
		slog.String("store_domain", cfg.Store.StoreDomain),
	)

	// Create the commerce backend client
	backend, err := commerce.New(cfg.BackendConfig())
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}

	// Create the per-shopper engine registry
	carts := cartsync.NewManager(backend, logger, cfg.EngineConfig())
	defer carts.Close()

	// Sweep engines nobody has touched for a while
	evictDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(evictionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				carts.CloseIdle(cfg.EngineIdle())
			case <-evictDone:
				return
			}
		}
	}()
	defer close(evictDone)

	// Create handler over the registry
	h := handler.New(carts, logger)

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → logging → version gate → session → handler
	// Recovery must be outermost to catch panics from logging middleware
	// Session resolves the shopper identity for everything below it
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.VersionGate(cfg.Cart.MinStorefrontVersion, logger),
		middleware.Session(logger),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
