package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/parkiq/internal/adapter/fsm"
	"github.com/neomorfeo/parkiq/internal/adapter/otel"
	"github.com/neomorfeo/parkiq/internal/adapter/river"
	"github.com/neomorfeo/parkiq/internal/adapter/sqlite"
	"github.com/neomorfeo/parkiq/internal/app"
	"github.com/neomorfeo/parkiq/internal/domain"
	"github.com/neomorfeo/parkiq/internal/layout"

	handler "github.com/neomorfeo/parkiq/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "parkiq.db")
	layoutPath := os.Getenv("LAYOUT_PATH")

	ctx := context.Background()

	// --- Observability ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	// Flush telemetry on every exit path, not just graceful shutdown.
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(flushCtx); err != nil {
			log.Printf("otel shutdown error: %v", err)
		}
	}()

	// --- Floor registry (bootstrap collaborator) ---
	floors := layout.Default()
	if layoutPath != "" {
		floors, err = layout.Load(layoutPath)
		if err != nil {
			return fmt.Errorf("layout: %w", err)
		}
	}

	// --- Adapters (out) ---
	db, err := otel.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	auditStore, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("audit store: %w", err)
	}

	tracedStore := otel.NewTracingStore(auditStore)

	riverClient, err := river.Setup(ctx, db, tracedStore)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("river start: %w", err)
	}

	var publisher domain.AuditPublisher = otel.NewTracingPublisher(river.NewPublisher(riverClient))

	// --- Application ---
	svc, err := app.NewParkingService(floors, publisher, fsm.New(), slog.Default())
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("parkiq", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("parkiq", "0.1.0"))
	handler.Register(api, svc, tracedStore)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("parkiq listening on :%s", port)
		log.Printf("API docs: http://localhost:%s/docs", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	case <-done:
	}
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	if err := riverClient.Stop(shutdownCtx); err != nil {
		log.Printf("river stop error: %v", err)
	}

	log.Println("stopped")
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
