package main

import (
	"context"
	"fmt"
	"log"
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

	"github.com/tiendix/tiendix/internal/adapter/auth"
	"github.com/tiendix/tiendix/internal/adapter/fsm"
	otelx "github.com/tiendix/tiendix/internal/adapter/otel"
	riverx "github.com/tiendix/tiendix/internal/adapter/river"
	"github.com/tiendix/tiendix/internal/adapter/sqlite"
	"github.com/tiendix/tiendix/internal/app"

	handler "github.com/tiendix/tiendix/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("tiendix: %v", err)
	}
}

func run() error {
	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "tiendix.db")
	tokens := envOrDefault("AUTH_TOKENS", "")

	ctx := context.Background()

	// --- Observability ---
	providers, err := otelx.Setup(ctx, otelx.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}

	// --- Adapters (out) ---
	db, err := otelx.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if err := sqlite.Prepare(db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	tenants := sqlite.NewTenantRepository(db)
	variants := sqlite.NewVariantRepository(db)
	orders := otelx.NewTracingOrderRepository(sqlite.NewOrderRepository(db))
	plans := sqlite.NewPlanRepository(db)
	subs := sqlite.NewSubscriptionRepository(db)

	queue, err := riverx.Setup(ctx, db)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	if err := queue.Start(ctx); err != nil {
		return fmt.Errorf("river start: %w", err)
	}
	receipts := otelx.NewTracingReceiptPublisher(riverx.NewPublisher(queue))

	// --- Application ---
	guard := app.NewPermissionGuard()
	resolver := app.NewTenantResolver(tenants)
	svc := handler.Services{
		Stores:        app.NewStoreService(tenants),
		Catalog:       app.NewCatalogService(variants, subs, plans, guard),
		Orders:        app.NewOrderService(orders, variants, fsm.New(), guard, receipts),
		Subscriptions: app.NewSubscriptionService(subs, plans),
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("tiendix", otelchi.WithChiRoutes(router)))
	router.Use(handler.Authenticator(auth.NewStaticVerifier(auth.ParseTokenTable(tokens))))
	router.Use(handler.TenantScope(resolver))

	api := humachi.New(router, huma.DefaultConfig("tiendix", "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("tiendix listening on :%s", port)
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
	if err := queue.Stop(shutdownCtx); err != nil {
		log.Printf("river stop error: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("otel shutdown error: %v", err)
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
