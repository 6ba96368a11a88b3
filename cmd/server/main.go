// Package main is the entrypoint for the tenant provisioning API server.
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

	"github.com/joho/godotenv"
	"github.com/view360/provisioning/internal/api"
	"github.com/view360/provisioning/internal/api/handler"
	mw "github.com/view360/provisioning/internal/api/middleware"
	"github.com/view360/provisioning/internal/cache"
	"github.com/view360/provisioning/internal/config"
	"github.com/view360/provisioning/internal/cpanel"
	"github.com/view360/provisioning/internal/provision"
	"github.com/view360/provisioning/internal/schema"
	"github.com/view360/provisioning/internal/store"
	"github.com/view360/provisioning/internal/tenantseed"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Missing .env is fine in deployed environments.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// 1. Load config, failing fast on invalid values
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "tenant_host", cfg.TenantHost.Host)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to the meta directory database
	pool, err := store.Connect(ctx, cfg.MetaDatabase)
	if err != nil {
		return fmt.Errorf("connect meta database: %w", err)
	}
	defer pool.Close()
	slog.Info("meta database connected")

	// 3. Run meta migrations
	if err := store.RunMigrations(cfg.MetaDatabase.URL, "migrations/meta"); err != nil {
		return fmt.Errorf("run meta migrations: %w", err)
	}
	slog.Info("meta migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Wire the provisioning collaborators
	metaStore := store.NewPostgresMetaStore(pool)
	panel := cpanel.NewHTTPClient(cfg.ControlPanel.BaseURL, cfg.ControlPanel.Username,
		cfg.ControlPanel.Password, cfg.ControlPanel.Timeout)
	connector := store.NewTenantConnector(cfg.TenantHost)
	cloner := schema.NewMigrateCloner(connector.DSN)
	seeder := tenantseed.NewSeeder(cfg.Provisioning.LogoUploadDir, cfg.Provisioning.LogoStoreDir)

	orchestrator := provision.NewOrchestrator(metaStore, panel, cloner, connector, seeder,
		redisCache, provision.SettingsFromConfig(cfg), logger)

	// 6. Build router with dependencies
	deps := api.Dependencies{
		Auth:      mw.NewAuth(cfg.Auth.AdminTokenHash),
		RateLimit: mw.NewRateLimit(redisCache, cfg.Auth.SignupPerMinute),

		HealthHandler:       handler.NewHealthHandler(metaStore, redisCache),
		SignupHandler:       handler.NewSignupHandler(metaStore, redisCache, cfg.Auth.OTPTTL),
		VerifySignupHandler: handler.NewVerifySignupHandler(metaStore, redisCache),
		ListRequestsHandler: handler.NewListRequestsHandler(metaStore),
		ApproveHandler:      handler.NewApproveHandler(metaStore, orchestrator),
	}

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout: 15 * time.Second,
		// An approval holds the connection through the settle delay and the
		// tenant connect retries.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
