// Harrier - AML case insight service.
// Sits between the browser UI and the detection engine, turning raw
// detection output into analyst-facing interpretations.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/smurfatcher/harrier/internal/api"
	"github.com/smurfatcher/harrier/internal/audit"
	"github.com/smurfatcher/harrier/internal/bus"
	"github.com/smurfatcher/harrier/internal/cache"
	"github.com/smurfatcher/harrier/internal/domain"
	"github.com/smurfatcher/harrier/internal/engine"
	"github.com/smurfatcher/harrier/internal/insight"
	"github.com/smurfatcher/harrier/internal/session"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("HARRIER_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting harrier",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("HARRIER_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}
	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"engine", cfg.Engine.BaseURL,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Insight Generator
	generator, err := insight.NewGenerator(cacheImpl, cfg.Cache.LocalTTL)
	if err != nil {
		slog.Error("failed to initialize insight generator", "error", err)
		os.Exit(1)
	}
	slog.Info("insight generator initialized")

	// Initialize Session Manager
	manager := session.NewManager(generator, busImpl)

	// Initialize Audit Recorder
	recorder := audit.NewRecorder(busImpl, 500)
	defer recorder.Stop()
	slog.Info("audit recorder initialized")

	// Initialize Engine Client
	engineClient := engine.NewClient(cfg.Engine)
	if err := engineClient.Ping(ctx); err != nil {
		// The engine may come up after us; uploads will fail until it does.
		slog.Warn("detection engine not reachable at startup", "url", cfg.Engine.BaseURL, "error", err)
	} else {
		slog.Info("detection engine reachable", "url", cfg.Engine.BaseURL)
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, manager, engineClient, generator, recorder, cacheImpl, busImpl, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("harrier is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("harrier shutdown complete")
}

// applyEnvOverrides lets single settings be overridden without a full
// config swap.
func applyEnvOverrides(cfg *domain.Config) {
	if v := os.Getenv("HARRIER_ENGINE_URL"); v != "" {
		cfg.Engine.BaseURL = v
	}
	if v := os.Getenv("HARRIER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			slog.Warn("ignoring invalid HARRIER_PORT", "value", v)
		}
	}
	if v := os.Getenv("HARRIER_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("HARRIER_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               HARRIER                     ║")
	fmt.Println("  ║       AML Case Insight Service            ║")
	fmt.Println("  ║   Explanations for every detection.       ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  Engine:   %s\n", cfg.Engine.BaseURL)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /cases/analyze        - Upload a transaction CSV")
	fmt.Println("    POST /cases/sample         - Load the sample case")
	fmt.Println("    GET  /cases                - Case history")
	fmt.Println("    GET  /accounts             - Flagged accounts")
	fmt.Println("    GET  /rings                - Detected rings")
	fmt.Println("    GET  /insights             - Generated insights")
	fmt.Println("    GET  /report/compliance    - Compliance report")
	fmt.Println("    POST /interventions        - Plan an intervention")
	fmt.Println("    GET  /audit/events         - Audit trail")
	fmt.Println("    GET  /health               - Health check")
	fmt.Println()
}
