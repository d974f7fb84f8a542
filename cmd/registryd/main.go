package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"equipment-registry-backend/config"
	"equipment-registry-backend/internal/api"
	"equipment-registry-backend/internal/db"
	"equipment-registry-backend/internal/idempotency"
	"equipment-registry-backend/internal/ledger"
	"equipment-registry-backend/internal/metrics"
	"equipment-registry-backend/internal/notification"
	"equipment-registry-backend/internal/registry"
	"equipment-registry-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "equipment-registry ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret must be configured")
	}

	// Open the equipment store
	var gormDB *gorm.DB
	var appStore store.Store
	if cfg.Database.Driver == config.DriverMemory {
		appStore = store.NewMemoryStore()
		logger.Println("using in-memory store; records are lost on restart")
	} else {
		gormDB, err = db.Init(&cfg.Database)
		if err != nil {
			logger.Fatalf("failed to initialize database: %v", err)
		}
		appStore = store.NewGormStore(gormDB)
		logger.Println("database initialized successfully")
	}

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Resume the ledger past every height already stamped
	stats, err := appStore.Stats(ctx)
	if err != nil {
		logger.Fatalf("failed to read registry stats: %v", err)
	}
	chain := ledger.NewChain(cfg.Ledger.StartHeight, stats.MaxHeight, cfg.Ledger.BlockInterval)
	go chain.Run(ctx)

	// Metrics
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(promReg)

	opts := []registry.Option{registry.WithRecorder(appMetrics)}

	// Push notifications
	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		if gormDB != nil {
			pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
			pool.SetRecorder(appMetrics)
			pool.Start(ctx)
			opts = append(opts, registry.WithNotifier(pool))
		} else {
			logger.Println("push notifications need a SQL database; status changes will not be pushed")
		}
	} else {
		logger.Println("VAPID keys not configured; push notifications disabled")
	}

	// Idempotent registration
	var idem *idempotency.Store
	if cfg.Idempotency.Path != "" {
		idem, err = idempotency.New(cfg.Idempotency.Path)
		if err != nil {
			logger.Fatalf("failed to open idempotency store %s: %v", cfg.Idempotency.Path, err)
		}
		defer idem.Close()
	}

	reg := registry.New(appStore, chain, opts...)

	// Initialize router
	router := api.NewRouter(api.NewHandler(reg, gormDB, webpushOptions, idem), api.RouterConfig{
		JWTSecret:       cfg.Auth.JWTSecret,
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		CacheTTL:        cfg.Server.CacheTTL(),
		Gatherer:        promReg,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
