package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bekal-bangsa/internal/api"
	"bekal-bangsa/internal/api/handlers/health"
	"bekal-bangsa/internal/core/ai/cache"
	aiimage "bekal-bangsa/internal/core/ai/image"
	"bekal-bangsa/internal/core/ai/provider"
	"bekal-bangsa/internal/core/ai/queue"
	aiservice "bekal-bangsa/internal/core/ai/service"
	"bekal-bangsa/internal/core/analytics"
	"bekal-bangsa/internal/core/expiry"
	"bekal-bangsa/internal/core/inventory"
	"bekal-bangsa/internal/core/kitchen"
	"bekal-bangsa/internal/core/logistics"
	"bekal-bangsa/internal/core/rescue"
	"bekal-bangsa/internal/infrastructure/config"
	"bekal-bangsa/internal/infrastructure/storage"
	"bekal-bangsa/internal/infrastructure/store"
	"bekal-bangsa/internal/pkg/common"
	"bekal-bangsa/internal/pkg/geo"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// dataStore is everything the services need from persistence.
type dataStore interface {
	expiry.StockFinder
	expiry.OwnerFinder
	inventory.Store
	kitchen.Store
	logistics.SupplierStore
	analytics.Store
	health.Pinger
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("starting application",
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.String("model", cfg.LLM.Model),
		zap.String("api_key", config.MaskAPIKey(cfg.LLM.APIKey)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	probes := map[string]health.Pinger{}

	db, closeDB := openStore(ctx, cfg)
	defer closeDB()
	probes["store"] = db

	rescueCache, closeRescue := openRescueCache(ctx, cfg, probes)
	defer closeRescue()

	llm := provider.NewOpenAIClient(provider.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  2,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	defer llm.Close()

	cacheManager := cache.NewManager(cfg.Cache)
	defer cacheManager.Close()

	queueManager := queue.NewManager(cfg.Queue, llm)
	defer queueManager.Close()

	ai := aiservice.NewService(llm, cacheManager, queueManager)
	images := aiimage.NewService(cfg.Image.MaxSizeBytes, cfg.Image.JPEGQuality)

	var uploader inventory.Uploader
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3Uploader(ctx, cfg.Storage)
		if err != nil {
			common.LogFatal("Failed to initialize object storage", zap.Error(err))
		}
		uploader = s3
	}

	generator := kitchen.NewGenerator(ai, cfg.LLM.MaxTokens)
	scanner := expiry.NewScanner(db, db, generator, rescueCache, expiry.Options{
		WarningDays:       cfg.Expiry.WarningDays,
		Kitchen:           geo.Point{Lat: cfg.Expiry.KitchenLat, Lon: cfg.Expiry.KitchenLon},
		KitchenRecipient:  cfg.Expiry.KitchenRecipient,
		LookupConcurrency: cfg.Expiry.LookupConcurrency,
	})

	if cfg.Expiry.ScanInterval > 0 {
		scheduler := expiry.NewScheduler(scanner, cfg.Expiry.ScanInterval, func(r *expiry.ScanResult) {
			common.LogInfo("scheduled expiry scan",
				zap.String("status", r.Status),
				zap.Int("notifications", len(r.Data)),
			)
		})
		go scheduler.Run(ctx)
	}

	router := api.SetupRouter(cfg, api.Dependencies{
		Scanner:    scanner,
		Inventory:  inventory.NewService(ai, images, db, uploader),
		Suppliers:  logistics.NewService(db, geo.Point{Lat: cfg.Expiry.DefaultSupplierLat, Lon: cfg.Expiry.DefaultSupplierLon}),
		Kitchen:    kitchen.NewService(ai, db, generator),
		Dashboards: analytics.NewService(db),
		Images:     images,
		Probes:     probes,
		Queue:      queueManager,
		Cache:      cacheManager,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	common.LogInfo("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	common.LogInfo("server exited")
}

// openStore connects to Postgres when DATABASE_URL is set and otherwise seeds an in-memory demo store.
func openStore(ctx context.Context, cfg *config.Config) (dataStore, func()) {
	if cfg.Database.URL == "" {
		common.LogWarn("DATABASE_URL not set, using in-memory demo store")
		mem := store.NewMemory()
		if err := mem.SeedDemo(ctx); err != nil {
			common.LogFatal("Failed to seed demo store", zap.Error(err))
		}
		return mem, func() {}
	}

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		common.LogFatal("Failed to connect to database", zap.Error(err))
	}
	pg := store.NewPostgres(pool)
	return pg, pg.Close
}

// openRescueCache selects the rescue recipe slot backend.
func openRescueCache(ctx context.Context, cfg *config.Config, probes map[string]health.Pinger) (rescue.Cache, func()) {
	switch cfg.Cache.RescueBackend {
	case "redis":
		rc, err := rescue.NewRedisCache(ctx, rescue.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
			TTL:      cfg.Cache.RescueTTL,
		})
		if err != nil {
			common.LogFatal("Failed to connect to Redis", zap.Error(err))
		}
		probes["redis"] = rc
		return rc, func() { _ = rc.Close() }
	default:
		return rescue.NewMemoryCache(), func() {}
	}
}
