package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bekal-bangsa/internal/api/handlers"
	"bekal-bangsa/internal/api/handlers/health"
	"bekal-bangsa/internal/api/middleware"
	"bekal-bangsa/internal/infrastructure/config"
	"bekal-bangsa/internal/pkg/common"
)

// Dependencies are the services the routes dispatch to.
type Dependencies struct {
	Scanner    handlers.ExpiryScanner
	Inventory  handlers.InventoryService
	Suppliers  handlers.SupplierSearcher
	Kitchen    handlers.KitchenService
	Dashboards handlers.Dashboards
	Images     handlers.ImageNormalizer

	// Readiness probes, keyed by name.
	Probes map[string]health.Pinger
	Queue  health.QueueReporter
	Cache  health.CacheReporter
}

// SetupRouter builds the gin engine with middleware and all routes.
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.Server.MaxBodyBytes > 0 {
		router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	}

	hh := health.NewHandler(cfg.App.Version, deps.Probes, deps.Queue, deps.Cache)
	router.GET("/health", hh.HealthCheck)
	router.GET("/ready", hh.ReadinessCheck)
	router.GET("/live", hh.LivenessCheck)

	var limits []gin.HandlerFunc
	if cfg.RateLimit.Enabled && cfg.RateLimit.Requests > 0 && cfg.RateLimit.Window > 0 {
		limits = append(limits, middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	limits = append(limits,
		middleware.Deduplication(cfg.DedupWindow),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)

	// /api keeps the paths the web frontend already calls
	for _, prefix := range []string{"/api/v1", "/api"} {
		registerRoutes(router.Group(prefix, limits...), deps)
	}

	common.LogInfo("Router setup completed",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("dedup_window", cfg.DedupWindow),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}

func registerRoutes(api *gin.RouterGroup, deps Dependencies) {
	notifications := handlers.NewNotificationHandler(deps.Scanner)
	api.POST("/notifications/trigger", notifications.Trigger)

	supply := handlers.NewSupplyHandler(deps.Inventory, deps.Suppliers)
	api.POST("/analyze", supply.Analyze)
	api.POST("/upload", supply.Upload)
	api.POST("/supplies", supply.SaveSupplies)
	api.GET("/supplies", supply.ListSupplies)
	api.GET("/suppliers/search", supply.SearchSuppliers)
	api.GET("/sppg/nearest", supply.NearestKitchens)
	api.GET("/sppg/search", supply.NearestKitchens)

	kitchen := handlers.NewKitchenHandler(deps.Kitchen, deps.Images)
	api.POST("/recommend-menu", kitchen.RecommendMenu)
	kitchenGroup := api.Group("/kitchen")
	{
		kitchenGroup.POST("/cook", kitchen.Cook)
		kitchenGroup.PUT("/meals/:id/served", kitchen.MarkServed)
		kitchenGroup.POST("/chat", kitchen.Chat)
		kitchenGroup.POST("/quality", kitchen.Quality)
	}

	dashboards := handlers.NewAnalyticsHandler(deps.Dashboards)
	analyticsGroup := api.Group("/analytics")
	{
		analyticsGroup.GET("/kitchen", dashboards.Kitchen)
		analyticsGroup.GET("/vendor/:id", dashboards.Vendor)
	}
}
