// main.go
package main

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"bingo-system/cmd"
	"bingo-system/config"
	"bingo-system/handlers"
	_ "bingo-system/migrations"
	"bingo-system/monitoring"
	"bingo-system/services"
	"bingo-system/utils"
)

func main() {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()
	if cfg.SecretKey == "" {
		log.Fatal("SCAN_SECRET_KEY must be set")
	}

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub (optional, for the live scan feed)
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		pn = pubnub.NewPubNub(pnConfig)
	}

	// Initialize services
	signer := services.NewSigner(cfg.SecretKey)
	store := services.NewScanStore(app)
	statsService := services.NewStatsService(redisClient)
	scanService := services.NewScanService(store, signer, statsService, pn, cfg)
	issuerService := services.NewIssuerService(signer, cfg)

	// Initialize handlers
	scanHandler := handlers.NewScanHandler(app, scanService)
	adminHandler := handlers.NewAdminHandler(app, store, statsService)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Offline issuer CLI
	app.RootCmd.AddCommand(cmd.NewGenerateCommand(issuerService))

	// Metrics listener
	if cfg.EnableMetrics {
		monitoring.NewMonitor(redisClient)
		go serveMetrics(cfg.MetricsPort)
	}

	// Register routes
	app.OnBeforeServe().Add(func(e *core.ServeEvent) error {
		// Scan endpoint
		e.Router.POST("/api/scan", scanHandler.Scan)

		// Admin endpoints
		e.Router.GET("/admin/scans", adminHandler.ListScans)
		e.Router.GET("/admin/export", adminHandler.Export)
		e.Router.GET("/admin/stats", adminHandler.Stats)
		e.Router.POST("/admin/delete_all", adminHandler.DeleteAll)

		// Health check
		e.Router.GET("/health", func(c echo.Context) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return c.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return c.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return nil
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Printf("Metrics listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("Metrics listener stopped: %v", err)
	}
}
