package main

import (
	"context"
	"time"

	"contratos-backend/config"
	"contratos-backend/controllers"
	"contratos-backend/database"
	"contratos-backend/middlewares"
	"contratos-backend/routes"
	"contratos-backend/services"
	"contratos-backend/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := config.NewLogger(cfg.Log)

	// ---- Database
	if err := database.Connect(cfg.Database, logger); err != nil {
		logger.Fatal(err)
	}
	if err := database.Migrate(database.DB); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	// ---- Services
	svc := services.New(services.TaxDefaultsFrom(cfg.Billing.TaxDefaults), cfg.Billing.InvoiceDueDays, logger)
	middlewares.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	var store controllers.ReceiptStore
	if cfg.MinIO.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mc, err := storage.NewMinIOClient(ctx, cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Bucket, cfg.MinIO.UseSSL, logger)
		cancel()
		if err != nil {
			logger.Fatalf("minio: %v", err)
		}
		store = mc
	} else {
		logger.Warn("MINIO_ENDPOINT not set, receipt uploads disabled")
	}
	controllers.Setup(svc, store)

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler(logger),
		BodyLimit:    cfg.HTTP.BodyLimitBytes,
	})

	app.Use(middlewares.RequestLogger(logger))

	// ---- CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.HTTP.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Request-ID",
	}))

	// ---- Global rate limiter (applies to all routes; tune via env)
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.HTTP.RateLimitMax,
		Expiration: cfg.HTTP.RateLimitWindow,
	}))

	// ---- Routes
	routes.Register(app, database.DB, svc, logger)

	// ---- Start
	logger.WithField("port", cfg.Port).Info("API server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal(err)
	}
}
