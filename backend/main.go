package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnify/backend/config"
	"learnify/backend/middleware"
	"learnify/backend/notify"
	"learnify/backend/routes"
	"learnify/backend/services"
	"learnify/backend/storage"
	"learnify/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger(utils.LoggerConfig{Format: cfg.LogFormat})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Fatal("Error initializing database", "error", err)
	}

	store, err := storage.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Error initializing storage", "error", err, "mode", cfg.StorageMode)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	// Notifications: redis fans out across instances, the hub alone serves one.
	hub := notify.NewHub(logger)
	mailer := notify.NewMailer(cfg.SendgridAPIKey, cfg.SendgridFromName, cfg.SendgridFromEmail, logger)
	dispatcher := notify.NewDispatcher(db, hub, mailer, cfg.NotifyPollInterval, logger)
	if cfg.RedisAddr != "" {
		bus, err := notify.NewRedisBus(ctx, cfg.RedisAddr, cfg.RedisChannel, logger)
		if err != nil {
			logger.Warn("redis unavailable, using in-process notifications", "addr", cfg.RedisAddr, "error", err)
		} else {
			busDispatcher := notify.NewDispatcher(db, bus, mailer, cfg.NotifyPollInterval, logger)
			if err := bus.StartForwarder(ctx, hub, busDispatcher.Acknowledge); err != nil {
				logger.Warn("redis forwarder failed, using in-process notifications", "error", err)
				_ = bus.Close()
			} else {
				defer bus.Close()
				dispatcher = busDispatcher
			}
		}
	}
	go dispatcher.Run(ctx)

	renderer, err := services.NewCertificateRenderer()
	if err != nil {
		logger.Fatal("Error loading certificate fonts", "error", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "learnify",
		BodyLimit:    cfg.MaxUploadMB << 20,
		ErrorHandler: utils.ErrorHandler(logger),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, routes.Deps{
		DB:           db,
		Cfg:          cfg,
		Log:          logger,
		Store:        store,
		Hub:          hub,
		Certificates: renderer,
		Shutdown:     ctx,
	})

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	// Start server
	logger.Info("listening", "port", cfg.ServerPort, "storage", cfg.StorageMode)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatal("server stopped", "error", err)
	}
}
