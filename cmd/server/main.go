package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uniportal/PortalBack/internal/config"
	"github.com/uniportal/PortalBack/internal/database"
	"github.com/uniportal/PortalBack/internal/directory"
	"github.com/uniportal/PortalBack/internal/logger"
	"github.com/uniportal/PortalBack/internal/middleware"
	"github.com/uniportal/PortalBack/internal/routes"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.IsDevelopment(), cfg.LogLevel)

	// 2. Connect to Database
	var db *pgxpool.Pool
	if cfg.StoreBackend == config.StorePostgres {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := database.ConnectDB(ctx, cfg.DBUrl)
		cancel()
		if err != nil {
			appLogger.Fatal().Err(err).Msg("postgres connection failed")
		}
		defer database.CloseDB()
		db = database.DB
		appLogger.Info().Msg("connected to PostgreSQL")
	}

	identities, err := directory.Load(cfg.DirectoryFile)
	if err != nil {
		appLogger.Fatal().Err(err).Str("file", cfg.DirectoryFile).Msg("failed to load directory")
	}

	// 3. Setup Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New())
	app.Use(middleware.RequestLogger(appLogger))
	if cfg.EnableMetrics {
		app.Use(middleware.Metrics())
	}

	// Routes
	if err := routes.RegisterRoutes(app, cfg, db, identities, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to register routes")
	}

	// 4. Start Server
	go func() {
		appLogger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.AppEnv).
			Str("store", cfg.StoreBackend).
			Msg("portal messaging server starting")

		if err := app.Listen(":" + cfg.Port); err != nil {
			appLogger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error().Err(err).Msg("server shutdown failed")
	}
}
