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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/johnquangdev/meeting-segmenter/internal/adapter/handler"
	"github.com/johnquangdev/meeting-segmenter/internal/bootstrap"
	"github.com/johnquangdev/meeting-segmenter/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-segmenter/pkg/config"
	"github.com/johnquangdev/meeting-segmenter/pkg/logger"
	pkgmw "github.com/johnquangdev/meeting-segmenter/pkg/middleware"
	pkgvalidator "github.com/johnquangdev/meeting-segmenter/pkg/validator"
)

// @title           Meeting Segmenter API
// @version         1.0
// @description     Splits meeting transcripts into agenda item segments
// @BasePath        /v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(pkgmw.RequestID())
	e.Use(pkgmw.AccessLog(zapLogger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))

	log.Println("🔧 Initializing dependencies...")
	deps, err := bootstrap.Build(context.Background(), cfg, bootstrap.Options{}, zapLogger)
	if err != nil {
		log.Fatalf("Failed to initialize dependencies: %v", err)
	}
	defer deps.Close()

	if db := deps.DB(); db != nil && cfg.Database.Driver == "sqlite" {
		// SQLite has no migration files; keep the schema current on start.
		if _, err := database.Migrate(db, cfg, migrate.Up); err != nil {
			log.Fatalf("Failed to migrate sqlite schema: %v", err)
		}
	}

	log.Println("🛣️  Setting up routes...")
	segmentationHandler := handler.NewSegmentationHandler(deps.Pipeline, deps.Runs, zapLogger)
	router := handler.NewRouter(cfg, segmentationHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
