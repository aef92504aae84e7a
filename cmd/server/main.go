package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"reel-quizzer/internal/config"
	"reel-quizzer/internal/database"
	"reel-quizzer/internal/handler"
	"reel-quizzer/internal/logger"
	"reel-quizzer/internal/middleware"
	"reel-quizzer/internal/repository"
	"reel-quizzer/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const watchDebounce = 500 * time.Millisecond

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve generated quiz entries and their videos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.Int("port", 5174, "HTTP port (or PORT)")
	flags.String("data-root", "data", "Directory holding videos and quiz documents (or DATA_ROOT)")
	flags.String("history-driver", database.DriverSQLite, "Attempt history driver: sqlite or oracle")
	flags.String("history-dsn", "", "Attempt history DSN; enables /api/attempts")
	flags.String("log-level", "info", "Log level")
}

func run(cmd *cobra.Command) error {
	if err := config.LoadEnvFiles(config.DefaultEnvFiles()...); err != nil {
		return err
	}
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	dataRoot, err := filepath.Abs(cfg.Server.DataRoot)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entryService := service.NewEntryService(dataRoot, appLogger)
	if _, err := entryService.Reload(ctx); err != nil {
		appLogger.Fatal("Failed to load entries", zap.Error(err))
	}

	var attemptService service.AttemptService
	if cfg.History.DSN != "" {
		db, err := openHistory(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Warn("Attempt history is unavailable", zap.String("driver", cfg.History.Driver), zap.Error(err))
		} else {
			defer db.Close()
			attemptService = service.NewAttemptService(repository.NewSQLXAttemptRepository(db), cfg.Batch.VideoExt)
			appLogger.Info("Attempt history enabled", zap.String("driver", cfg.History.Driver))
		}
	}

	watcher, err := service.NewEntryWatcher(dataRoot, entryService, watchDebounce, appLogger)
	if err != nil {
		appLogger.Warn("Not watching data root; use POST /api/reload after generating", zap.Error(err))
	} else {
		go watcher.Run(ctx)
	}

	entryHandler := handler.NewEntryHandler(entryService, attemptService)

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.WriteTimeout,
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,OPTIONS", MaxAge: 300}))
	handler.SetupRoutes(app, entryHandler, dataRoot)

	go func() {
		appLogger.Info("Starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("data_root", dataRoot),
			zap.Int("entries", entryService.Count()))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	appLogger.Info("Server exited gracefully")
	return nil
}

func openHistory(ctx context.Context, cfg *config.Config, log *zap.Logger) (*sqlx.DB, error) {
	db, err := database.Open(ctx, cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db, cfg.History.Driver, log); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
