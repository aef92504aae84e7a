package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reel-quizzer/internal/adapter"
	"reel-quizzer/internal/adapter/quizgen"
	"reel-quizzer/internal/cache"
	"reel-quizzer/internal/config"
	"reel-quizzer/internal/database"
	"reel-quizzer/internal/domain"
	"reel-quizzer/internal/logger"
	"reel-quizzer/internal/prompt"
	"reel-quizzer/internal/repository"
	"reel-quizzer/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2
	exitInterrupted = 130

	// outcomeRunTTL bounds how long per-run counters stay in Redis.
	outcomeRunTTL = 30 * 24 * time.Hour
)

var rootCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate quiz JSON for every video under the data directory",
	Long: `Walks the data directory for videos, sends each one's public URL to a hosted
multimodal model, and writes the recovered quiz document next to the video.
Existing documents are skipped unless --overwrite is given.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(run(cmd))
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.String("data", "data", "Root directory containing videos")
	flags.String("prompt-file", "", "File overriding the built-in prompt")
	flags.String("remote-base-url", "", "Public URL where the data directory is mirrored (or REMOTE_BASE_URL)")
	flags.Bool("only-missing", false, "Process only videos without a quiz document")
	flags.Bool("overwrite", false, "Replace existing quiz documents")
	flags.Float64("sleep", 0, "Seconds to wait after each processed video")
	flags.Float64("size-warn-mb", 150, "Warn about videos larger than this many MB")
	flags.Bool("strict", false, "Also check item ids and quiz targets")
	flags.String("provider", config.ProviderReplicate, "Model provider: replicate, gemini or langchain")
	flags.String("model", "google/gemini-2.5-flash", "Model identifier")
	flags.Float64("top-p", 0.95, "Nucleus sampling parameter")
	flags.Float64("temperature", 0.7, "Sampling temperature")
	flags.Bool("dynamic-thinking", true, "Let the model choose its thinking budget")
	flags.Int("max-output-tokens", 12000, "Maximum tokens in the model response")
	flags.String("redis-address", "", "Redis address for outcome recording (optional)")
	flags.String("history-driver", database.DriverSQLite, "Attempt history driver: sqlite or oracle")
	flags.String("history-dsn", "", "Attempt history DSN (optional)")
	flags.String("log-level", "info", "Log level")
}

func run(cmd *cobra.Command) int {
	if err := config.LoadEnvFiles(config.DefaultEnvFiles()...); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitConfigError
	}

	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitConfigError
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to initialize logger: %v\n", err)
		return exitConfigError
	}
	defer logger.Sync()
	log := logger.Get()

	if err := cfg.ValidateForBatch(); err != nil {
		log.Error("Invalid configuration", zap.Error(err))
		return exitConfigError
	}

	promptText, err := prompt.Load(cfg.Batch.PromptFile)
	if err != nil {
		log.Error("Invalid prompt", zap.Error(err))
		return exitConfigError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, err := quizgen.New(ctx, cfg.Generator, log)
	if err != nil {
		log.Error("Failed to initialize quiz generator", zap.Error(err))
		if domain.IsCode(err, domain.CodeConfiguration) {
			return exitConfigError
		}
		return exitFailure
	}
	log.Info("Initialized quiz generator",
		zap.String("provider", cfg.Generator.Provider),
		zap.String("model", cfg.Generator.Model))

	sinks := buildSinks(ctx, cfg, log)
	defer sinks.close()

	store := repository.NewFSArtifactStore(cfg.Batch.DataDir, cfg.Batch.VideoExt, log)
	batchSvc := service.NewBatchService(store, generator, sinks.recorder, cfg, promptText, log)

	log.Info("Starting quiz generation",
		zap.String("data_dir", cfg.Batch.DataDir),
		zap.String("base_url", cfg.Batch.BaseURL),
		zap.Bool("only_missing", cfg.Batch.OnlyMissing),
		zap.Bool("overwrite", cfg.Batch.Overwrite))

	if _, err := batchSvc.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Interrupted")
			return exitInterrupted
		}
		log.Error("Batch process failed", zap.Error(err))
		return exitFailure
	}

	if sinks.redis != nil {
		failed, err := sinks.redis.FailedArtifacts(ctx)
		if err != nil {
			log.Warn("Failed to read failed artifacts from Redis", zap.Error(err))
		} else if len(failed) > 0 {
			log.Info("Artifacts whose latest attempt failed", zap.Int("count", len(failed)), zap.Strings("artifacts", failed))
		}
	}
	return exitOK
}

type outcomeSinks struct {
	recorder domain.OutcomeRecorder
	redis    *adapter.RedisOutcomeRecorder
	closers  []func()
}

func (s *outcomeSinks) close() {
	for _, c := range s.closers {
		c()
	}
}

// buildSinks wires the optional outcome sinks. A sink that cannot be
// reached is skipped with a warning; recording never blocks generation.
func buildSinks(ctx context.Context, cfg *config.Config, log *zap.Logger) *outcomeSinks {
	sinks := &outcomeSinks{}
	var recorders []domain.OutcomeRecorder

	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis is unavailable; outcomes will not be recorded there", zap.Error(err))
		} else {
			sinks.redis = adapter.NewRedisOutcomeRecorder(redisClient, outcomeRunTTL)
			recorders = append(recorders, sinks.redis)
			sinks.closers = append(sinks.closers, func() { _ = redisClient.Close() })
			log.Info("Recording outcomes to Redis", zap.String("address", cfg.Redis.Address))
		}
	}

	if cfg.History.DSN != "" {
		db, err := database.Open(ctx, cfg.History.Driver, cfg.History.DSN)
		if err == nil {
			err = database.RunMigrations(db, cfg.History.Driver, log)
			if err != nil {
				_ = db.Close()
			}
		}
		if err != nil {
			log.Warn("Attempt history is unavailable", zap.String("driver", cfg.History.Driver), zap.Error(err))
		} else {
			recorders = append(recorders, adapter.NewAttemptRecorder(repository.NewSQLXAttemptRepository(db)))
			sinks.closers = append(sinks.closers, func() { _ = db.Close() })
			log.Info("Recording attempt history", zap.String("driver", cfg.History.Driver))
		}
	}

	sinks.recorder = adapter.NewOutcomeRecorder(recorders...)
	return sinks
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitConfigError)
	}
}
