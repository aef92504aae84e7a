package main

import (
	"context"
	"fmt"
	"os"

	"reel-quizzer/internal/config"
	"reel-quizzer/internal/database"
	"reel-quizzer/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the attempt history schema",
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, database.RunMigrations)
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert every migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, database.RollbackMigrations)
	},
}

func init() {
	rootCmd.PersistentFlags().String("history-driver", database.DriverSQLite, "Database driver: sqlite or oracle")
	rootCmd.PersistentFlags().String("history-dsn", "", "Database DSN (or HISTORY_DSN)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level")
	rootCmd.AddCommand(upCmd, downCmd)
	rootCmd.SilenceUsage = true
}

type migrationFunc func(db *sqlx.DB, driver string, log *zap.Logger) error

func withDB(cmd *cobra.Command, apply migrationFunc) error {
	if err := config.LoadEnvFiles(config.DefaultEnvFiles()...); err != nil {
		return err
	}
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.History.DSN == "" {
		return fmt.Errorf("--history-dsn or HISTORY_DSN is required")
	}

	db, err := database.Open(context.Background(), cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	return apply(db, cfg.History.Driver, logger.Get())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
