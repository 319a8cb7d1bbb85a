package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yourusername/screening-api/internal/config"
	"github.com/yourusername/screening-api/internal/repository"
)

const app = "screenctl"

var (
	debug   bool
	jsonLog bool
	cfg     *config.Config

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "screenctl is the operator cli for the candidate screening service",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging()

			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg = loaded
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&jsonLog, "json", "j", false, "json format for logging")

	rootCmd.AddCommand(analyzeCmd, migrateCmd, positionsCmd, usersCmd)
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if !jsonLog {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// openDatabase connects and applies pending migrations. The caller closes both handles.
func openDatabase(ctx context.Context) (*pgxpool.Pool, *sql.DB, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, nil, err
	}

	pool, db, err := repository.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		pool.Close()
		return nil, nil, err
	}
	return pool, db, nil
}
