package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		pool, db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()
		defer db.Close()

		log.Info().Msg("Database schema is up to date")
		return nil
	},
}
