package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yourusername/screening-api/internal/repository"
	"github.com/yourusername/screening-api/internal/service"
)

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Manage the job description catalogue",
}

var positionsImportCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Import every PDF in a directory as a position (default POSITIONS_DIR)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.PositionsDir
		if len(args) == 1 {
			dir = args[0]
		}

		pool, db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()
		defer db.Close()

		positions := service.NewPositionService(repository.NewPositionRepo(db))
		imported, err := positions.ImportDirectory(cmd.Context(), dir)
		if err != nil {
			return err
		}

		for _, p := range imported {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d words\n", p.Code, p.Title, p.WordCount)
		}
		log.Info().Int("count", len(imported)).Str("dir", dir).Msg("Positions imported")
		return nil
	},
}

func init() {
	positionsCmd.AddCommand(positionsImportCmd)
}
