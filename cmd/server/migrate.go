package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skillswap/internal/infrastructure/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer flushLogs()

		if err := database.Migrate(db); err != nil {
			return err
		}
		zap.S().Info("[Migrate] schema up to date")
		return nil
	},
}
