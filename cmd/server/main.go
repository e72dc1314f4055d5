package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillswap/internal/config"
	"skillswap/internal/infrastructure/database"
	"skillswap/pkg/logger"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "skillswap",
		Short:         "Skill credit payments and escrow ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to the YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config, installs the logger and opens the database.
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return nil, nil, err
	}

	db, err := database.InitMySQL(&cfg.MySQL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func flushLogs() {
	_ = zap.L().Sync()
}
