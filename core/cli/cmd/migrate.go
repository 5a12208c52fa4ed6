package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tunestat/tunestat/core/config"
	"github.com/tunestat/tunestat/core/connectors"
	"github.com/tunestat/tunestat/core/logger"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Apply pending schema migrations to the configured backend",
	RunE:          runMigrate,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Roll back the most recently applied migration")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetLogLevel(cfg.LogLevel)
	log := logger.New("migrate")

	conn, err := connectors.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	if migrateDown {
		if err := conn.MigrateDown(); err != nil {
			return err
		}
		log.Info("rolled back last migration")
		return nil
	}

	if err := conn.Migrate(); err != nil {
		return err
	}
	log.Info("schema is up to date")
	return nil
}
