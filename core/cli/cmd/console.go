package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tunestat/tunestat/core/accounts"
	"github.com/tunestat/tunestat/core/catalog"
	"github.com/tunestat/tunestat/core/config"
	"github.com/tunestat/tunestat/core/connectors"
	"github.com/tunestat/tunestat/core/executor"
	"github.com/tunestat/tunestat/core/logger"
	"github.com/tunestat/tunestat/core/session"
)

var consoleCmd = &cobra.Command{
	Use:           "console",
	Short:         "Start an interactive authenticated session",
	RunE:          runConsole,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetLogLevel(cfg.LogLevel)
	log := logger.New("console")
	log.Debugf("loaded %s", cfg)

	cat, err := catalog.Default()
	if err != nil {
		return err
	}

	// One connection context for the whole session, released on any exit.
	conn, err := connectors.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	manager := accounts.NewManager(conn, cfg.BcryptCost)
	creds, err := accounts.NewCredentialStore(conn, cfg.BcryptCost)
	if err != nil {
		return err
	}
	exec := executor.NewExecutor(cat, conn, cfg.QueryCacheTTL)
	dispatcher := session.NewDispatcher(manager, exec)
	term := newConsoleTerminal(cat.All())
	controller := session.NewController(creds, dispatcher, term, cfg.MaxLoginAttempts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return controller.Run(ctx)
}
