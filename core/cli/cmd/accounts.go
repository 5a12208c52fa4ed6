package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tunestat/tunestat/core/accounts"
	"github.com/tunestat/tunestat/core/config"
	"github.com/tunestat/tunestat/core/connectors"
	"github.com/tunestat/tunestat/core/logger"
	"github.com/tunestat/tunestat/core/shared/errors"
)

var (
	bootstrapUsername string
	bootstrapPassword string
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Account administration outside of a console session",
}

// bootstrapCmd seeds the first administrator so a fresh deployment can
// log in. It refuses to run once any admin exists; later accounts are
// managed from an admin console session.
var bootstrapCmd = &cobra.Command{
	Use:           "bootstrap",
	Short:         "Create the initial administrator account",
	RunE:          runBootstrap,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	bootstrapCmd.Flags().StringVarP(&bootstrapUsername, "username", "u", "admin", "Username for the initial administrator")
	bootstrapCmd.Flags().StringVarP(&bootstrapPassword, "password", "p", "", "Password for the initial administrator (prompted when omitted)")
	accountsCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(accountsCmd)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetLogLevel(cfg.LogLevel)
	log := logger.New("bootstrap")

	conn, err := connectors.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Migrate(); err != nil {
		return err
	}

	manager := accounts.NewManager(conn, cfg.BcryptCost)
	ctx := context.Background()

	count, err := manager.AdminCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.Newf(errors.ErrCodeInvariantViolation,
			"%d administrator account(s) already exist, use the console to manage accounts", count)
	}

	password := bootstrapPassword
	if password == "" {
		password, err = readBootstrapPassword()
		if err != nil {
			return err
		}
	}

	acct, err := manager.Create(ctx, accounts.CreateInput{
		Username: bootstrapUsername,
		Password: password,
		Role:     accounts.RoleAdmin,
	})
	if err != nil {
		return err
	}
	log.Infof("created administrator '%s'", acct.Username)
	return nil
}

func readBootstrapPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New(errors.ErrCodeValidation, "stdin is not a terminal, pass --password instead")
	}
	fmt.Print("Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	fmt.Print("Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New(errors.ErrCodeValidation, "passwords do not match")
	}
	return string(first), nil
}
