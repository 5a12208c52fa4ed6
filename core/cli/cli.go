package cli

import (
	"github.com/tunestat/tunestat/core/cli/cmd"
	"github.com/tunestat/tunestat/core/logger"
)

// Execute runs the CLI
func Execute() error {
	if err := cmd.Execute(); err != nil {
		logger.New("cli").Error(err.Error())
		return err
	}
	return nil
}
