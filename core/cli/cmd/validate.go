package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tunestat/tunestat/core/catalog"
	"github.com/tunestat/tunestat/core/logger"
)

var validateFile string

var validateCmd = &cobra.Command{
	Use:           "validate",
	Short:         "Validate the query catalog without connecting to a backend",
	RunE:          runValidate,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "Validate an external catalog file instead of the embedded one")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := logger.New("validate")

	var cat *catalog.Catalog
	var err error
	if validateFile != "" {
		data, readErr := os.ReadFile(validateFile)
		if readErr != nil {
			return readErr
		}
		var defs []catalog.Definition
		defs, err = catalog.ParseYAML(data)
		if err != nil {
			return err
		}
		cat, err = catalog.New(defs)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return err
	}

	for _, def := range cat.All() {
		fmt.Printf("  %d. %-24s %d parameter(s)\n", def.ID, def.Name, len(def.Params))
	}
	log.Infof("catalog valid: %d queries", cat.Len())
	return nil
}
