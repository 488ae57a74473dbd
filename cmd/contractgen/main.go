package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/contractgen/cmd/contractgen/commands"
	"github.com/teranos/contractgen/config"
	"github.com/teranos/contractgen/errors"
	"github.com/teranos/contractgen/logger"
)

var rootCmd = &cobra.Command{
	Use:   "contractgen",
	Short: "contractgen - API contracts from DDD context maps",
	Long: `contractgen - Generate MDSL service contracts from a DDD context map.

Each bounded context exposing aggregates or application services becomes one
<Context>.mdsl file. Declarations edited inside protected regions survive
regeneration.

Available commands:
  generate - Write contract files for the model
  check    - Fail when contract files are out of date (CI)
  watch    - Regenerate whenever the model changes
  config   - Show and validate configuration
  version  - Show version information

Examples:
  contractgen generate --model insurance.yaml
  contractgen generate --model insurance.yaml --context CustomerManagement --stdout
  contractgen check --model insurance.yaml --output contracts
  contractgen watch --model insurance.yaml -v`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")

		cfg, loadErr := config.Load()
		jsonOutput := loadErr == nil && cfg.Log.JSON
		if err := logger.Initialize(jsonOutput, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		if loadErr != nil {
			logger.Warnw("failed to load configuration, using defaults", logger.FieldError, loadErr)
		}
		for _, src := range config.Sources() {
			if src.Exists {
				logger.Debugw("configuration source", "source", src.Name, logger.FieldFile, src.Path)
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		if hints := errors.FlattenHints(err); hints != "" {
			pterm.Info.Println(hints)
		}
		if os.Getenv("CONTRACTGEN_DEBUG") != "" {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		}
		os.Exit(1)
	}
}
