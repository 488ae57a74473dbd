package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/contractgen/errors"
	"github.com/teranos/contractgen/generator"
)

// CheckCmd fails when regenerating would change any contract file
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that contract files are up to date",
	Long: `Regenerate contracts in memory and compare them with the files on disk.
Nothing is written. Exits non-zero when a file is missing or differs, which
makes it suitable for CI.

Examples:
  contractgen check --model insurance.yaml --output contracts`,
	RunE: runCheck,
}

var checkFlags modelFlags

func init() {
	checkFlags.register(CheckCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	r, err := checkFlags.prepare(cmd, "check")
	if err != nil {
		return err
	}

	result, err := generator.Check(r.model, r.opts, r.dir, r.contexts)
	if err != nil {
		return err
	}
	if result.UpToDate {
		pterm.Success.Println("Contracts are up to date")
		return nil
	}

	for _, name := range result.Differences {
		pterm.Warning.Printfln("out of date: %s", name)
	}
	return errors.WithHint(
		errors.Newf("%d contract file(s) out of date", len(result.Differences)),
		"run 'contractgen generate' with the same flags and commit the result")
}
