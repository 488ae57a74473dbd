package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/contractgen/generator"
	"github.com/teranos/contractgen/logger"
)

// GenerateCmd writes one contract file per bounded context
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate contract files from a domain model",
	Long: `Generate one MDSL contract per bounded context of the model.

Existing files are read first: declarations inside their protected regions
are kept and not regenerated.

Examples:
  contractgen generate --model insurance.yaml
  contractgen generate -m insurance.toml -c CustomerManagement -o contracts
  contractgen generate -m insurance.yaml -c CustomerManagement --stdout`,
	RunE: runGenerate,
}

var (
	generateFlags  modelFlags
	generateStdout bool
)

func init() {
	generateFlags.register(GenerateCmd)
	GenerateCmd.Flags().BoolVar(&generateStdout, "stdout", false, "Print contracts instead of writing them")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	verbosity, _ := cmd.Flags().GetCount("verbose")

	r, err := generateFlags.prepare(cmd, "generate")
	if err != nil {
		return err
	}

	if generateStdout {
		files, err := generator.GenerateDir(r.model, r.opts, r.dir, r.contexts)
		if err != nil {
			return err
		}
		for _, file := range files {
			fmt.Fprint(cmd.OutOrStdout(), file.Content)
		}
		return nil
	}

	paths, files, err := r.generate()
	if err != nil {
		return err
	}
	for i, file := range files {
		pterm.Success.Printfln("Wrote %s", paths[i])
		if logger.ShouldOutput(verbosity, logger.OutputPreserved) {
			for _, name := range file.Preserved {
				pterm.Printfln("  kept %s from protected region", name)
			}
		}
		if len(file.Warnings) > 0 {
			pterm.Warning.Printfln("%s: %d malformed protected region(s) regenerated", file.FileName, len(file.Warnings))
		}
		if logger.ShouldOutput(verbosity, logger.OutputDataDump) {
			pterm.Println(file.Content)
		}
	}
	return nil
}
