package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/contractgen/config"
	"github.com/teranos/contractgen/errors"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and validate contractgen configuration",
	Long: `Display and validate contractgen configuration.

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/contractgen/config.toml)
3. User config (~/.contractgen/config.toml)
4. Project config (contractgen.toml, searched upwards from the working directory)
5. Environment variables (CONTRACTGEN_* prefix, e.g. CONTRACTGEN_GENERATOR_OUTPUT_DIR)
6. Command line flags

Examples:
  contractgen config show                  # Show current configuration
  contractgen config show --format yaml    # Show configuration as YAML
  contractgen config get generator.output_dir
  contractgen config validate`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., generator.output_dir, watch.debounce_ms)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runConfigValidate,
}

var configWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show which configuration files are read",
	RunE:  runConfigWhere,
}

var configFormat string

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configGetCmd)
	ConfigCmd.AddCommand(configValidateCmd)
	ConfigCmd.AddCommand(configWhereCmd)
}

// renderConfig marshals cfg in one of the supported formats
func renderConfig(cfg *config.Config, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to JSON")
		}
		return string(data) + "\n", nil

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to YAML")
		}
		return "# contractgen configuration\n" + string(data), nil

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to TOML")
		}
		return "# contractgen configuration\n" + string(data), nil

	default:
		return "", errors.WithHint(
			errors.NewInvalidRequestError("unsupported format: %s", format),
			"supported formats: toml, json, yaml")
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	out, err := renderConfig(cfg, configFormat)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !config.IsSet(key) {
		return errors.NewNotFoundError("configuration key %q", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), config.Get(key))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runConfigWhere(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(cmd.OutOrStdout(), "  [DEFAULT]  built-in defaults")
	for _, source := range config.Sources() {
		state := "missing"
		if source.Exists {
			state = "loaded"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %s (%s)\n", source.Name, source.Path, state)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  [ENV]      %s_* environment variables\n", config.EnvPrefix)
	return nil
}
