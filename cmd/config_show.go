package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"timetrack/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. Access
tokens are masked.`,
	Example: `
  # Show active configuration
  timetrack config show
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return writeConfigSummary(cmd.OutOrStdout(), viper.ConfigFileUsed(), cfg)
	},
}

func writeConfigSummary(out io.Writer, configPath string, cfg *config.Config) error {
	if configPath != "" {
		fmt.Fprintln(out, "Config file loaded from:", configPath)
	} else {
		fmt.Fprintln(out, "No config file loaded, showing defaults")
	}
	fmt.Fprintln(out, "Configuration:")

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg.Redacted()); err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	return encoder.Close()
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
