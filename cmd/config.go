package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the timetrack configuration file.",
	Long: `Create, edit, display, and delete the timetrack configuration file.

The configuration is TOML and holds:
- timetrack.working_hours / timetrack.driver
- [driver] settings of a standalone file or harvest driver
- router.drivers plus one table per router sub-driver (driver, prefix, ...)

Every key can be overridden from the environment, e.g. TIMETRACK_DRIVER=file.`,
	Example: `
  # Create default config in $HOME/.timetrack.toml
  timetrack config create

  # Show active config and source file
  timetrack config show

  # Open active config in editor (creates example if missing)
  timetrack config edit

  # Delete active config file
  timetrack config delete
`,
}

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file from the example template.",
	Long: `Write the example template used by "config edit" to the config path.

An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := activeConfigFile()
		if err != nil {
			return err
		}
		return runConfigCreate(cmd.OutOrStdout(), file)
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor.",
	Long: `Open the config file in $VISUAL, $EDITOR or vi, in that order.

A missing file is created from the example template first. Once the editor
exits, the content is validated as timetrack TOML config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := activeConfigFile()
		if err != nil {
			return err
		}
		return runConfigEdit(cmd.OutOrStdout(), file, attachTerminal)
	},
}

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the active configuration file.",
	Long: `Delete the configuration file timetrack currently uses.

The track file and any remote entries are left untouched.`,
	Example: `
  timetrack --config ./custom-timetrack.toml config delete
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := activeConfigFile()
		if err != nil {
			return err
		}
		return runConfigDelete(cmd.OutOrStdout(), file)
	},
}

func activeConfigFile() (configFile, error) {
	return locateConfigFile(cfgFile, viper.ConfigFileUsed())
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCreateCmd, configEditCmd, configDeleteCmd)
}
