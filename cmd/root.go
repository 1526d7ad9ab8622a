/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"timetrack/backend"
	"timetrack/config"
	"timetrack/driver"
)

var (
	cfgFile string
	verbose bool

	logger = slog.New(slog.DiscardHandler)
	now    = time.Now

	// openDriver loads the configuration and resolves the configured driver.
	// Tests swap it for an in-memory setup.
	openDriver = func() (driver.Driver, *config.Config, error) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return nil, nil, err
		}
		d, err := backend.Open(cfg, backend.Options{Logger: logger, Now: now})
		if err != nil {
			return nil, nil, err
		}
		return d, cfg, nil
	}
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "timetrack",
	Short: "Track time spent on projects and tasks.",
	Long: `Record the minutes you spend on projects and tasks, list and report them,
and keep them in a local log file, in Harvest, or in several backends at once.

Durations accept plain minutes (90), H:MM (1:30) or Go-style units (1h30m).
Pass "live" instead of a duration to start a stopwatch and record the elapsed time.

Supported drivers:
- file: one JSON record per line in a local track file
- harvest: the Harvest v2 API
- router: several drivers addressed as prefix_project`,
	Example: `
  # Create configuration file
  timetrack config create

  # Record 90 minutes on Acme
  timetrack add Acme 1:30 wrote the release notes

  # Record time on a task for a past day
  timetrack add Acme 45 -t Dev -d 2026-03-01 code review

  # Time a session live
  timetrack add Acme live pairing

  # Add 15 minutes to entry 3
  timetrack append 3 15

  # List this week's entries for one project
  timetrack ls -w -p Acme

  # Export the last month's project totals to Excel
  timetrack report -m --output ./report.xlsx
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogging, initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file override (default $HOME/.timetrack.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log driver activity to stderr")
}

func initLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigName(".timetrack")
	}
	viper.SetConfigType("toml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing file leaves the defaults in place: a file driver on ~/.timetrack_log.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			logger.Debug("no config file found, using defaults")
			return
		}
		cobra.CheckErr(err)
	}
}
