package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"timetrack/driver"
	"timetrack/importer"
)

var (
	importFormat         string
	importDryRun         bool
	importSkipDuplicates bool
)

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Add entries from CSV/Excel files",
	Long: `Read CSV or Excel files and add one entry per row through the configured driver.

Files written by "ls --output" import as-is. Other exports need at least a
date and project column plus one of minutes, hours or duration; German headers
(Datum, Projekt, Stunden, Beschreibung) are recognized as well.
When --format is omitted, format is inferred from each file extension.
Rows of a file are only added once every row of that file mapped cleanly.
With --skip-duplicates, rows matching an entry already stored on the same day
(project, task, minutes and comment) are left out.`,
	Example: `
  # Re-import an earlier export
  timetrack import ./entries.csv

  # Check an Excel file without writing
  timetrack import ./hours.xlsx --dry-run

  # Import the same export again without doubling entries
  timetrack import ./entries.csv --skip-duplicates

  # Import into a router sub-driver
  timetrack --config ./router.toml import ./home.csv
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openDriver()
		if err != nil {
			return err
		}
		return runImport(cmd.Context(), d, cmd.OutOrStdout(), args, importer.RunOptions{
			Format:         importFormat,
			DryRun:         importDryRun,
			SkipDuplicates: importSkipDuplicates,
			Logger:         logger,
		})
	},
}

func runImport(ctx context.Context, d driver.Driver, out io.Writer, paths []string, options importer.RunOptions) error {
	result, err := importer.Run(ctx, d, paths, options)
	if err != nil {
		return err
	}

	verb := "imported"
	if options.DryRun {
		verb = "mapped (dry run)"
	}
	fmt.Fprintf(out, "Import completed. Files: %d, Rows read: %d, Rows %s: %d, Rows skipped: %d, Duplicates: %d\n",
		result.FilesProcessed,
		result.RowsRead,
		verb,
		result.RowsImported,
		result.RowsSkipped,
		result.RowsDuplicate,
	)
	return nil
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "Input format: csv|excel (optional, inferred from extension when omitted)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Map every row without adding entries")
	importCmd.Flags().BoolVar(&importSkipDuplicates, "skip-duplicates", false, "Leave out rows already stored on the same day")
}
