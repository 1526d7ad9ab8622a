package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"timetrack/driver"
	"timetrack/output"
	"timetrack/record"
)

type reportOptions struct {
	Week   bool
	Month  bool
	Output string
}

var reportFlags reportOptions

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show time spent per project.",
	Long: `Sum the recorded minutes per project for today, the last week or the last month.

With --output the totals are written to a CSV or Excel file, chosen by extension.`,
	Example: `
  timetrack report -w
  timetrack report -m --output ./report.csv
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openDriver()
		if err != nil {
			return err
		}
		return runReport(cmd.Context(), d, cmd.OutOrStdout(), now(), reportFlags)
	},
}

func runReport(ctx context.Context, d driver.Driver, out io.Writer, at time.Time, options reportOptions) error {
	start, finish := listRange(options.Week, options.Month, at)
	records, err := driver.Collect(d.GetFilteredEntries(ctx, driver.Filter{Start: start, Finish: finish}))
	if err != nil {
		return err
	}
	totals := output.ProjectTotals(records)

	if options.Output != "" {
		writer, err := output.WriterForPath(options.Output)
		if err != nil {
			return err
		}
		if err := writer.Write(options.Output, output.ProjectTotalsTable(totals)); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %d project totals to %s\n", len(totals), options.Output)
		return nil
	}

	return output.WriteProjectReport(out, record.FormatDate(start), record.FormatDate(finish), totals)
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().BoolVarP(&reportFlags.Week, "week", "w", false, "Report the last 7 days")
	reportCmd.Flags().BoolVarP(&reportFlags.Month, "month", "m", false, "Report the last 30 days")
	reportCmd.Flags().StringVarP(&reportFlags.Output, "output", "o", "", "Write totals to a .csv or .xlsx file")
	reportCmd.MarkFlagsMutuallyExclusive("week", "month")
}
