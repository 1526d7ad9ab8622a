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

type listOptions struct {
	Project      string
	Task         string
	Week         bool
	Month        bool
	Output       string
	WorkingHours float64
}

var lsOptions listOptions

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded entries grouped by day.",
	Long: `List today's entries, or the last week's or month's, grouped by day.

The listing ends with the time spent today and what remains of the
configured working_hours. With --output the entries are written to a CSV or
Excel file instead, chosen by extension.`,
	Example: `
  timetrack ls
  timetrack ls -w -p Acme
  timetrack ls -m --output ./entries.xlsx
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, cfg, err := openDriver()
		if err != nil {
			return err
		}
		options := lsOptions
		options.WorkingHours = cfg.Timetrack.WorkingHours
		return runList(cmd.Context(), d, cmd.OutOrStdout(), now(), options)
	},
}

func runList(ctx context.Context, d driver.Driver, out io.Writer, at time.Time, options listOptions) error {
	start, finish := listRange(options.Week, options.Month, at)
	records, err := driver.Collect(d.GetFilteredEntries(ctx, driver.Filter{
		Start:   start,
		Finish:  finish,
		Project: options.Project,
		Task:    options.Task,
	}))
	if err != nil {
		return err
	}

	if options.Output != "" {
		writer, err := output.WriterForPath(options.Output)
		if err != nil {
			return err
		}
		if err := writer.Write(options.Output, output.EntriesTable(records)); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %d entries to %s\n", len(records), options.Output)
		return nil
	}

	if err := output.WriteDayListing(out, output.GroupByDay(records)); err != nil {
		return err
	}
	today := output.OnDay(records, record.FormatDate(at))
	return output.WriteDayBalance(out, today, options.WorkingHours)
}

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().StringVarP(&lsOptions.Project, "project", "p", "", "Only entries of this project")
	lsCmd.Flags().StringVarP(&lsOptions.Task, "task", "t", "", "Only entries of this task")
	lsCmd.Flags().BoolVarP(&lsOptions.Week, "week", "w", false, "Entries of the last 7 days")
	lsCmd.Flags().BoolVarP(&lsOptions.Month, "month", "m", false, "Entries of the last 30 days")
	lsCmd.Flags().StringVarP(&lsOptions.Output, "output", "o", "", "Write entries to a .csv or .xlsx file")
	lsCmd.MarkFlagsMutuallyExclusive("week", "month")
	_ = lsCmd.RegisterFlagCompletionFunc("project", completeProjectFlag)
	_ = lsCmd.RegisterFlagCompletionFunc("task", completeTasks)
}
