package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"timetrack/driver"
	"timetrack/record"
)

var (
	addDate string
	addTask string
)

var addCmd = &cobra.Command{
	Use:   "add PROJECT TIME [COMMENT...]",
	Short: "Record time spent on a project.",
	Long: `Record TIME minutes on PROJECT, dated today unless --date is given.

TIME accepts plain minutes (90), H:MM (1:30) or Go-style units (1h30m).
Use "live" to start a stopwatch; stop it with q or enter, cancel with esc.
Everything after TIME is stored as the comment.`,
	Example: `
  timetrack add Acme 90 wrote the release notes
  timetrack add Acme 1h15m -t Dev -d 2026-03-01 code review
  timetrack add work_Acme live pairing
`,
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completeProjects,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openDriver()
		if err != nil {
			return err
		}
		return runAdd(cmd.Context(), d, cmd.InOrStdin(), cmd.OutOrStdout(), args, addDate, addTask)
	},
}

func runAdd(ctx context.Context, d driver.Driver, in io.Reader, out io.Writer, args []string, date, task string) error {
	var when time.Time
	if date != "" {
		parsed, err := record.ParseDate(date)
		if err != nil {
			return err
		}
		when = parsed
	}

	project := args[0]
	duration, err := resolveDuration(ctx, args[1], project, in, out)
	if err != nil {
		return err
	}

	rec, err := d.AddEntry(ctx, driver.AddRequest{
		Project: project,
		Time:    duration,
		Comment: args[2:],
		When:    when,
		Task:    task,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Adding %d minutes to %s project\n", int(rec.Time), rec.Project)
	return nil
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addDate, "date", "d", "", "Day of the entry as YYYY-MM-DD (default today)")
	addCmd.Flags().StringVarP(&addTask, "task", "t", "", "Task within the project")
	_ = addCmd.RegisterFlagCompletionFunc("task", completeTasks)
}
