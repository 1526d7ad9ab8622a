package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"timetrack/driver"
)

var lsTasksProject string

var lsProjectsCmd = &cobra.Command{
	Use:   "ls-prj",
	Short: "List known projects.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openDriver()
		if err != nil {
			return err
		}
		return runListProjects(cmd.Context(), d, cmd.OutOrStdout())
	},
}

var lsTasksCmd = &cobra.Command{
	Use:   "ls-tasks",
	Short: "List known tasks, optionally of one project.",
	Example: `
  timetrack ls-tasks
  timetrack ls-tasks -p work_Acme
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openDriver()
		if err != nil {
			return err
		}
		return runListTasks(cmd.Context(), d, cmd.OutOrStdout(), lsTasksProject)
	},
}

func runListProjects(ctx context.Context, d driver.Driver, out io.Writer) error {
	projects, err := d.GetProjects(ctx)
	if err != nil {
		return err
	}
	for _, project := range projects {
		fmt.Fprintln(out, project)
	}
	return nil
}

func runListTasks(ctx context.Context, d driver.Driver, out io.Writer, project string) error {
	tasks, err := d.GetTasks(ctx, project)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		fmt.Fprintln(out, task)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(lsProjectsCmd)
	rootCmd.AddCommand(lsTasksCmd)

	lsTasksCmd.Flags().StringVarP(&lsTasksProject, "project", "p", "", "Only tasks of this project")
	_ = lsTasksCmd.RegisterFlagCompletionFunc("project", completeProjectFlag)
}
