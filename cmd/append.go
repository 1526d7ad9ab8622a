package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"timetrack/driver"
)

var appendCmd = &cobra.Command{
	Use:   "append ENTRY TIME",
	Short: "Add time to an existing entry.",
	Long: `Add TIME to the entry with id ENTRY, as shown by "timetrack ls".

TIME accepts the same forms as "add", including "live".`,
	Example: `
  timetrack append 3 15
  timetrack append 3 live
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openDriver()
		if err != nil {
			return err
		}
		return runAppend(cmd.Context(), d, cmd.InOrStdin(), cmd.OutOrStdout(), args[0], args[1])
	},
}

func runAppend(ctx context.Context, d driver.Driver, in io.Reader, out io.Writer, id, raw string) error {
	duration, err := resolveDuration(ctx, raw, "entry "+id, in, out)
	if err != nil {
		return err
	}

	if err := d.UpdateEntry(ctx, id, duration); err != nil {
		return reportMissing(out, err)
	}
	fmt.Fprintf(out, "Updated entry %s\n", id)
	return nil
}

func init() {
	rootCmd.AddCommand(appendCmd)
}
