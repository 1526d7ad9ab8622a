package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"timetrack/driver"
)

var rmInteractive bool

var rmCmd = &cobra.Command{
	Use:   "rm ENTRY_ID",
	Short: "Delete one entry.",
	Long: `Delete the entry with id ENTRY_ID, as shown by "timetrack ls".

With the file driver, ids are line positions: later entries move up by one.
With --interactive the entry is only deleted after typing exactly "Y".`,
	Example: `
  timetrack rm 3
  timetrack rm -i 3
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openDriver()
		if err != nil {
			return err
		}
		if rmInteractive {
			confirmed, err := confirmDeletePrompt(cmd.InOrStdin(), cmd.OutOrStdout(), args[0])
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("delete aborted: confirmation was not 'Y'")
			}
		}
		return runRemove(cmd.Context(), d, cmd.OutOrStdout(), args[0])
	},
}

func runRemove(ctx context.Context, d driver.Driver, out io.Writer, id string) error {
	found, err := d.DeleteEntry(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(out, "Could not find entry")
		return nil
	}
	fmt.Fprintln(out, "Deleted entry")
	return nil
}

func confirmDeletePrompt(input io.Reader, output io.Writer, id string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete entry %s? Type Y to confirm: ", id); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return strings.TrimSpace(line) == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

func init() {
	rootCmd.AddCommand(rmCmd)

	rmCmd.Flags().BoolVarP(&rmInteractive, "interactive", "i", false, "Ask for confirmation before deleting")
}
