package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"timetrack/driver"
	"timetrack/internal/livetimer"
	"timetrack/internal/timeutil"
)

// liveDuration is the TIME argument that starts a stopwatch instead.
const liveDuration = "live"

var runLiveTimer = livetimer.Run

// resolveDuration returns raw unchanged unless it asks for a live timer, in
// which case the elapsed minutes are returned once the timer stops.
func resolveDuration(ctx context.Context, raw, label string, in io.Reader, out io.Writer) (string, error) {
	if !strings.EqualFold(strings.TrimSpace(raw), liveDuration) {
		return raw, nil
	}

	elapsed, err := runLiveTimer(ctx, label, livetimer.Options{Input: in, Output: out, Now: now})
	if errors.Is(err, livetimer.ErrCancelled) {
		return "", fmt.Errorf("live timer cancelled, nothing recorded")
	}
	if err != nil {
		return "", err
	}
	return strconv.Itoa(livetimer.Minutes(elapsed)), nil
}

// listRange maps the --week/--month flags to inclusive calendar bounds.
// Without either flag the range is today.
func listRange(week, month bool, at time.Time) (time.Time, time.Time) {
	switch {
	case month:
		return timeutil.LastDays(at, 30)
	case week:
		return timeutil.LastDays(at, 7)
	default:
		return timeutil.LastDays(at, 0)
	}
}

func completeProjects(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	d, _, err := openDriver()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	projects, err := d.GetProjects(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return filterCompletions(projects, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeProjectFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeProjects(cmd, nil, toComplete)
}

// completeTasks suggests tasks of the project given as first argument or
// through --project.
func completeTasks(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	project := ""
	if len(args) > 0 {
		project = args[0]
	} else if flag := cmd.Flags().Lookup("project"); flag != nil {
		project = flag.Value.String()
	}

	d, _, err := openDriver()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	tasks, err := d.GetTasks(cmd.Context(), project)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return filterCompletions(tasks, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// filterCompletions keeps the candidates containing toComplete, ignoring case.
func filterCompletions(candidates []string, toComplete string) []string {
	needle := strings.ToLower(toComplete)
	out := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if strings.Contains(strings.ToLower(candidate), needle) {
			out = append(out, candidate)
		}
	}
	return slices.Clip(out)
}

// reportMissing prints the not-found message for ErrEntryNotFound and
// swallows it; other errors pass through.
func reportMissing(out io.Writer, err error) error {
	if errors.Is(err, driver.ErrEntryNotFound) {
		fmt.Fprintln(out, "Could not find entry")
		return nil
	}
	return err
}
