// Package livetimer runs an interactive stopwatch in the terminal and reports
// how long it ran.
package livetimer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the timer is abandoned with esc.
var ErrCancelled = errors.New("live timer cancelled")

type keyMap struct {
	Stop   key.Binding
	Cancel key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Stop: key.NewBinding(
			key.WithKeys("q", "enter", "ctrl+c"),
			key.WithHelp("q/enter", "stop and record"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "discard"),
		),
	}
}

var (
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	elapsedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Model is the bubbletea model behind Run. Elapsed time is measured against
// the clock, the stopwatch only drives redraws.
type Model struct {
	label     string
	now       func() time.Time
	started   time.Time
	stopped   time.Time
	watch     stopwatch.Model
	keys      keyMap
	done      bool
	cancelled bool
}

func NewModel(label string, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	return Model{
		label:   label,
		now:     now,
		started: now(),
		watch:   stopwatch.NewWithInterval(time.Second),
		keys:    defaultKeyMap(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.watch.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Stop):
			m.done = true
			m.stopped = m.now()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Cancel):
			m.done = true
			m.cancelled = true
			m.stopped = m.now()
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.watch, cmd = m.watch.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render(m.label))
	b.WriteString("  ")
	b.WriteString(elapsedStyle.Render(formatElapsed(m.Elapsed())))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q/enter/ctrl+c: stop and record • esc: discard"))
	b.WriteString("\n")
	return b.String()
}

// Elapsed is the time since start, frozen once the timer stops.
func (m Model) Elapsed() time.Duration {
	end := m.stopped
	if end.IsZero() {
		end = m.now()
	}
	return end.Sub(m.started)
}

func (m Model) Cancelled() bool {
	return m.cancelled
}

type Options struct {
	Input  io.Reader
	Output io.Writer
	Now    func() time.Time
}

// Run blocks until the user stops the timer or ctx ends, and returns the
// elapsed time.
func Run(ctx context.Context, label string, opts Options) (time.Duration, error) {
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}

	final, err := tea.NewProgram(NewModel(label, opts.Now), programOpts...).Run()
	if err != nil {
		return 0, fmt.Errorf("run live timer: %w", err)
	}

	model, ok := final.(Model)
	if !ok {
		return 0, fmt.Errorf("unexpected live timer model %T", final)
	}
	if model.Cancelled() {
		return 0, ErrCancelled
	}
	return model.Elapsed(), nil
}

// Minutes rounds an elapsed duration to whole minutes.
func Minutes(elapsed time.Duration) int {
	return int(math.Round(elapsed.Minutes()))
}

func formatElapsed(elapsed time.Duration) string {
	elapsed = elapsed.Truncate(time.Second)
	hours := int(elapsed.Hours())
	minutes := int(elapsed.Minutes()) % 60
	seconds := int(elapsed.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
