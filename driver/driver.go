// Package driver defines the storage contract shared by every timetrack
// backend. Callers hold a Driver and never depend on a concrete type.
//
// Sequences returned by GetFilteredEntries differ in evaluation: the file and
// remote drivers are lazy and re-read their source each time the sequence is
// ranged over, while the router materializes every sub-driver's results when
// GetFilteredEntries is called, since it must re-prefix each record before
// handing it out.
package driver

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"timetrack/internal/timeutil"
	"timetrack/record"
)

// Driver is the six-operation storage contract.
type Driver interface {
	// AddEntry persists one new record and returns it as stored. Durations
	// below one minute fail with ErrInvalidDuration.
	AddEntry(ctx context.Context, req AddRequest) (record.Record, error)

	// UpdateEntry adds the normalized duration to an existing record's time.
	// A missing id yields ErrEntryNotFound.
	UpdateEntry(ctx context.Context, id string, duration string) error

	// DeleteEntry removes one record and reports whether it existed.
	DeleteEntry(ctx context.Context, id string) (bool, error)

	// GetFilteredEntries yields matching records in the store's natural
	// order. A non-nil error ends the sequence.
	GetFilteredEntries(ctx context.Context, filter Filter) iter.Seq2[record.Record, error]

	// GetProjects returns the distinct project identifiers.
	GetProjects(ctx context.Context) ([]string, error)

	// GetTasks returns the distinct task names, scoped to project when it is
	// not empty.
	GetTasks(ctx context.Context, project string) ([]string, error)
}

// AddRequest carries the inputs of AddEntry. Time is a raw duration string
// such as "90", "1:30" or "1h30m". A zero When means today; only its
// calendar date is kept. An empty Task means no task.
type AddRequest struct {
	Project string
	Time    string
	Comment []string
	When    time.Time
	Task    string
}

// Filter constrains GetFilteredEntries. Start and Finish are inclusive
// calendar-day bounds; zero values and empty strings mean no constraint.
type Filter struct {
	Start   time.Time
	Finish  time.Time
	Project string
	Task    string
}

// DateBounds returns the filter's bounds as stored date strings, empty when
// unbounded.
func (f Filter) DateBounds() (string, string) {
	var start, finish string
	if !f.Start.IsZero() {
		start = record.FormatDate(f.Start)
	}
	if !f.Finish.IsZero() {
		finish = record.FormatDate(f.Finish)
	}
	return start, finish
}

// Matches reports whether rec satisfies every constraint of the filter.
func (f Filter) Matches(rec record.Record) bool {
	start, finish := f.DateBounds()
	if start != "" && rec.Date < start {
		return false
	}
	if finish != "" && rec.Date > finish {
		return false
	}
	if f.Project != "" && rec.Project != f.Project {
		return false
	}
	if f.Task != "" && rec.Task != f.Task {
		return false
	}
	return true
}

// NormalizeMinutes parses a raw duration and enforces the one-minute floor
// shared by AddEntry and UpdateEntry.
func NormalizeMinutes(raw string) (int, error) {
	minutes, err := timeutil.ParseMinutes(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDuration, err)
	}
	if minutes < 1 {
		return 0, fmt.Errorf("%w: you must spend at least a minute on a task to record it", ErrInvalidDuration)
	}
	return minutes, nil
}

// ResolveDay returns the stored date for when, falling back to now.
func ResolveDay(when time.Time, now func() time.Time) string {
	if when.IsZero() {
		when = now()
	}
	return record.FormatDate(timeutil.StartOfDay(when))
}

// Kind tags the concrete backend selected by configuration.
type Kind string

const (
	KindFile    Kind = "file"
	KindHarvest Kind = "harvest"
	KindRouter  Kind = "router"
)

func ParseKind(value string) (Kind, error) {
	switch kind := Kind(strings.ToLower(strings.TrimSpace(value))); kind {
	case KindFile, KindHarvest, KindRouter:
		return kind, nil
	case "":
		return KindFile, nil
	default:
		return "", fmt.Errorf("unsupported driver type %q (valid: file, harvest, router)", value)
	}
}

// Collect drains a record sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[record.Record, error]) ([]record.Record, error) {
	records := make([]record.Record, 0, 32)
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
