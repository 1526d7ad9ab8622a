package output

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"timetrack/internal/timeutil"
	"timetrack/record"
)

// EntryHeaders are the columns of an entry export. The importer reads the
// same names back.
var EntryHeaders = []string{"ID", "Date", "Project", "Task", "Minutes", "Duration", "Comment"}

type DayGroup struct {
	Date    string
	Records []record.Record
	Minutes int
}

type ProjectTotal struct {
	Project string
	Minutes int
}

// GroupByDay buckets records by date in ascending order. Records keep their
// input order inside a day.
func GroupByDay(records []record.Record) []DayGroup {
	if len(records) == 0 {
		return []DayGroup{}
	}

	byDay := make(map[string][]record.Record)
	for _, rec := range records {
		byDay[rec.Date] = append(byDay[rec.Date], rec)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	groups := make([]DayGroup, 0, len(days))
	for _, day := range days {
		groups = append(groups, DayGroup{Date: day, Records: byDay[day], Minutes: DaySpent(byDay[day])})
	}
	return groups
}

// ProjectTotals sums minutes per project in first-seen order.
func ProjectTotals(records []record.Record) []ProjectTotal {
	index := make(map[string]int)
	totals := make([]ProjectTotal, 0, 8)
	for _, rec := range records {
		i, ok := index[rec.Project]
		if !ok {
			i = len(totals)
			index[rec.Project] = i
			totals = append(totals, ProjectTotal{Project: rec.Project})
		}
		totals[i].Minutes += int(rec.Time)
	}
	return totals
}

func DaySpent(records []record.Record) int {
	total := 0
	for _, rec := range records {
		total += int(rec.Time)
	}
	return total
}

// DayRemainder is the working day in minutes minus the time spent. It goes
// negative on overtime.
func DayRemainder(records []record.Record, workingHours float64) int {
	return int(math.Round(workingHours*60)) - DaySpent(records)
}

// OnDay returns the records dated day.
func OnDay(records []record.Record, day string) []record.Record {
	out := make([]record.Record, 0, len(records))
	for _, rec := range records {
		if rec.Date == day {
			out = append(out, rec)
		}
	}
	return out
}

// WriteDayListing prints each day's entries as "id) XhYm on project: comment".
func WriteDayListing(w io.Writer, groups []DayGroup) error {
	for _, group := range groups {
		if _, err := fmt.Fprintf(w, "\n%s\n---------\n", group.Date); err != nil {
			return err
		}
		for _, rec := range group.Records {
			line := fmt.Sprintf("%s) %s on %s", rec.ID, timeutil.HumanMinutes(int(rec.Time)), rec.Project)
			if rec.Task != "" {
				line += " [" + rec.Task + "]"
			}
			if _, err := fmt.Fprintf(w, "%s: %s\n", line, rec.Comment); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteDayBalance prints the time spent on today's records and what is left of
// the working day.
func WriteDayBalance(w io.Writer, today []record.Record, workingHours float64) error {
	_, err := fmt.Fprintf(
		w,
		"-----------\nTime spent today: %s\nRemaining time today: %s\n",
		timeutil.HumanMinutes(DaySpent(today)),
		timeutil.HumanMinutes(DayRemainder(today, workingHours)),
	)
	return err
}

func WriteProjectReport(w io.Writer, start, finish string, totals []ProjectTotal) error {
	if _, err := fmt.Fprintf(w, "\nProject Breakdown: %s to %s \n----------\n", start, finish); err != nil {
		return err
	}
	for _, total := range totals {
		if _, err := fmt.Fprintf(w, "%s: %s\n", total.Project, timeutil.HumanMinutes(total.Minutes)); err != nil {
			return err
		}
	}
	return nil
}

func EntriesTable(records []record.Record) Table {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.ID,
			rec.Date,
			rec.Project,
			rec.Task,
			strconv.Itoa(int(rec.Time)),
			timeutil.HumanMinutes(int(rec.Time)),
			rec.Comment,
		})
	}
	return Table{Headers: append([]string(nil), EntryHeaders...), Rows: rows}
}

func ProjectTotalsTable(totals []ProjectTotal) Table {
	rows := make([][]string, 0, len(totals))
	for _, total := range totals {
		rows = append(rows, []string{
			total.Project,
			strconv.Itoa(total.Minutes),
			fmt.Sprintf("%.2f", float64(total.Minutes)/60),
		})
	}
	return Table{Headers: []string{"Project", "Minutes", "Hours"}, Rows: rows}
}
