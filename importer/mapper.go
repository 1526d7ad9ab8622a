package importer

import (
	"fmt"
	"strconv"
	"strings"

	"timetrack/driver"
)

// MapRow turns one export row into an AddRequest. Rows without a project
// are skipped. Minutes win over Hours, which win over a free-form Duration.
func MapRow(row Row) (driver.AddRequest, bool, error) {
	project := row.Get("project", "projekt")
	if project == "" {
		return driver.AddRequest{}, false, nil
	}

	day, err := parseDay(row.Get("date", "datum", "spentdate"))
	if err != nil {
		return driver.AddRequest{}, false, fmt.Errorf("row %d: parse date: %w", row.RowNumber, err)
	}

	duration, err := rowDuration(row)
	if err != nil {
		return driver.AddRequest{}, false, fmt.Errorf("row %d: %w", row.RowNumber, err)
	}

	req := driver.AddRequest{
		Project: project,
		Time:    duration,
		When:    day,
		Task:    row.Get("task", "aufgabe"),
	}
	if comment := row.Get("comment", "notes", "description", "beschreibung"); comment != "" {
		req.Comment = strings.Fields(comment)
	}
	return req, true, nil
}

func rowDuration(row Row) (string, error) {
	if value := row.Get("minutes", "time"); value != "" {
		minutes, err := parseMinutes(value)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(minutes), nil
	}
	if value := row.Get("hours", "stunden"); value != "" {
		minutes, err := parseGermanDecimalHoursToMinutes(value)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(minutes), nil
	}
	if value := row.Get("duration", "dauer"); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("no minutes, hours or duration column")
}
