package timeutil

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// durationPattern accepts plain minutes ("90", "30m") and hour/minute pairs
// written with either separator ("1:30", "1h30", "1h30m", "1h", "2:").
var durationPattern = regexp.MustCompile(`^(?:(\d+)[h:](\d*)|(\d+))m?$`)

// MaxMinutes bounds every parsed duration.
const MaxMinutes = math.MaxInt32

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// LastDays returns the calendar range covering the n days before now, ending
// today. n == 0 yields today only.
func LastDays(now time.Time, n int) (time.Time, time.Time) {
	end := StartOfDay(now)
	return StartOfDay(now.AddDate(0, 0, -n)), end
}

// ParseMinutes normalizes a human duration string into whole minutes.
func ParseMinutes(raw string) (int, error) {
	cleaned := strings.TrimSpace(raw)
	matches := durationPattern.FindStringSubmatch(cleaned)
	if matches == nil {
		return 0, fmt.Errorf("invalid time format %q: expected minutes, H:MM or XhYm", raw)
	}

	if matches[3] != "" {
		return boundedInt(matches[3], MaxMinutes, raw)
	}

	hours, err := boundedInt(matches[1], MaxMinutes/60, raw)
	if err != nil {
		return 0, err
	}
	minutes := 0
	if matches[2] != "" {
		minutes, err = boundedInt(matches[2], MaxMinutes, raw)
		if err != nil {
			return 0, err
		}
	}
	if hours*60 > MaxMinutes-minutes {
		return 0, fmt.Errorf("duration %q exceeds %d minutes", raw, MaxMinutes)
	}
	return hours*60 + minutes, nil
}

func boundedInt(digits string, limit int, raw string) (int, error) {
	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || value > int64(limit) {
		return 0, fmt.Errorf("duration %q exceeds %d minutes", raw, MaxMinutes)
	}
	return int(value), nil
}

// HumanMinutes renders a minute count as "XhYm"; negative counts get a
// single leading minus.
func HumanMinutes(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%dh%dm", sign, minutes/60, minutes%60)
}
