package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// DateLayout is the calendar-day format stored in every record.
const DateLayout = "2006-01-02"

// Record is one unit of tracked time as stored and displayed. ID is derived by
// the owning driver and never persisted.
type Record struct {
	Date    string  `json:"date"`
	Project string  `json:"project"`
	Time    Minutes `json:"time"`
	Comment string  `json:"comment"`
	Task    string  `json:"task,omitempty"`
	ID      string  `json:"-"`
}

// Day parses the stored date in the local time zone.
func (r Record) Day() (time.Time, error) {
	return ParseDate(r.Date)
}

// Minutes is a whole-minute duration. Older live-timer lines stored fractional
// minutes, so decoding accepts any JSON number and rounds it.
type Minutes int

func (m *Minutes) UnmarshalJSON(data []byte) error {
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decode minutes %s: %w", strings.TrimSpace(string(data)), err)
	}
	*m = Minutes(math.Round(value))
	return nil
}

func FormatDate(day time.Time) string {
	return day.Format(DateLayout)
}

func ParseDate(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return parsed, nil
}

// JoinComment joins comment tokens with single spaces and folds embedded line
// breaks so a comment always fits on one stored line.
func JoinComment(tokens []string) string {
	joined := strings.Join(tokens, " ")
	joined = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(joined)
	return norm.NFC.String(joined)
}
