package timeutil

import (
	"strings"
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	t.Parallel()

	input := time.Date(2026, 3, 1, 14, 37, 9, 123, time.Local)
	got := StartOfDay(input)

	if got.Year() != 2026 || got.Month() != time.March || got.Day() != 1 {
		t.Fatalf("unexpected date: %v", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
		t.Fatalf("expected midnight, got %v", got)
	}
}

func TestSameDay(t *testing.T) {
	t.Parallel()

	a := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	b := time.Date(2026, 3, 1, 18, 30, 0, 0, time.Local)
	c := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)

	if !SameDay(a, b) {
		t.Fatalf("expected same day for %v and %v", a, b)
	}
	if SameDay(a, c) {
		t.Fatalf("expected different days for %v and %v", a, c)
	}
}

func TestLastDays(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 16, 0, 0, 0, time.Local)

	start, end := LastDays(now, 7)
	if want := time.Date(2026, 3, 3, 0, 0, 0, 0, time.Local); !start.Equal(want) {
		t.Fatalf("start = %v, want %v", start, want)
	}
	if want := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local); !end.Equal(want) {
		t.Fatalf("end = %v, want %v", end, want)
	}

	start, end = LastDays(now, 0)
	if !start.Equal(end) {
		t.Fatalf("expected empty range, got %v..%v", start, end)
	}
}

func TestParseMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  int
	}{
		{"90", 90},
		{"1:30", 90},
		{"1h30", 90},
		{"1h", 60},
		{"30m", 30},
		{"1h30m", 90},
		{"2:", 120},
		{" 45 ", 45},
		{"0", 0},
		{"0h15m", 15},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMinutes(tt.input)
			if err != nil {
				t.Fatalf("ParseMinutes(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseMinutes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMinutes_Invalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "h", "abc", "-5", "1.5h", "1h 30m", "30mm", "1H"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseMinutes(input)
			if err == nil || !strings.Contains(err.Error(), "invalid time format") {
				t.Fatalf("ParseMinutes(%q) error = %v, want invalid time format", input, err)
			}
		})
	}
}

func TestParseMinutes_TooLarge(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		"99999999999",
		"999999999999999999999",
		"999999999999999999h",
		"35791395h",
		"35791394h9999m",
		"1:99999999999",
	} {
		t.Run(input, func(t *testing.T) {
			got, err := ParseMinutes(input)
			if err == nil {
				t.Fatalf("ParseMinutes(%q) = %d, want error", input, got)
			}
		})
	}

	got, err := ParseMinutes("35791394h7m")
	if err != nil || got != MaxMinutes {
		t.Fatalf("ParseMinutes at bound = %d, %v; want %d", got, err, MaxMinutes)
	}
}

func TestHumanMinutes(t *testing.T) {
	t.Parallel()

	for minutes, want := range map[int]string{0: "0h0m", 90: "1h30m", 605: "10h5m", -90: "-1h30m"} {
		if got := HumanMinutes(minutes); got != want {
			t.Fatalf("HumanMinutes(%d) = %q, want %q", minutes, got, want)
		}
	}
}
