package output

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"timetrack/record"
)

func sampleRecords() []record.Record {
	return []record.Record{
		{ID: "1", Date: "2026-03-02", Project: "Acme", Time: 90, Comment: "did stuff"},
		{ID: "2", Date: "2026-03-01", Project: "Bolt", Time: 30, Comment: "review", Task: "Dev"},
		{ID: "3", Date: "2026-03-02", Project: "Bolt", Time: 45, Comment: "fix"},
		{ID: "4", Date: "2026-03-02", Project: "Acme", Time: 15, Comment: "call"},
	}
}

func TestGroupByDay_SortsDaysAndKeepsOrderWithinDay(t *testing.T) {
	t.Parallel()

	groups := GroupByDay(sampleRecords())
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Date != "2026-03-01" || groups[1].Date != "2026-03-02" {
		t.Fatalf("unexpected day order: %s, %s", groups[0].Date, groups[1].Date)
	}
	if groups[1].Minutes != 150 {
		t.Fatalf("expected 150 minutes on 2026-03-02, got %d", groups[1].Minutes)
	}

	ids := make([]string, 0, len(groups[1].Records))
	for _, rec := range groups[1].Records {
		ids = append(ids, rec.ID)
	}
	if !slices.Equal(ids, []string{"1", "3", "4"}) {
		t.Fatalf("unexpected order within day: %v", ids)
	}

	if got := GroupByDay(nil); len(got) != 0 {
		t.Fatalf("expected no groups for empty input, got %+v", got)
	}
}

func TestProjectTotals_FirstSeenOrder(t *testing.T) {
	t.Parallel()

	totals := ProjectTotals(sampleRecords())
	want := []ProjectTotal{{Project: "Acme", Minutes: 105}, {Project: "Bolt", Minutes: 75}}
	if !slices.Equal(totals, want) {
		t.Fatalf("expected %+v, got %+v", want, totals)
	}
}

func TestDaySpentAndRemainder(t *testing.T) {
	t.Parallel()

	today := OnDay(sampleRecords(), "2026-03-02")
	if got := DaySpent(today); got != 150 {
		t.Fatalf("expected 150 spent, got %d", got)
	}
	if got := DayRemainder(today, 10); got != 450 {
		t.Fatalf("expected 450 remaining, got %d", got)
	}
	if got := DayRemainder(today, 2); got != -30 {
		t.Fatalf("expected -30 remaining on overtime, got %d", got)
	}
	if got := DayRemainder(nil, 7.5); got != 450 {
		t.Fatalf("expected 450 for a 7.5 hour day, got %d", got)
	}
}

func TestWriteDayListingAndBalance(t *testing.T) {
	t.Parallel()

	records := sampleRecords()
	var buf bytes.Buffer
	if err := WriteDayListing(&buf, GroupByDay(records)); err != nil {
		t.Fatalf("write listing: %v", err)
	}
	if err := WriteDayBalance(&buf, OnDay(records, "2026-03-02"), 10); err != nil {
		t.Fatalf("write balance: %v", err)
	}

	text := buf.String()
	for _, want := range []string{
		"\n2026-03-01\n---------\n2) 0h30m on Bolt [Dev]: review\n",
		"1) 1h30m on Acme: did stuff\n",
		"Time spent today: 2h30m\n",
		"Remaining time today: 7h30m\n",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func TestWriteProjectReport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteProjectReport(&buf, "2026-02-23", "2026-03-02", ProjectTotals(sampleRecords())); err != nil {
		t.Fatalf("write report: %v", err)
	}
	want := "\nProject Breakdown: 2026-02-23 to 2026-03-02 \n----------\nAcme: 1h45m\nBolt: 1h15m\n"
	if buf.String() != want {
		t.Fatalf("unexpected report:\n%q", buf.String())
	}
}

func TestCSVWriter_WritesEntriesTable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "entries.csv")
	writer, err := WriterForPath(path)
	if err != nil {
		t.Fatalf("writer for path: %v", err)
	}
	if err := writer.Write(path, EntriesTable(sampleRecords()[:2])); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	want := "ID,Date,Project,Task,Minutes,Duration,Comment\n" +
		"1,2026-03-02,Acme,,90,1h30m,did stuff\n" +
		"2,2026-03-01,Bolt,Dev,30,0h30m,review\n"
	if string(content) != want {
		t.Fatalf("unexpected csv:\n%s", content)
	}
}

func TestExcelWriter_WritesProjectTotals(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.xlsx")
	writer, err := WriterForFormat("Excel")
	if err != nil {
		t.Fatalf("writer for format: %v", err)
	}
	if err := writer.Write(path, ProjectTotalsTable(ProjectTotals(sampleRecords()))); err != nil {
		t.Fatalf("write excel: %v", err)
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open excel: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows(file.GetSheetName(0))
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if !slices.Equal(rows[1], []string{"Acme", "105", "1.75"}) {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
}

func TestWriterForPath_RejectsUnknownExtension(t *testing.T) {
	t.Parallel()

	if _, err := WriterForPath("report"); err == nil {
		t.Fatalf("expected error for missing extension")
	}
	if _, err := WriterForPath("report.pdf"); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}
