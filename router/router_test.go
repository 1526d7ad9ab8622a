package router

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strconv"
	"testing"

	"timetrack/driver"
	"timetrack/record"
)

type memoryDriver struct {
	records  []record.Record
	projects []string
	tasks    map[string][]string
	filters  []driver.Filter
	added    []driver.AddRequest
	err      error
}

func (m *memoryDriver) AddEntry(ctx context.Context, req driver.AddRequest) (record.Record, error) {
	m.added = append(m.added, req)
	rec := record.Record{Date: "2026-03-02", Project: req.Project, Time: 10, Task: req.Task}
	m.records = append(m.records, rec)
	rec.ID = strconv.Itoa(len(m.records))
	return rec, nil
}

func (m *memoryDriver) UpdateEntry(ctx context.Context, id string, duration string) error {
	return nil
}

func (m *memoryDriver) DeleteEntry(ctx context.Context, id string) (bool, error) {
	return true, nil
}

func (m *memoryDriver) GetFilteredEntries(ctx context.Context, filter driver.Filter) iter.Seq2[record.Record, error] {
	m.filters = append(m.filters, filter)
	return func(yield func(record.Record, error) bool) {
		if m.err != nil {
			yield(record.Record{}, m.err)
			return
		}
		for i, rec := range m.records {
			if !filter.Matches(rec) {
				continue
			}
			rec.ID = strconv.Itoa(i + 1)
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (m *memoryDriver) GetProjects(ctx context.Context) ([]string, error) {
	return m.projects, nil
}

func (m *memoryDriver) GetTasks(ctx context.Context, project string) ([]string, error) {
	if project == "" {
		var all []string
		for _, tasks := range m.tasks {
			all = append(all, tasks...)
		}
		return all, nil
	}
	return m.tasks[project], nil
}

func newTestRouter(t *testing.T) (*Driver, *memoryDriver, *memoryDriver) {
	t.Helper()

	work := &memoryDriver{
		projects: []string{"Acme"},
		tasks:    map[string][]string{"Acme": {"Dev"}},
		records: []record.Record{
			{Date: "2026-03-01", Project: "Acme", Time: 30, Task: "Dev"},
		},
	}
	home := &memoryDriver{
		projects: []string{"Garden", "Books"},
		tasks:    map[string][]string{"Garden": {"Weeding"}},
		records: []record.Record{
			{Date: "2026-03-01", Project: "Garden", Time: 45},
			{Date: "2026-03-02", Project: "Books", Time: 20},
		},
	}

	r, err := New([]Route{{Prefix: "work", Driver: work}, {Prefix: "home", Driver: home}}, nil)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return r, work, home
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, nil); !errors.Is(err, driver.ErrNoSubDrivers) {
		t.Fatalf("expected ErrNoSubDrivers, got %v", err)
	}

	tests := []struct {
		name   string
		routes []Route
	}{
		{name: "underscore prefix", routes: []Route{{Prefix: "a_b", Driver: &memoryDriver{}}}},
		{name: "duplicate prefix", routes: []Route{{Prefix: "a", Driver: &memoryDriver{}}, {Prefix: "a", Driver: &memoryDriver{}}}},
		{name: "nil driver", routes: []Route{{Prefix: "a"}}},
		{name: "empty prefix", routes: []Route{{Driver: &memoryDriver{}}}},
	}
	for _, tt := range tests {
		if _, err := New(tt.routes, nil); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}

func TestDriver_GetProjectsPrefixesInRouteOrder(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRouter(t)
	projects, err := r.GetProjects(context.Background())
	if err != nil {
		t.Fatalf("get projects: %v", err)
	}
	want := []string{"work_Acme", "home_Garden", "home_Books"}
	if !slices.Equal(projects, want) {
		t.Fatalf("expected %v, got %v", want, projects)
	}
}

func TestDriver_GetTasks(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRouter(t)
	ctx := context.Background()

	tasks, err := r.GetTasks(ctx, "")
	if err != nil {
		t.Fatalf("get tasks: %v", err)
	}
	if !slices.Equal(tasks, []string{"work_Dev", "home_Weeding"}) {
		t.Fatalf("unexpected tasks: %v", tasks)
	}

	tasks, err = r.GetTasks(ctx, "home_Garden")
	if err != nil {
		t.Fatalf("get scoped tasks: %v", err)
	}
	if !slices.Equal(tasks, []string{"home_Weeding"}) {
		t.Fatalf("unexpected scoped tasks: %v", tasks)
	}

	if _, err := r.GetTasks(ctx, "office_Acme"); !errors.Is(err, driver.ErrUnknownPrefix) {
		t.Fatalf("expected ErrUnknownPrefix, got %v", err)
	}
}

func TestDriver_AddEntryStripsAndRestoresPrefix(t *testing.T) {
	t.Parallel()

	r, work, home := newTestRouter(t)
	rec, err := r.AddEntry(context.Background(), driver.AddRequest{Project: "work_Acme_Site", Time: "10", Task: "work_Dev"})
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}

	if len(work.added) != 1 || len(home.added) != 0 {
		t.Fatalf("expected one add on work only, got work=%d home=%d", len(work.added), len(home.added))
	}
	if work.added[0].Project != "Acme_Site" || work.added[0].Task != "Dev" {
		t.Fatalf("unexpected forwarded request: %+v", work.added[0])
	}
	if rec.ID != "work_2" || rec.Project != "work_Acme_Site" || rec.Task != "work_Dev" {
		t.Fatalf("unexpected returned record: %+v", rec)
	}
}

func TestDriver_AddEntryErrors(t *testing.T) {
	t.Parallel()

	r, work, home := newTestRouter(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  driver.AddRequest
		want error
	}{
		{name: "no prefix", req: driver.AddRequest{Project: "Acme", Time: "10"}, want: driver.ErrUnknownPrefix},
		{name: "unknown prefix", req: driver.AddRequest{Project: "office_Acme", Time: "10"}, want: driver.ErrUnknownPrefix},
		{name: "task of another route", req: driver.AddRequest{Project: "work_Acme", Time: "10", Task: "home_Weeding"}, want: driver.ErrPrefixMismatch},
		{name: "unprefixed task", req: driver.AddRequest{Project: "work_Acme", Time: "10", Task: "Dev"}, want: driver.ErrPrefixMismatch},
	}
	for _, tt := range tests {
		if _, err := r.AddEntry(ctx, tt.req); !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
	if len(work.added) != 0 || len(home.added) != 0 {
		t.Fatalf("expected nothing forwarded, got work=%+v home=%+v", work.added, home.added)
	}

	if _, err := r.AddEntry(ctx, driver.AddRequest{Project: "home_Garden", Time: "10"}); err != nil {
		t.Fatalf("add without task: %v", err)
	}
	if len(home.added) != 1 || home.added[0].Task != "" {
		t.Fatalf("unexpected forwarded request: %+v", home.added)
	}
}

func TestDriver_FilteredEntriesFanOut(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRouter(t)
	records, err := driver.Collect(r.GetFilteredEntries(context.Background(), driver.Filter{}))
	if err != nil {
		t.Fatalf("filtered entries: %v", err)
	}

	ids := make([]string, 0, len(records))
	projects := make([]string, 0, len(records))
	tasks := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
		projects = append(projects, rec.Project)
		tasks = append(tasks, rec.Task)
	}
	if !slices.Equal(ids, []string{"work_1", "home_1", "home_2"}) {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if !slices.Equal(projects, []string{"work_Acme", "home_Garden", "home_Books"}) {
		t.Fatalf("unexpected projects: %v", projects)
	}
	if !slices.Equal(tasks, []string{"work_Dev", "", ""}) {
		t.Fatalf("unexpected tasks: %q", tasks)
	}
}

func TestDriver_ListedRecordsRoundTrip(t *testing.T) {
	t.Parallel()

	r, work, _ := newTestRouter(t)
	ctx := context.Background()

	records, err := driver.Collect(r.GetFilteredEntries(ctx, driver.Filter{Project: "work_Acme"}))
	if err != nil {
		t.Fatalf("filtered entries: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %+v", records)
	}
	listed := records[0]

	same, err := driver.Collect(r.GetFilteredEntries(ctx, driver.Filter{Project: listed.Project, Task: listed.Task}))
	if err != nil {
		t.Fatalf("filter by listed project and task: %v", err)
	}
	if len(same) != 1 || same[0] != listed {
		t.Fatalf("expected the listed record back, got %+v", same)
	}

	tasks, err := r.GetTasks(ctx, listed.Project)
	if err != nil {
		t.Fatalf("get tasks: %v", err)
	}
	if !slices.Contains(tasks, listed.Task) {
		t.Fatalf("expected %q among tasks %v", listed.Task, tasks)
	}

	day, err := record.ParseDate(listed.Date)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if _, err := r.AddEntry(ctx, driver.AddRequest{
		Project: listed.Project,
		Time:    strconv.Itoa(int(listed.Time)),
		When:    day,
		Task:    listed.Task,
	}); err != nil {
		t.Fatalf("re-add listed record: %v", err)
	}
	if len(work.added) != 1 || work.added[0].Project != "Acme" || work.added[0].Task != "Dev" {
		t.Fatalf("unexpected forwarded request: %+v", work.added)
	}
}

func TestDriver_FilteredEntriesScopedByPrefix(t *testing.T) {
	t.Parallel()

	r, work, home := newTestRouter(t)
	records, err := driver.Collect(r.GetFilteredEntries(context.Background(), driver.Filter{Project: "home_Books"}))
	if err != nil {
		t.Fatalf("filtered entries: %v", err)
	}

	if len(records) != 1 || records[0].ID != "home_2" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if len(work.filters) != 0 {
		t.Fatalf("expected work driver not to be queried, got %+v", work.filters)
	}
	if len(home.filters) != 1 || home.filters[0].Project != "Books" {
		t.Fatalf("unexpected forwarded filters: %+v", home.filters)
	}

	_, err = driver.Collect(r.GetFilteredEntries(context.Background(), driver.Filter{Project: "work_Acme", Task: "home_Dev"}))
	if !errors.Is(err, driver.ErrPrefixMismatch) {
		t.Fatalf("expected ErrPrefixMismatch, got %v", err)
	}
}

func TestDriver_FilteredEntriesAreMaterialized(t *testing.T) {
	t.Parallel()

	r, work, _ := newTestRouter(t)
	seq := r.GetFilteredEntries(context.Background(), driver.Filter{})
	if len(work.filters) != 1 {
		t.Fatalf("expected sub-drivers to be queried when the sequence is built, got %d queries", len(work.filters))
	}

	work.records = append(work.records, record.Record{Date: "2026-03-03", Project: "Acme", Time: 5})
	records, err := driver.Collect(seq)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestDriver_FilteredEntriesPropagatesErrors(t *testing.T) {
	t.Parallel()

	r, _, home := newTestRouter(t)
	boom := errors.New("boom")
	home.err = boom

	if _, err := driver.Collect(r.GetFilteredEntries(context.Background(), driver.Filter{})); !errors.Is(err, boom) {
		t.Fatalf("expected sub-driver error, got %v", err)
	}
}

func TestDriver_UpdateAndDeleteNotSupported(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRouter(t)
	if err := r.UpdateEntry(context.Background(), "work_1", "10"); !errors.Is(err, driver.ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported on update, got %v", err)
	}

	found, err := r.DeleteEntry(context.Background(), "work_1")
	if !errors.Is(err, driver.ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported on delete, got %v", err)
	}
	if found {
		t.Fatalf("expected found=false")
	}
}
