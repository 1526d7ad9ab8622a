// Package harvest implements the timetrack driver contract on top of the
// Harvest v2 REST API. Entries are addressed by the service's own ids and
// projects by their code, rendered to callers as Client/Code/Name.
package harvest

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"timetrack/driver"
	"timetrack/record"
)

type Config struct {
	AccessToken string
	AccountID   string
	Endpoint    string
	Logger      *slog.Logger
	Now         func() time.Time
	HTTPClient  httpDoer
}

// Driver memoizes the user profile and project assignments for its whole
// lifetime; a new Driver is needed to observe remote changes to either.
type Driver struct {
	api    API
	logger *slog.Logger
	now    func() time.Time

	user        *User
	assignments []ProjectAssignment
	loaded      bool
}

var _ driver.Driver = (*Driver)(nil)

func New(cfg Config) (*Driver, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, fmt.Errorf("%w: access_token is required", driver.ErrMissingCredential)
	}
	if strings.TrimSpace(cfg.AccountID) == "" {
		return nil, fmt.Errorf("%w: account_id is required", driver.ErrMissingCredential)
	}

	client, err := NewClient(ClientConfig{
		Endpoint:    cfg.Endpoint,
		AccessToken: cfg.AccessToken,
		AccountID:   cfg.AccountID,
		HTTPClient:  cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	return NewWithAPI(client, cfg.Logger, cfg.Now), nil
}

func NewWithAPI(api API, logger *slog.Logger, now func() time.Time) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if now == nil {
		now = time.Now
	}
	return &Driver{api: api, logger: logger, now: now}
}

// ProjectCode extracts the lookup code from Code, Code/Name or
// Client/Code/Name.
func ProjectCode(project string) string {
	parts := strings.Split(strings.TrimSpace(project), "/")
	if len(parts) < 3 {
		return strings.TrimSpace(parts[0])
	}
	return strings.TrimSpace(parts[1])
}

func (d *Driver) AddEntry(ctx context.Context, req driver.AddRequest) (record.Record, error) {
	minutes, err := driver.NormalizeMinutes(req.Time)
	if err != nil {
		return record.Record{}, err
	}

	taskName := strings.TrimSpace(req.Task)
	if taskName == "" {
		return record.Record{}, fmt.Errorf("%w: a task is required for project %q", driver.ErrUnknownTask, req.Project)
	}

	user, err := d.profile(ctx)
	if err != nil {
		return record.Record{}, err
	}
	assignment, err := d.assignmentFor(ctx, req.Project)
	if err != nil {
		return record.Record{}, err
	}
	task, ok := activeTask(assignment, taskName)
	if !ok {
		return record.Record{}, fmt.Errorf("%w: %q on project %q", driver.ErrUnknownTask, taskName, assignment.Project.Code)
	}

	spentDate := driver.ResolveDay(req.When, d.now)
	comment := record.JoinComment(req.Comment)
	d.logger.Debug("creating time entry", "project_id", assignment.Project.ID, "task_id", task.ID, "date", spentDate, "minutes", minutes)

	created, err := d.api.CreateTimeEntry(ctx, NewTimeEntry{
		UserID:    user.ID,
		ProjectID: assignment.Project.ID,
		TaskID:    task.ID,
		SpentDate: spentDate,
		Hours:     float64(minutes) / 60,
		Notes:     comment,
	})
	if err != nil {
		return record.Record{}, err
	}

	return record.Record{
		ID:      strconv.FormatInt(created.ID, 10),
		Date:    spentDate,
		Project: assignment.Label(),
		Time:    record.Minutes(minutes),
		Comment: comment,
		Task:    task.Name,
	}, nil
}

func (d *Driver) UpdateEntry(ctx context.Context, id string, duration string) error {
	d.logger.Debug("update is not performed against harvest", "id", id, "time", duration)
	return nil
}

func (d *Driver) DeleteEntry(ctx context.Context, id string) (bool, error) {
	d.logger.Debug("delete is not performed against harvest", "id", id)
	return false, nil
}

func (d *Driver) GetFilteredEntries(ctx context.Context, filter driver.Filter) iter.Seq2[record.Record, error] {
	return func(yield func(record.Record, error) bool) {
		from, to := filter.DateBounds()
		if from == "" || to == "" {
			yield(record.Record{}, driver.ErrRangeRequired)
			return
		}

		user, err := d.profile(ctx)
		if err != nil {
			yield(record.Record{}, err)
			return
		}
		assignments, err := d.projectAssignments(ctx)
		if err != nil {
			yield(record.Record{}, err)
			return
		}

		query := TimeEntryQuery{UserID: user.ID, From: from, To: to}
		if filter.Project != "" {
			assignment, err := d.assignmentFor(ctx, filter.Project)
			if err != nil {
				yield(record.Record{}, err)
				return
			}
			query.ProjectID = assignment.Project.ID
		}

		entries, err := d.api.TimeEntries(ctx, query)
		if err != nil {
			yield(record.Record{}, err)
			return
		}
		d.logger.Debug("fetched time entries", "from", from, "to", to, "project_id", query.ProjectID, "count", len(entries))

		codes := make(map[int64]string, len(assignments))
		for _, assignment := range assignments {
			codes[assignment.Project.ID] = assignment.Project.Code
		}

		for _, entry := range entries {
			if filter.Task != "" && entry.Task.Name != filter.Task {
				continue
			}
			if !yield(toRecord(entry, codes), nil) {
				return
			}
		}
	}
}

func (d *Driver) GetProjects(ctx context.Context) ([]string, error) {
	assignments, err := d.projectAssignments(ctx)
	if err != nil {
		return nil, err
	}

	projects := make([]string, 0, len(assignments))
	for _, assignment := range assignments {
		if assignment.IsActive {
			projects = append(projects, assignment.Label())
		}
	}
	slices.Sort(projects)
	return slices.Compact(projects), nil
}

func (d *Driver) GetTasks(ctx context.Context, project string) ([]string, error) {
	assignments, err := d.projectAssignments(ctx)
	if err != nil {
		return nil, err
	}

	code := ""
	if strings.TrimSpace(project) != "" {
		code = ProjectCode(project)
	}

	tasks := make([]string, 0, 16)
	for _, assignment := range assignments {
		if !assignment.IsActive || (code != "" && assignment.Project.Code != code) {
			continue
		}
		for _, task := range assignment.TaskAssignments {
			if task.IsActive {
				tasks = append(tasks, task.Task.Name)
			}
		}
	}
	slices.Sort(tasks)
	return slices.Compact(tasks), nil
}

func (d *Driver) profile(ctx context.Context) (User, error) {
	if d.user != nil {
		return *d.user, nil
	}
	user, err := d.api.CurrentUser(ctx)
	if err != nil {
		return User{}, fmt.Errorf("load harvest user profile: %w", err)
	}
	d.logger.Debug("loaded harvest user profile", "user_id", user.ID)
	d.user = &user
	return user, nil
}

func (d *Driver) projectAssignments(ctx context.Context) ([]ProjectAssignment, error) {
	if d.loaded {
		return d.assignments, nil
	}
	user, err := d.profile(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := d.api.ProjectAssignments(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load harvest project assignments: %w", err)
	}
	d.logger.Debug("loaded harvest project assignments", "count", len(assignments))
	d.assignments = assignments
	d.loaded = true
	return assignments, nil
}

func (d *Driver) assignmentFor(ctx context.Context, project string) (ProjectAssignment, error) {
	assignments, err := d.projectAssignments(ctx)
	if err != nil {
		return ProjectAssignment{}, err
	}
	code := ProjectCode(project)
	for _, assignment := range assignments {
		if assignment.Project.Code == code {
			return assignment, nil
		}
	}
	return ProjectAssignment{}, fmt.Errorf("%w: project code %q", driver.ErrUnknownProject, code)
}

func activeTask(assignment ProjectAssignment, name string) (Ref, bool) {
	for _, task := range assignment.TaskAssignments {
		if task.IsActive && task.Task.Name == name {
			return task.Task, true
		}
	}
	return Ref{}, false
}

func toRecord(entry TimeEntry, codes map[int64]string) record.Record {
	code, ok := codes[entry.Project.ID]
	if !ok {
		code = entry.Project.Code
	}
	return record.Record{
		ID:      strconv.FormatInt(entry.ID, 10),
		Date:    entry.SpentDate,
		Project: entry.Client.Name + "/" + code + "/" + entry.Project.Name,
		Time:    record.Minutes(math.Round(entry.Hours * 60)),
		Comment: entry.Notes,
		Task:    entry.Task.Name,
	}
}
