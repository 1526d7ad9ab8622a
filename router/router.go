// Package router multiplexes several drivers behind one, addressing each
// sub-driver's projects, tasks and entries as prefix_name. Records handed out
// carry prefixed ids, projects and tasks, so they can be added back as-is.
package router

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"timetrack/driver"
	"timetrack/record"
)

type Route struct {
	Prefix string
	Driver driver.Driver
}

// Driver keeps its routes in construction order; listings concatenate
// sub-driver results in that order.
type Driver struct {
	routes []Route
	byName map[string]driver.Driver
	logger *slog.Logger
}

var _ driver.Driver = (*Driver)(nil)

func New(routes []Route, logger *slog.Logger) (*Driver, error) {
	if len(routes) == 0 {
		return nil, driver.ErrNoSubDrivers
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	byName := make(map[string]driver.Driver, len(routes))
	for _, route := range routes {
		switch {
		case route.Prefix == "":
			return nil, fmt.Errorf("router sub-driver prefix must not be empty")
		case strings.Contains(route.Prefix, "_"):
			return nil, fmt.Errorf("router prefix %q must not contain an underscore", route.Prefix)
		case route.Driver == nil:
			return nil, fmt.Errorf("router prefix %q has no driver", route.Prefix)
		}
		if _, ok := byName[route.Prefix]; ok {
			return nil, fmt.Errorf("duplicate router prefix %q", route.Prefix)
		}
		byName[route.Prefix] = route.Driver
	}

	return &Driver{routes: append([]Route(nil), routes...), byName: byName, logger: logger}, nil
}

func (d *Driver) Prefixes() []string {
	prefixes := make([]string, 0, len(d.routes))
	for _, route := range d.routes {
		prefixes = append(prefixes, route.Prefix)
	}
	return prefixes
}

func (d *Driver) AddEntry(ctx context.Context, req driver.AddRequest) (record.Record, error) {
	prefix, project, err := d.split(req.Project)
	if err != nil {
		return record.Record{}, err
	}

	forwarded := req
	forwarded.Project = project
	if task := strings.TrimSpace(req.Task); task != "" {
		taskPrefix, name, ok := strings.Cut(task, "_")
		if !ok || taskPrefix != prefix {
			return record.Record{}, fmt.Errorf("%w: project %q, task %q", driver.ErrPrefixMismatch, req.Project, req.Task)
		}
		forwarded.Task = name
	}

	d.logger.Debug("routing add", "prefix", prefix, "project", project, "task", forwarded.Task)
	rec, err := d.byName[prefix].AddEntry(ctx, forwarded)
	if err != nil {
		return record.Record{}, err
	}
	return prefixRecord(prefix, rec), nil
}

func (d *Driver) UpdateEntry(ctx context.Context, id string, duration string) error {
	return fmt.Errorf("%w: update of %q through the router", driver.ErrNotSupported, id)
}

func (d *Driver) DeleteEntry(ctx context.Context, id string) (bool, error) {
	return false, fmt.Errorf("%w: delete of %q through the router", driver.ErrNotSupported, id)
}

// GetFilteredEntries queries the sub-drivers immediately and replays the
// combined result. A prefixed project or task filter limits the query to
// that prefix's driver.
func (d *Driver) GetFilteredEntries(ctx context.Context, filter driver.Filter) iter.Seq2[record.Record, error] {
	records, err := d.filtered(ctx, filter)
	return func(yield func(record.Record, error) bool) {
		if err != nil {
			yield(record.Record{}, err)
			return
		}
		for _, rec := range records {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (d *Driver) filtered(ctx context.Context, filter driver.Filter) ([]record.Record, error) {
	scope := ""
	forwarded := filter
	if filter.Project != "" {
		prefix, project, err := d.split(filter.Project)
		if err != nil {
			return nil, err
		}
		scope = prefix
		forwarded.Project = project
	}
	if filter.Task != "" {
		prefix, task, err := d.split(filter.Task)
		if err != nil {
			return nil, err
		}
		if scope != "" && scope != prefix {
			return nil, fmt.Errorf("%w: project %q, task %q", driver.ErrPrefixMismatch, filter.Project, filter.Task)
		}
		scope = prefix
		forwarded.Task = task
	}

	records := make([]record.Record, 0, 32)
	for _, route := range d.routes {
		if scope != "" && route.Prefix != scope {
			continue
		}
		d.logger.Debug("routing filter", "prefix", route.Prefix)
		for rec, err := range route.Driver.GetFilteredEntries(ctx, forwarded) {
			if err != nil {
				return nil, fmt.Errorf("%s: %w", route.Prefix, err)
			}
			records = append(records, prefixRecord(route.Prefix, rec))
		}
	}
	return records, nil
}

func (d *Driver) GetProjects(ctx context.Context) ([]string, error) {
	projects := make([]string, 0, 16)
	for _, route := range d.routes {
		names, err := route.Driver.GetProjects(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", route.Prefix, err)
		}
		projects = append(projects, prefixAll(route.Prefix, names)...)
	}
	return projects, nil
}

func (d *Driver) GetTasks(ctx context.Context, project string) ([]string, error) {
	if strings.TrimSpace(project) != "" {
		prefix, name, err := d.split(project)
		if err != nil {
			return nil, err
		}
		tasks, err := d.byName[prefix].GetTasks(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", prefix, err)
		}
		return prefixAll(prefix, tasks), nil
	}

	tasks := make([]string, 0, 16)
	for _, route := range d.routes {
		names, err := route.Driver.GetTasks(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", route.Prefix, err)
		}
		tasks = append(tasks, prefixAll(route.Prefix, names)...)
	}
	return tasks, nil
}

// split separates prefix_name at the first underscore and checks the prefix
// names a route.
func (d *Driver) split(value string) (string, string, error) {
	prefix, name, ok := strings.Cut(strings.TrimSpace(value), "_")
	if !ok {
		return "", "", fmt.Errorf("%w: %q has no prefix_ (known: %s)", driver.ErrUnknownPrefix, value, strings.Join(d.Prefixes(), ", "))
	}
	if _, known := d.byName[prefix]; !known {
		return "", "", fmt.Errorf("%w: %q (known: %s)", driver.ErrUnknownPrefix, prefix, strings.Join(d.Prefixes(), ", "))
	}
	return prefix, name, nil
}

func prefixRecord(prefix string, rec record.Record) record.Record {
	if rec.ID != "" {
		rec.ID = prefix + "_" + rec.ID
	}
	rec.Project = prefix + "_" + rec.Project
	if rec.Task != "" {
		rec.Task = prefix + "_" + rec.Task
	}
	return rec
}

func prefixAll(prefix string, values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, prefix+"_"+value)
	}
	return out
}
