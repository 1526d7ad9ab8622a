package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"timetrack/driver"
	"timetrack/internal/classify"
	"timetrack/record"
)

type Result struct {
	FilesProcessed int
	RowsRead       int
	RowsImported   int
	RowsSkipped    int
	RowsDuplicate  int
}

type RunOptions struct {
	// Format overrides extension-based detection for every path.
	Format         string
	DryRun         bool
	// SkipDuplicates drops rows matching an entry already stored on the
	// same day.
	SkipDuplicates bool
	Logger         *slog.Logger
}

// Run reads every path and adds each mapped row through d. Mapping errors
// abort before anything of the failing file is written.
func Run(ctx context.Context, d driver.Driver, paths []string, options RunOptions) (*Result, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	result := &Result{}
	for _, path := range paths {
		sourceFormat, err := inferFormat(path, options.Format)
		if err != nil {
			return result, err
		}
		reader, err := ReaderForFormat(sourceFormat)
		if err != nil {
			return result, err
		}

		rows, err := reader.Read(path)
		if err != nil {
			return result, err
		}

		requests := make([]driver.AddRequest, 0, len(rows))
		for _, row := range rows {
			req, ok, err := MapRow(row)
			if err != nil {
				return result, fmt.Errorf("%s: %w", path, err)
			}
			if !ok {
				result.RowsSkipped++
				continue
			}
			requests = append(requests, req)
		}

		result.FilesProcessed++
		result.RowsRead += len(rows)
		logger.Debug("mapped import file", "path", path, "rows", len(rows), "entries", len(requests))

		if options.SkipDuplicates && len(requests) > 0 {
			existing, err := existingEntries(ctx, d, requests)
			if err != nil {
				return result, fmt.Errorf("%s: %w", path, err)
			}
			var duplicates int
			requests, duplicates = classify.SplitDuplicates(requests, existing)
			result.RowsDuplicate += duplicates
			logger.Debug("skipped duplicate rows", "path", path, "duplicates", duplicates)
		}

		if options.DryRun {
			result.RowsImported += len(requests)
			continue
		}
		for _, req := range requests {
			if _, err := d.AddEntry(ctx, req); err != nil {
				return result, fmt.Errorf("%s: add %s entry on %s: %w", path, req.Project, record.FormatDate(req.When), err)
			}
			result.RowsImported++
		}
	}

	return result, nil
}

// existingEntries loads the stored records spanning the requests' dates.
func existingEntries(ctx context.Context, d driver.Driver, requests []driver.AddRequest) ([]record.Record, error) {
	var start, finish time.Time
	for _, req := range requests {
		if req.When.IsZero() {
			continue
		}
		if start.IsZero() || req.When.Before(start) {
			start = req.When
		}
		if finish.IsZero() || req.When.After(finish) {
			finish = req.When
		}
	}
	if start.IsZero() {
		return nil, nil
	}

	existing, err := driver.Collect(d.GetFilteredEntries(ctx, driver.Filter{Start: start, Finish: finish}))
	if err != nil {
		return nil, fmt.Errorf("load existing entries: %w", err)
	}
	return existing, nil
}
