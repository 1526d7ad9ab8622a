package classify

import (
	"timetrack/driver"
	"timetrack/record"
)

type entryKey struct {
	date    string
	project string
	task    string
	minutes int
	comment string
}

// SplitDuplicates drops candidates that already exist as a record with the
// same date, project, task, minutes and comment. Each existing record absorbs
// at most one candidate. Candidates without a date or with an unparsable
// duration are never duplicates.
func SplitDuplicates(candidates []driver.AddRequest, existing []record.Record) ([]driver.AddRequest, int) {
	remaining := make(map[entryKey]int, len(existing))
	for _, rec := range existing {
		remaining[entryKey{
			date:    rec.Date,
			project: rec.Project,
			task:    rec.Task,
			minutes: int(rec.Time),
			comment: rec.Comment,
		}]++
	}

	toAdd := make([]driver.AddRequest, 0, len(candidates))
	duplicates := 0
	for _, candidate := range candidates {
		key, ok := candidateKey(candidate)
		if ok && remaining[key] > 0 {
			remaining[key]--
			duplicates++
			continue
		}
		toAdd = append(toAdd, candidate)
	}

	return toAdd, duplicates
}

func candidateKey(req driver.AddRequest) (entryKey, bool) {
	if req.When.IsZero() {
		return entryKey{}, false
	}
	minutes, err := driver.NormalizeMinutes(req.Time)
	if err != nil {
		return entryKey{}, false
	}
	return entryKey{
		date:    record.FormatDate(req.When),
		project: req.Project,
		task:    req.Task,
		minutes: minutes,
		comment: record.JoinComment(req.Comment),
	}, true
}
