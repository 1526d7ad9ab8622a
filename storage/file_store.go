package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"timetrack/driver"
	"timetrack/record"
)

var ErrMissingTrackFile = errors.New("track_file is required")

type FileConfig struct {
	TrackFile string
	Logger    *slog.Logger
	Now       func() time.Time
}

// FileStore keeps one JSON record per line. A record's id is its 1-based line
// number, so deleting a line renumbers every record after it.
type FileStore struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

var _ driver.Driver = (*FileStore)(nil)

func OpenFileStore(cfg FileConfig) (*FileStore, error) {
	path := strings.TrimSpace(cfg.TrackFile)
	if path == "" {
		return nil, ErrMissingTrackFile
	}
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &FileStore{path: path, logger: logger, now: now}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) AddEntry(ctx context.Context, req driver.AddRequest) (record.Record, error) {
	minutes, err := driver.NormalizeMinutes(req.Time)
	if err != nil {
		return record.Record{}, err
	}

	rec := record.Record{
		Date:    driver.ResolveDay(req.When, s.now),
		Project: req.Project,
		Time:    record.Minutes(minutes),
		Comment: record.JoinComment(req.Comment),
		Task:    strings.TrimSpace(req.Task),
	}

	lines, terminated, err := s.countLines()
	if err != nil {
		return record.Record{}, err
	}

	encoded, err := encodeLine(rec)
	if err != nil {
		return record.Record{}, err
	}
	if !terminated {
		encoded = append([]byte{'\n'}, encoded...)
	}

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return record.Record{}, fmt.Errorf("open track file %s: %w", s.path, err)
	}
	if _, err := file.Write(append(encoded, '\n')); err != nil {
		_ = file.Close()
		return record.Record{}, fmt.Errorf("append entry to %s: %w", s.path, err)
	}
	if err := file.Close(); err != nil {
		return record.Record{}, fmt.Errorf("close track file %s: %w", s.path, err)
	}

	rec.ID = strconv.Itoa(lines + 1)
	s.logger.Debug("appended entry", "path", s.path, "id", rec.ID, "project", rec.Project, "minutes", minutes)
	return rec, nil
}

func (s *FileStore) UpdateEntry(ctx context.Context, id string, duration string) error {
	index, ok := lineIndex(id)
	if !ok {
		return fmt.Errorf("%w: id %q", driver.ErrEntryNotFound, id)
	}

	lines, err := s.readLines()
	if err != nil {
		return err
	}
	if index >= len(lines) {
		return fmt.Errorf("%w: id %q", driver.ErrEntryNotFound, id)
	}

	rec, err := decodeLine(lines[index], index)
	if err != nil {
		return err
	}

	minutes, err := driver.NormalizeMinutes(duration)
	if err != nil {
		return err
	}
	rec.Time += record.Minutes(minutes)

	encoded, err := replaceTime(lines[index], rec.Time)
	if err != nil {
		return fmt.Errorf("rewrite entry on line %d: %w", index+1, err)
	}
	lines[index] = encoded

	if err := s.rewrite(lines); err != nil {
		return err
	}
	s.logger.Debug("updated entry", "path", s.path, "id", id, "added_minutes", minutes, "total_minutes", int(rec.Time))
	return nil
}

func (s *FileStore) DeleteEntry(ctx context.Context, id string) (bool, error) {
	index, ok := lineIndex(id)
	if !ok {
		s.logger.Debug("ignoring delete of non-positional id", "id", id)
		return false, nil
	}

	lines, err := s.readLines()
	if err != nil {
		return false, err
	}
	if index >= len(lines) {
		return false, nil
	}

	kept := append(lines[:index:index], lines[index+1:]...)
	if err := s.rewrite(kept); err != nil {
		return false, err
	}
	s.logger.Debug("deleted entry", "path", s.path, "id", id, "remaining", len(kept))
	return true, nil
}

func (s *FileStore) GetFilteredEntries(ctx context.Context, filter driver.Filter) iter.Seq2[record.Record, error] {
	return func(yield func(record.Record, error) bool) {
		file, err := os.Open(s.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return
			}
			yield(record.Record{}, fmt.Errorf("open track file %s: %w", s.path, err))
			return
		}
		defer file.Close()

		reader := bufio.NewReader(file)
		for index := 0; ; index++ {
			if err := ctx.Err(); err != nil {
				yield(record.Record{}, err)
				return
			}

			line, err := readLine(reader)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(record.Record{}, fmt.Errorf("read track file %s: %w", s.path, err))
				return
			}

			rec, err := decodeLine(line, index)
			if err != nil {
				yield(record.Record{}, err)
				return
			}
			if !filter.Matches(rec) {
				continue
			}

			rec.ID = strconv.Itoa(index + 1)
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (s *FileStore) GetProjects(ctx context.Context) ([]string, error) {
	projects := make([]string, 0, 16)
	seen := make(map[string]struct{})
	for rec, err := range s.GetFilteredEntries(ctx, driver.Filter{}) {
		if err != nil {
			return nil, err
		}
		if _, ok := seen[rec.Project]; ok {
			continue
		}
		seen[rec.Project] = struct{}{}
		projects = append(projects, rec.Project)
	}
	return projects, nil
}

func (s *FileStore) GetTasks(ctx context.Context, project string) ([]string, error) {
	tasks := make([]string, 0, 16)
	seen := make(map[string]struct{})
	for rec, err := range s.GetFilteredEntries(ctx, driver.Filter{}) {
		if err != nil {
			return nil, err
		}
		if rec.Task == "" || (project != "" && rec.Project != project) {
			continue
		}
		if _, ok := seen[rec.Task]; ok {
			continue
		}
		seen[rec.Task] = struct{}{}
		tasks = append(tasks, rec.Task)
	}
	return tasks, nil
}

// readLines returns every raw line without its terminator. A missing file
// reads as an empty store.
func (s *FileStore) readLines() ([][]byte, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open track file %s: %w", s.path, err)
	}
	defer file.Close()

	lines := make([][]byte, 0, 128)
	reader := bufio.NewReader(file)
	for {
		line, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read track file %s: %w", s.path, err)
		}
		lines = append(lines, line)
	}
}

// countLines reports the number of stored lines and whether the file ends
// with a newline (true for a missing or empty file).
func (s *FileStore) countLines() (int, bool, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, true, nil
		}
		return 0, false, fmt.Errorf("read track file %s: %w", s.path, err)
	}
	if len(content) == 0 {
		return 0, true, nil
	}

	lines := bytes.Count(content, []byte{'\n'})
	terminated := content[len(content)-1] == '\n'
	if !terminated {
		lines++
	}
	return lines, terminated, nil
}

// rewrite replaces the track file with lines via a temp file in the same
// directory.
func (s *FileStore) rewrite(lines [][]byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if info, err := os.Stat(s.path); err == nil {
		_ = tmp.Chmod(info.Mode().Perm())
	}

	writer := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := writer.Write(line); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
			return fmt.Errorf("write temp file %s: %w", tmpPath, err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
			return fmt.Errorf("write temp file %s: %w", tmpPath, err)
		}
	}
	if err := writer.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("flush temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace track file %s: %w", s.path, err)
	}
	return nil
}

func readLine(reader *bufio.Reader) ([]byte, error) {
	line, err := reader.ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return nil, err
	}
	line = bytes.TrimSuffix(line, []byte{'\n'})
	line = bytes.TrimSuffix(line, []byte{'\r'})
	return line, nil
}

func decodeLine(line []byte, index int) (record.Record, error) {
	var rec record.Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return record.Record{}, fmt.Errorf("decode entry on line %d: %w", index+1, err)
	}
	return rec, nil
}

func encodeLine(rec record.Record) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(rec); err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// replaceTime re-encodes a stored object with a new "time" value. Every other
// key keeps its position and raw value.
func replaceTime(line []byte, total record.Minutes) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("entry is not a JSON object")
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	replaced := false
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if key == "time" {
			value = json.RawMessage(strconv.Itoa(int(total)))
			replaced = true
		}
		if err := writeMember(&buf, key, value); err != nil {
			return nil, err
		}
	}
	if !replaced {
		if err := writeMember(&buf, "time", json.RawMessage(strconv.Itoa(int(total)))); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value json.RawMessage) error {
	if buf.Len() > 1 {
		buf.WriteByte(',')
	}
	encodedKey, err := encodeString(key)
	if err != nil {
		return err
	}
	buf.Write(encodedKey)
	buf.WriteByte(':')
	buf.Write(value)
	return nil
}

func encodeString(value string) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// lineIndex converts a 1-based positional id into a 0-based line index.
func lineIndex(id string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
