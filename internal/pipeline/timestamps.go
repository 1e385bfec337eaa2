package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"riprocess-image-list/internal/model"
)

// RecordSeparator separates the timestamp from the identifier in a
// timestamp file line.
const RecordSeparator = ";"

const maxRecordLine = 1 << 20

// Accepted timestamp layouts. Zone-less forms are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses a timestamp field in one of the accepted layouts.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a timestamp", s)
}

// ListTimestampFiles lists the timestamp files directly inside dir, sorted by
// name and narrowed to [first, last]. Hidden files are ignored; when pattern
// is set only matching names are considered.
func ListTimestampFiles(dir string, first, last *string, pattern *regexp.Regexp) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, model.IOError(dir, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if pattern != nil && !pattern.MatchString(name) {
			continue
		}
		regular, err := isRegularFile(filepath.Join(dir, name), e)
		if err != nil {
			return nil, model.IOError(filepath.Join(dir, name), err)
		}
		if regular {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, &model.PipelineError{Kind: model.ErrNoTimestampFilesFound, Path: dir}
	}

	sort.Strings(names)
	selected, err := FilterRange(names, func(s string) string { return s }, first, last)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, &model.PipelineError{
			Kind: model.ErrNoTimestampFilesFound,
			Path: dir,
			Msg:  fmt.Sprintf("first file %q sorts after last file %q", *first, *last),
		}
	}

	paths := make([]string, len(selected))
	for i, name := range selected {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// ReadRecords parses every file in order and concatenates their records.
func ReadRecords(paths []string) ([]model.TimestampRecord, error) {
	var records []model.TimestampRecord
	for _, p := range paths {
		recs, err := readRecordFile(p)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

func readRecordFile(path string) ([]model.TimestampRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, model.IOError(path, err)
	}
	defer file.Close()
	return parseRecords(file, path)
}

// parseRecords reads "<timestamp>;<identifier>" lines. Blank lines and lines
// starting with '#' are skipped. Quotes carry no meaning.
func parseRecords(r io.Reader, path string) ([]model.TimestampRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordLine)

	var records []model.TimestampRecord
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		fields := strings.Split(text, RecordSeparator)
		if len(fields) != 2 {
			return nil, model.MalformedRecord(path, line, "expected 2 fields separated by %q", RecordSeparator)
		}
		ts, err := ParseTimestamp(fields[0])
		if err != nil {
			return nil, model.MalformedRecord(path, line, "%v", err)
		}
		ident := strings.TrimSpace(fields[1])
		if ident == "" {
			return nil, model.MalformedRecord(path, line, "empty identifier")
		}
		records = append(records, model.TimestampRecord{
			Time:       ts,
			Ident:      ident,
			SourcePath: path,
			Line:       line,
		})
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, model.MalformedRecord(path, line+1, "line longer than %d bytes", maxRecordLine)
		}
		return nil, model.IOError(path, err)
	}
	return records, nil
}
