package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrRangeNotFound         = errors.New("range marker not found")
	ErrMalformedFilename     = errors.New("malformed image filename")
	ErrNoImagesFound         = errors.New("no images found")
	ErrNoTimestampFilesFound = errors.New("no timestamp files found")
	ErrMalformedRecord       = errors.New("malformed timestamp record")
	ErrCountMismatch         = errors.New("image and timestamp counts differ")
	ErrRecordCountMismatch   = errors.New("timestamp file and record group counts differ")
	ErrIO                    = errors.New("file system error")
	ErrInvalidConfig         = errors.New("invalid configuration")
	ErrNoRecordGroups        = errors.New("no record groups configured")
)

// PipelineError carries the context of a failed run: which stage, which
// file and line, which record group.
type PipelineError struct {
	Kind  error
	Stage string
	Path  string
	Line  int
	Group int // 1-based, 0 when not group specific
	Msg   string
	Err   error
}

func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Stage != "" {
		b.WriteString(e.Stage)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Group > 0 {
		b.WriteString(": group ")
		b.WriteString(strconv.Itoa(e.Group))
	}
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
		if e.Line > 0 {
			b.WriteString(":")
			b.WriteString(strconv.Itoa(e.Line))
		}
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *PipelineError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WithStage returns a copy of e tagged with stage, unless one is already set.
func (e *PipelineError) WithStage(stage string) *PipelineError {
	if e.Stage != "" {
		return e
	}
	cp := *e
	cp.Stage = stage
	return &cp
}

// KindName returns a short machine-readable name for the error's kind,
// or "internal" for errors that did not come from the pipeline.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrRangeNotFound):
		return "range_not_found"
	case errors.Is(err, ErrMalformedFilename):
		return "malformed_filename"
	case errors.Is(err, ErrNoImagesFound):
		return "no_images_found"
	case errors.Is(err, ErrNoTimestampFilesFound):
		return "no_timestamp_files_found"
	case errors.Is(err, ErrMalformedRecord):
		return "malformed_record"
	case errors.Is(err, ErrCountMismatch):
		return "count_mismatch"
	case errors.Is(err, ErrRecordCountMismatch):
		return "record_count_mismatch"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, ErrNoRecordGroups):
		return "no_record_groups"
	default:
		return "internal"
	}
}

func RangeNotFound(marker any) error {
	return &PipelineError{Kind: ErrRangeNotFound, Msg: fmt.Sprintf("%v", marker)}
}

func IOError(path string, err error) error {
	return &PipelineError{Kind: ErrIO, Path: path, Err: err}
}

func MalformedRecord(path string, line int, format string, args ...any) error {
	return &PipelineError{Kind: ErrMalformedRecord, Path: path, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func MalformedFilename(path string, format string, args ...any) error {
	return &PipelineError{Kind: ErrMalformedFilename, Path: path, Msg: fmt.Sprintf(format, args...)}
}

func CountMismatch(group, images, timestamps int) error {
	return &PipelineError{
		Kind:  ErrCountMismatch,
		Group: group,
		Msg:   fmt.Sprintf("%d images, %d timestamps", images, timestamps),
	}
}

func RecordCountMismatch(files, groups int) error {
	return &PipelineError{
		Kind: ErrRecordCountMismatch,
		Msg:  fmt.Sprintf("%d timestamp files, %d record groups", files, groups),
	}
}

func InvalidConfigf(format string, args ...any) error {
	return &PipelineError{Kind: ErrInvalidConfig, Stage: "config", Msg: fmt.Sprintf(format, args...)}
}
