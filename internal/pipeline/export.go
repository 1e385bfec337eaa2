package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"riprocess-image-list/internal/model"
)

// TimestampLayout renders output timestamps with fixed microsecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Emit writes one "<timestamp>;<image_path>" line per pair. The whole list is
// rendered before the single write, so w never sees a partial list.
func Emit(w io.Writer, pairs []model.OutputPair) error {
	var buf bytes.Buffer
	for _, p := range pairs {
		buf.WriteString(FormatTimestamp(p.Time))
		buf.WriteByte(';')
		buf.WriteString(p.ImagePath)
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// PairStore persists the pairs of a run.
type PairStore interface {
	SavePairs(ctx context.Context, runID string, pairs []model.OutputPair) error
}

// ExportManager handles data export operations
type ExportManager struct {
	RunID  string
	Spec   model.OutputConfig
	Store  PairStore
	Logger *slog.Logger
}

// Export writes pairs to every configured target and reports one result per
// target. The first failing target stops the export.
func (em *ExportManager) Export(ctx context.Context, pairs []model.OutputPair) ([]model.ExportResult, error) {
	var results []model.ExportResult

	if em.Spec.File != "" {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result := em.exportToFile(pairs)
		results = append(results, result)
		if !result.Success {
			return results, fmt.Errorf("export to %s: %s", result.Path, result.Error)
		}
	}

	if em.Store != nil {
		result := em.exportToDatabase(ctx, pairs)
		results = append(results, result)
		if !result.Success {
			return results, fmt.Errorf("export to database: %s", result.Error)
		}
	}

	return results, nil
}

// exportToFile exports data to a file (CSV, JSON or the ';' list)
func (em *ExportManager) exportToFile(pairs []model.OutputPair) model.ExportResult {
	var buf bytes.Buffer
	var err error

	switch strings.ToLower(filepath.Ext(em.Spec.File)) {
	case ".csv":
		err = writeCSV(&buf, pairs)
	case ".json":
		err = writeJSON(&buf, pairs)
	default:
		err = Emit(&buf, pairs)
	}
	if err == nil {
		err = writeFileAtomic(em.Spec.File, buf.Bytes())
	}

	result := model.ExportResult{
		Type:        "file",
		Path:        em.Spec.File,
		RecordCount: len(pairs),
		Success:     err == nil,
		ExportedAt:  time.Now(),
	}
	if err != nil {
		result.RecordCount = 0
		result.Error = err.Error()
		em.logger().Error("export to file failed", "path", em.Spec.File, "err", err)
	} else {
		em.logger().Info("export to file completed", "path", em.Spec.File, "count", len(pairs))
	}
	return result
}

func (em *ExportManager) exportToDatabase(ctx context.Context, pairs []model.OutputPair) model.ExportResult {
	err := em.Store.SavePairs(ctx, em.RunID, pairs)
	result := model.ExportResult{
		Type:        "database",
		Path:        em.Spec.DB,
		RecordCount: len(pairs),
		Success:     err == nil,
		ExportedAt:  time.Now(),
	}
	if err != nil {
		result.RecordCount = 0
		result.Error = err.Error()
		em.logger().Error("export to database failed", "path", em.Spec.DB, "err", err)
	} else {
		em.logger().Info("export to database completed", "path", em.Spec.DB, "count", len(pairs))
	}
	return result
}

func (em *ExportManager) logger() *slog.Logger {
	if em.Logger == nil {
		return slog.Default()
	}
	return em.Logger
}

func writeCSV(w io.Writer, pairs []model.OutputPair) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"timestamp", "image_path", "group", "ident"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, p := range pairs {
		row := []string{FormatTimestamp(p.Time), p.ImagePath, strconv.Itoa(p.Group), p.Ident}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

type jsonPair struct {
	Timestamp string `json:"timestamp"`
	ImagePath string `json:"image_path"`
	Group     int    `json:"group"`
	Ident     string `json:"ident,omitempty"`
}

func writeJSON(w io.Writer, pairs []model.OutputPair) error {
	out := make([]jsonPair, len(pairs))
	for i, p := range pairs {
		out[i] = jsonPair{Timestamp: FormatTimestamp(p.Time), ImagePath: p.ImagePath, Group: p.Group, Ident: p.Ident}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
