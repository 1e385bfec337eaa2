package pipeline

import (
	"log/slog"
	"time"

	"riprocess-image-list/internal/model"
)

// Tracker records per-stage timings for one run and logs stage transitions.
// A nil *Tracker is valid and records nothing.
type Tracker struct {
	logger  *slog.Logger
	metrics model.RunMetrics
}

// NewTracker creates a tracker for runID.
func NewTracker(runID string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		logger: logger.With("run_id", runID),
		metrics: model.RunMetrics{
			RunID:     runID,
			StartTime: time.Now(),
		},
	}
}

// StartStage marks the start of a stage and returns a handle for EndStage.
func (t *Tracker) StartStage(stage string, group int) int {
	if t == nil {
		return -1
	}
	t.metrics.Stages = append(t.metrics.Stages, model.StageMetrics{
		Stage:     stage,
		Group:     group,
		StartTime: time.Now(),
		Status:    "running",
	})
	t.logger.Debug("stage started", "stage", stage, "group", group)
	return len(t.metrics.Stages) - 1
}

// EndStage marks a stage completed with the number of items it produced.
func (t *Tracker) EndStage(handle int, records int) {
	s := t.stage(handle)
	if s == nil {
		return
	}
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
	s.RecordsProcessed = records
	s.Status = "completed"

	switch s.Stage {
	case "images":
		t.metrics.Images += records
	case "timestamps":
		t.metrics.Timestamps += records
	}
	t.logger.Debug("stage completed", "stage", s.Stage, "group", s.Group, "count", records, "duration", s.Duration)
}

// FailStage marks a stage failed.
func (t *Tracker) FailStage(handle int) {
	s := t.stage(handle)
	if s == nil {
		return
	}
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
	s.Status = "failed"
	t.logger.Debug("stage failed", "stage", s.Stage, "group", s.Group, "duration", s.Duration)
}

// Complete closes the run with the final pair count.
func (t *Tracker) Complete(pairs int) {
	if t == nil {
		return
	}
	t.metrics.EndTime = time.Now()
	t.metrics.Duration = t.metrics.EndTime.Sub(t.metrics.StartTime)
	t.metrics.Pairs = pairs
	t.logger.Info("run completed",
		"images", t.metrics.Images,
		"timestamps", t.metrics.Timestamps,
		"pairs", pairs,
		"duration", t.metrics.Duration,
	)
}

// Metrics returns a copy of the collected metrics.
func (t *Tracker) Metrics() model.RunMetrics {
	if t == nil {
		return model.RunMetrics{}
	}
	m := t.metrics
	m.Stages = append([]model.StageMetrics(nil), t.metrics.Stages...)
	return m
}

func (t *Tracker) stage(handle int) *model.StageMetrics {
	if t == nil || handle < 0 || handle >= len(t.metrics.Stages) {
		return nil
	}
	return &t.metrics.Stages[handle]
}
