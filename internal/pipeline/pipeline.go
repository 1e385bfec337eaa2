package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"riprocess-image-list/internal/model"
)

// RunStore is the run ledger used when a database is configured.
type RunStore interface {
	PairStore
	SaveRun(ctx context.Context, run model.Run) error
	UpdateRunStatus(ctx context.Context, runID, status string, pairCount int) error
	SaveRunError(ctx context.Context, runID string, err error) error
}

// RunOptions configures one Run.
type RunOptions struct {
	RunID      string // generated when empty
	ConfigPath string // recorded in the ledger only
	Store      RunStore
	Logger     *slog.Logger
}

// Result is the outcome of a successful run.
type Result struct {
	RunID   string
	Pairs   []model.OutputPair
	Exports []model.ExportResult
	Metrics model.RunMetrics
}

// Run executes the pipeline for cfg: enumerate and pair every record group,
// then export to the configured targets. Nothing is exported unless every
// group assembled successfully. The returned Result carries the run ID even
// on failure.
func Run(ctx context.Context, cfg model.Config, opts RunOptions) (res *Result, err error) {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	res = &Result{RunID: runID}
	logger = logger.With("run_id", runID)
	logger.Info("starting run", "groups", len(cfg.Records), "image_dir", cfg.Images.Path, "timestamp_dir", cfg.Timestamps.Path)

	if opts.Store != nil {
		if err := opts.Store.SaveRun(ctx, model.Run{ID: runID, ConfigPath: opts.ConfigPath, Status: model.RunStatusRunning}); err != nil {
			return res, err
		}
		defer func() {
			if err != nil {
				if serr := opts.Store.SaveRunError(context.WithoutCancel(ctx), runID, err); serr != nil {
					logger.Warn("failed to record run error", "err", serr)
				}
			}
		}()
	}

	tracker := NewTracker(runID, logger)
	defer func() { res.Metrics = tracker.Metrics() }()

	popts, err := NewOptions(cfg, logger)
	if err != nil {
		return res, err
	}
	popts.Tracker = tracker

	if err := ctx.Err(); err != nil {
		return res, err
	}
	pairs, err := Assemble(cfg, popts)
	if err != nil {
		logger.Debug("assemble failed", "kind", model.KindName(err), "err", err)
		return res, err
	}
	res.Pairs = pairs

	if err := ctx.Err(); err != nil {
		return res, err
	}
	exporter := &ExportManager{RunID: runID, Spec: cfg.Output, Logger: logger}
	if opts.Store != nil {
		exporter.Store = opts.Store
	}
	stage := tracker.StartStage("export", 0)
	res.Exports, err = exporter.Export(ctx, pairs)
	if err != nil {
		tracker.FailStage(stage)
		return res, err
	}
	tracker.EndStage(stage, len(pairs))

	if opts.Store != nil {
		if err := opts.Store.UpdateRunStatus(ctx, runID, model.RunStatusCompleted, len(pairs)); err != nil {
			return res, err
		}
	}
	tracker.Complete(len(pairs))
	return res, nil
}
