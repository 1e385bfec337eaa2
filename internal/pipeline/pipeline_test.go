package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"riprocess-image-list/internal/model"
)

type fakeRunStore struct {
	fakePairStore
	runs     map[string]model.Run
	errs     map[string]error
	statuses []string
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{runs: map[string]model.Run{}, errs: map[string]error{}}
}

func (f *fakeRunStore) SaveRun(_ context.Context, run model.Run) error {
	f.runs[run.ID] = run
	f.statuses = append(f.statuses, run.Status)
	return nil
}

func (f *fakeRunStore) UpdateRunStatus(_ context.Context, runID, status string, pairCount int) error {
	run, ok := f.runs[runID]
	if !ok {
		return errors.New("unknown run")
	}
	run.Status = status
	run.PairCount = pairCount
	f.runs[runID] = run
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeRunStore) SaveRunError(_ context.Context, runID string, err error) error {
	f.errs[runID] = err
	f.statuses = append(f.statuses, model.RunStatusFailed)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_WritesListAndRecordsRun(t *testing.T) {
	f := newFixture(t)
	touch(t, f.images, "IMG_0001.jpg", "IMG_0002.jpg")
	write(t, filepath.Join(f.timestamps, "a.txt"), timestampFile(start, "a", 2))
	cfg := baseConfig(f)
	cfg.Output.File = filepath.Join(f.root, "out", "list.txt")

	rs := newFakeRunStore()
	res, err := Run(context.Background(), cfg, RunOptions{RunID: "run-1", ConfigPath: "cfg.toml", Store: rs, Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	if res.RunID != "run-1" || len(res.Pairs) != 2 || len(res.Exports) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	data, err := os.ReadFile(cfg.Output.File)
	if err != nil {
		t.Fatal(err)
	}
	want := "2017-06-21T20:00:00.000000Z;" + filepath.Join(f.images, "IMG_0001.jpg") + "\n" +
		"2017-06-21T20:00:01.000000Z;" + filepath.Join(f.images, "IMG_0002.jpg") + "\n"
	if string(data) != want {
		t.Fatalf("got:\n%s\nwant:\n%s", data, want)
	}

	run := rs.runs["run-1"]
	if run.Status != model.RunStatusCompleted || run.PairCount != 2 || run.ConfigPath != "cfg.toml" {
		t.Fatalf("unexpected run %+v", run)
	}
	if rs.runID != "run-1" || len(rs.pairs) != 2 {
		t.Fatalf("pairs not stored: %q %d", rs.runID, len(rs.pairs))
	}

	m := res.Metrics
	if m.Images != 2 || m.Timestamps != 2 || m.Pairs != 2 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	var stages []string
	for _, s := range m.Stages {
		stages = append(stages, s.Stage+":"+s.Status)
	}
	if got := strings.Join(stages, ","); got != "images:completed,timestamps:completed,export:completed" {
		t.Fatalf("unexpected stages %s", got)
	}
}

func TestRun_GeneratesRunID(t *testing.T) {
	f := newFixture(t)
	touch(t, f.images, "IMG_0001.jpg")
	write(t, filepath.Join(f.timestamps, "a.txt"), timestampFile(start, "a", 1))

	res, err := Run(context.Background(), baseConfig(f), RunOptions{Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.RunID) != 36 {
		t.Fatalf("expected a UUID run ID, got %q", res.RunID)
	}
	if len(res.Exports) != 0 {
		t.Fatalf("no export targets configured, got %+v", res.Exports)
	}
}

func TestRun_MismatchProducesNoOutput(t *testing.T) {
	f := newFixture(t)
	touch(t, f.images, "IMG_0001.jpg", "IMG_0002.jpg", "IMG_0003.jpg")
	write(t, filepath.Join(f.timestamps, "a.txt"), timestampFile(start, "a", 2))
	cfg := baseConfig(f)
	cfg.Output.File = filepath.Join(f.root, "list.txt")

	rs := newFakeRunStore()
	res, err := Run(context.Background(), cfg, RunOptions{RunID: "run-2", Store: rs, Logger: quietLogger()})
	if !errors.Is(err, model.ErrCountMismatch) {
		t.Fatalf("expected ErrCountMismatch, got %v", err)
	}
	if res.RunID != "run-2" || res.Pairs != nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, statErr := os.Stat(cfg.Output.File); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("output file must not exist, stat: %v", statErr)
	}
	if !errors.Is(rs.errs["run-2"], model.ErrCountMismatch) {
		t.Fatalf("run error not recorded: %v", rs.errs["run-2"])
	}
	if rs.pairs != nil {
		t.Fatal("pairs must not be stored for a failed run")
	}
	if got := strings.Join(rs.statuses, ","); got != "running,failed" {
		t.Fatalf("unexpected status transitions %s", got)
	}
}

func TestRun_InvalidPattern(t *testing.T) {
	f := newFixture(t)
	cfg := baseConfig(f)
	cfg.Timestamps.Pattern = "("
	_, err := Run(context.Background(), cfg, RunOptions{Logger: quietLogger()})
	if !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	f := newFixture(t)
	touch(t, f.images, "IMG_0001.jpg")
	write(t, filepath.Join(f.timestamps, "a.txt"), timestampFile(start, "a", 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rs := newFakeRunStore()
	_, err := Run(ctx, baseConfig(f), RunOptions{RunID: "run-3", Store: rs, Logger: quietLogger()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !errors.Is(rs.errs["run-3"], context.Canceled) {
		t.Fatal("cancellation must still be recorded")
	}
}

func TestTracker_NilIsSafe(t *testing.T) {
	var tr *Tracker
	h := tr.StartStage("images", 1)
	tr.EndStage(h, 3)
	tr.FailStage(h)
	tr.Complete(3)
	if m := tr.Metrics(); m.Pairs != 0 || m.Stages != nil {
		t.Fatalf("nil tracker recorded %+v", m)
	}
}

func TestTracker_FailedStage(t *testing.T) {
	tr := NewTracker("r", quietLogger())
	h := tr.StartStage("timestamps", 2)
	time.Sleep(time.Millisecond)
	tr.FailStage(h)
	m := tr.Metrics()
	if len(m.Stages) != 1 || m.Stages[0].Status != "failed" || m.Stages[0].Group != 2 || m.Stages[0].Duration <= 0 {
		t.Fatalf("unexpected stage %+v", m.Stages)
	}
	if m.Timestamps != 0 {
		t.Fatal("failed stage must not add to totals")
	}
}
