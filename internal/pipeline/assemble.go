package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"riprocess-image-list/internal/model"
)

// Options carries the compiled, run-wide settings derived from a Config.
type Options struct {
	Images           ImageOptions
	TimestampPattern *regexp.Regexp
	Logger           *slog.Logger
	Tracker          *Tracker
}

// NewOptions compiles the patterns of cfg.
func NewOptions(cfg model.Config, logger *slog.Logger) (Options, error) {
	imgRe, err := CompileImagePattern(cfg.Images.Pattern)
	if err != nil {
		return Options{}, model.InvalidConfigf("%v", err)
	}
	var tsRe *regexp.Regexp
	if cfg.Timestamps.Pattern != "" {
		tsRe, err = regexp.Compile(cfg.Timestamps.Pattern)
		if err != nil {
			return Options{}, model.InvalidConfigf("timestamp pattern %q: %v", cfg.Timestamps.Pattern, err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return Options{
		Images:           ImageOptions{Pattern: imgRe, Extensions: cfg.Images.Extensions},
		TimestampPattern: tsRe,
		Logger:           logger,
	}, nil
}

// Assemble pairs the images of every record group with that group's
// timestamps and concatenates the groups in declaration order.
//
// Each group must select exactly as many images as timestamp records or the
// whole run fails with model.ErrCountMismatch. Groups are never reordered by
// StartTime.
//
// When several groups are declared and none of them names timestamp file
// markers, the selected timestamp files are handed out one per group in
// order; their number must equal the number of groups or the run fails with
// model.ErrRecordCountMismatch.
func Assemble(cfg model.Config, opts Options) ([]model.OutputPair, error) {
	if len(cfg.Records) == 0 {
		return nil, &model.PipelineError{Kind: model.ErrNoRecordGroups, Stage: "assemble"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var fileOf [][]string
	if len(cfg.Records) > 1 && !hasTimestampMarkers(cfg.Records) {
		files, err := ListTimestampFiles(cfg.Timestamps.Path, cfg.Timestamps.FirstFile, cfg.Timestamps.LastFile, opts.TimestampPattern)
		if err != nil {
			return nil, tagStage(err, "timestamps")
		}
		if len(files) != len(cfg.Records) {
			return nil, tagStage(model.RecordCountMismatch(len(files), len(cfg.Records)), "assemble")
		}
		fileOf = make([][]string, len(files))
		for i, f := range files {
			fileOf[i] = []string{f}
		}
	}

	var pairs []model.OutputPair
	for i, group := range cfg.Records {
		groupNo := i + 1
		var files []string
		if fileOf != nil {
			files = fileOf[i]
		}
		groupPairs, err := assembleGroup(cfg, group, groupNo, files, opts, logger)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, groupPairs...)
	}
	return pairs, nil
}

func hasTimestampMarkers(groups []model.RecordGroup) bool {
	for _, g := range groups {
		if g.FirstTimestampFile != nil || g.LastTimestampFile != nil {
			return true
		}
	}
	return false
}

// assembleGroup pairs one group. A nil paths lists the group's timestamp
// files from its markers.
func assembleGroup(cfg model.Config, group model.RecordGroup, groupNo int, paths []string, opts Options, logger *slog.Logger) ([]model.OutputPair, error) {
	firstImage, lastImage := cfg.ImageRange(group)
	stage := opts.Tracker.StartStage("images", groupNo)
	images, err := ListImages(cfg.Images.Path, firstImage, lastImage, opts.Images)
	if err != nil {
		opts.Tracker.FailStage(stage)
		return nil, tagGroup(err, "images", groupNo)
	}
	opts.Tracker.EndStage(stage, len(images))

	stage = opts.Tracker.StartStage("timestamps", groupNo)
	if paths == nil {
		firstFile, lastFile := cfg.TimestampRange(group)
		paths, err = ListTimestampFiles(cfg.Timestamps.Path, firstFile, lastFile, opts.TimestampPattern)
		if err != nil {
			opts.Tracker.FailStage(stage)
			return nil, tagGroup(err, "timestamps", groupNo)
		}
	}
	records, err := ReadRecords(paths)
	if err != nil {
		opts.Tracker.FailStage(stage)
		return nil, tagGroup(err, "timestamps", groupNo)
	}
	opts.Tracker.EndStage(stage, len(records))

	logger.Debug("record group enumerated",
		"group", groupNo,
		"images", len(images),
		"timestamp_files", len(paths),
		"timestamps", len(records),
	)

	if len(images) != len(records) {
		return nil, tagGroup(model.CountMismatch(groupNo, len(images), len(records)), "assemble", groupNo)
	}

	if len(records) > 0 && !group.StartTime.IsZero() && records[0].Time.Before(group.StartTime) {
		logger.Debug("first timestamp precedes record start time",
			"group", groupNo,
			"start_time", group.StartTime,
			"first_timestamp", records[0].Time,
		)
	}

	pairs := make([]model.OutputPair, len(images))
	for j := range images {
		pairs[j] = model.OutputPair{
			Time:      records[j].Time,
			ImagePath: images[j].Path,
			Group:     groupNo,
			Ident:     records[j].Ident,
		}
	}
	return pairs, nil
}

func tagStage(err error, stage string) error {
	var pe *model.PipelineError
	if errors.As(err, &pe) {
		return pe.WithStage(stage)
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// tagGroup stamps the stage and group number onto pipeline errors.
func tagGroup(err error, stage string, groupNo int) error {
	var pe *model.PipelineError
	if !errors.As(err, &pe) {
		return fmt.Errorf("%s: group %d: %w", stage, groupNo, err)
	}
	tagged := pe.WithStage(stage)
	if tagged.Group == 0 {
		if tagged == pe {
			cp := *pe
			tagged = &cp
		}
		tagged.Group = groupNo
	}
	return tagged
}
