package model

import "time"

// ImageConfig describes where the camera images live and which of them to use.
type ImageConfig struct {
	Path       string   `json:"path" yaml:"path" toml:"path"`
	FirstImage *int     `json:"first_image,omitempty" yaml:"first_image" toml:"first_image"` // inclusive, nil = first in directory
	LastImage  *int     `json:"last_image,omitempty" yaml:"last_image" toml:"last_image"`    // inclusive, nil = last in directory
	Pattern    string   `json:"pattern,omitempty" yaml:"pattern" toml:"pattern"`             // regexp with an "index" group
	Extensions []string `json:"extensions,omitempty" yaml:"extensions" toml:"extensions"`    // e.g. [".jpg", ".jpeg"]
}

// TimestampConfig describes where the timestamp files live and which of them to read.
type TimestampConfig struct {
	Path      string  `json:"path" yaml:"path" toml:"path"`
	FirstFile *string `json:"first_timestamp_file,omitempty" yaml:"first_timestamp_file" toml:"first_timestamp_file"`
	LastFile  *string `json:"last_timestamp_file,omitempty" yaml:"last_timestamp_file" toml:"last_timestamp_file"`
	Pattern   string  `json:"pattern,omitempty" yaml:"pattern" toml:"pattern"` // optional filename filter
}

// RecordGroup is one camera record: a declared start time plus optional
// range markers that override the config-level ones.
type RecordGroup struct {
	StartTime          time.Time `json:"start_time" yaml:"start_time" toml:"start_time"`
	FirstImage         *int      `json:"first_image,omitempty" yaml:"first_image" toml:"first_image"`
	LastImage          *int      `json:"last_image,omitempty" yaml:"last_image" toml:"last_image"`
	FirstTimestampFile *string   `json:"first_timestamp_file,omitempty" yaml:"first_timestamp_file" toml:"first_timestamp_file"`
	LastTimestampFile  *string   `json:"last_timestamp_file,omitempty" yaml:"last_timestamp_file" toml:"last_timestamp_file"`
}

// OutputConfig defines optional export targets besides standard output.
type OutputConfig struct {
	File string `json:"file,omitempty" yaml:"file" toml:"file"` // .csv, .json or text
	DB   string `json:"db,omitempty" yaml:"db" toml:"db"`       // sqlite database path
}

// Config is the complete, immutable description of one image-list run.
type Config struct {
	Images     ImageConfig     `json:"images" yaml:"images" toml:"images"`
	Timestamps TimestampConfig `json:"timestamps" yaml:"timestamps" toml:"timestamps"`
	Records    []RecordGroup   `json:"records" yaml:"records" toml:"records"`
	Output     OutputConfig    `json:"output" yaml:"output" toml:"output"`
}

// ImageRange returns the effective image markers for group g.
func (c Config) ImageRange(g RecordGroup) (first, last *int) {
	first, last = c.Images.FirstImage, c.Images.LastImage
	if g.FirstImage != nil {
		first = g.FirstImage
	}
	if g.LastImage != nil {
		last = g.LastImage
	}
	return first, last
}

// TimestampRange returns the effective timestamp file markers for group g.
func (c Config) TimestampRange(g RecordGroup) (first, last *string) {
	first, last = c.Timestamps.FirstFile, c.Timestamps.LastFile
	if g.FirstTimestampFile != nil {
		first = g.FirstTimestampFile
	}
	if g.LastTimestampFile != nil {
		last = g.LastTimestampFile
	}
	return first, last
}
