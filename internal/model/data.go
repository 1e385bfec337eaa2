package model

import "time"

// ImageFile is a numbered camera image.
type ImageFile struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Path  string `json:"path"`
}

// TimestampRecord is one line of a timestamp file.
type TimestampRecord struct {
	Time       time.Time `json:"time"`
	Ident      string    `json:"ident"`
	SourcePath string    `json:"source_path"`
	Line       int       `json:"line"`
}

// OutputPair links an image to the time it was taken.
type OutputPair struct {
	Time      time.Time `json:"timestamp"`
	ImagePath string    `json:"image_path"`
	Group     int       `json:"group"` // 1-based record group number
	Ident     string    `json:"ident,omitempty"`
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "file" or "database"
	Path        string    `json:"path"` // file path or database path
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	ExportedAt  time.Time `json:"exported_at"`
}
