package model

import "time"

// Run statuses as stored in the run ledger.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one pipeline invocation as recorded in the run ledger.
type Run struct {
	ID         string    `json:"id"`
	ConfigPath string    `json:"config_path,omitempty"`
	Status     string    `json:"status"`
	PairCount  int       `json:"pair_count"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StageMetrics represents metrics for a specific pipeline stage
type StageMetrics struct {
	Stage            string        `json:"stage"`
	Group            int           `json:"group,omitempty"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Duration         time.Duration `json:"duration"`
	RecordsProcessed int           `json:"records_processed"`
	Status           string        `json:"status"` // "running", "completed", "failed"
}

// RunMetrics represents overall run timing and counts
type RunMetrics struct {
	RunID      string         `json:"run_id"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	Duration   time.Duration  `json:"duration"`
	Images     int            `json:"images"`
	Timestamps int            `json:"timestamps"`
	Pairs      int            `json:"pairs"`
	Stages     []StageMetrics `json:"stages"`
}
