package progress

import "time"

// Stage identifies a high-level step in a job's lifecycle.
type Stage string

const (
	StageMetadata    Stage = "metadata"
	StageDownloading Stage = "downloading"
	StageConverting  Stage = "converting"
	StageTagging     Stage = "tagging"
	StageRetrying    Stage = "retrying"
	StageCompleted   Stage = "completed"
	StageError       Stage = "error"
	StageCancelled   Stage = "cancelled"
)

// LogStream indicates which stream produced a log line.
type LogStream int

const (
	StreamStdout LogStream = iota
	StreamStderr
)

// Update conveys progress or stage changes for a job.
// Percent is 0..100 when known; negative means unknown.
type Update struct {
	JobID   string
	Stage   Stage
	Percent float64

	ETA     *time.Duration // optional
	Speed   *string        // optional, e.g., "2.5MiB/s"
	Attempt int            // current attempt number, 0 if not applicable
	Message string         // short human-friendly status line
}

// Log is a raw subprocess log line associated with a job.
type Log struct {
	JobID  string
	Stream LogStream
	Line   string
}

// Result is emitted once per job when it reaches a terminal state.
type Result struct {
	JobID      string
	OutputPath string
	Bytes      int64
	Attempts   int
	Err        error // nil on success
}

// Reporter is implemented by the TUI or any observer of job progress.
type Reporter interface {
	Update(u Update)
	Log(l Log)
	Result(r Result)
}
