// Package model holds the shared data types for jobs, batch reports, and
// runtime options.
package model

import (
	"sort"

	"github.com/google/uuid"
)

// Mode selects what gets downloaded for a job.
type Mode string

const (
	ModeAudio Mode = "audio" // extract audio, convert to MP3, tag
	ModeVideo Mode = "video" // download video as MP4
)

// Quality is a named video quality selector mapped to a yt-dlp format string.
type Quality string

const (
	QualityBest  Quality = "best"
	Quality1080p Quality = "1080p"
	Quality720p  Quality = "720p"
	Quality480p  Quality = "480p"
	QualityWorst Quality = "worst"
)

// ValidQuality reports whether q is one of the known quality selectors.
func ValidQuality(q Quality) bool {
	switch q {
	case QualityBest, Quality1080p, Quality720p, Quality480p, QualityWorst:
		return true
	}
	return false
}

// Job is one unit of work: a single media item to retrieve.
// Jobs are immutable once created.
type Job struct {
	Ordinal int    // 1-based position in the submitted batch
	ID      string // unique job ID for progress correlation
	URL     string
	Title   string // display title; may be empty until metadata is fetched
	OutDir  string
	Quality Quality
	Mode    Mode
}

// NewJob constructs a Job with a fresh ID.
func NewJob(ordinal int, url, title, outDir string, quality Quality, mode Mode) Job {
	return Job{
		Ordinal: ordinal,
		ID:      uuid.New().String(),
		URL:     url,
		Title:   title,
		OutDir:  outDir,
		Quality: quality,
		Mode:    mode,
	}
}

// Outcome is the terminal state of a job.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// JobResult records the terminal state of one job.
type JobResult struct {
	Job        Job
	Outcome    Outcome
	OutputPath string // set on success
	Err        error  // set on failure
	Attempts   int    // attempts consumed (0 if never started)
}

// BatchReport is the ordered, immutable record of a finished batch.
// Results are ordered by the originating job's ordinal regardless of
// completion order. Aggregate counts are derived, never stored.
type BatchReport struct {
	results []JobResult
}

// NewBatchReport assembles a report from per-job results, sorting them by
// ordinal position.
func NewBatchReport(results []JobResult) BatchReport {
	rs := make([]JobResult, len(results))
	copy(rs, results)
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Job.Ordinal < rs[j].Job.Ordinal
	})
	return BatchReport{results: rs}
}

// Results returns a copy of the per-job results in ordinal order.
func (r BatchReport) Results() []JobResult {
	rs := make([]JobResult, len(r.results))
	copy(rs, r.results)
	return rs
}

// Len returns the total number of jobs in the report.
func (r BatchReport) Len() int { return len(r.results) }

// Succeeded returns the number of jobs that completed successfully.
func (r BatchReport) Succeeded() int { return r.count(OutcomeSucceeded) }

// Failed returns the number of jobs that exhausted retries or failed
// permanently.
func (r BatchReport) Failed() int { return r.count(OutcomeFailed) }

// Cancelled returns the number of jobs that never ran because the batch was
// cancelled.
func (r BatchReport) Cancelled() int { return r.count(OutcomeCancelled) }

func (r BatchReport) count(o Outcome) int {
	n := 0
	for i := range r.results {
		if r.results[i].Outcome == o {
			n++
		}
	}
	return n
}

// TrackMeta is the tag metadata applied to a downloaded MP3.
type TrackMeta struct {
	Title     string
	Artist    string
	Album     string
	Year      string
	Genre     string
	Thumbnail string // cover art URL, optional
}

// CLIOptions holds user-configurable runtime options as parsed from flags.
type CLIOptions struct {
	OutDir      string
	Mode        Mode
	Quality     Quality // video mode only
	Jobs        int     // max concurrent downloads
	Retries     int     // attempts per job
	RetryDelay  int     // seconds between transient retries
	SkipTags    bool    // leave MP3s untagged
	EmbedCover  bool    // embed thumbnail as front cover
	CookiesFrom string  // browser to read cookies from ("" = none)
	KeepTemp    bool
	DLBinary    string // explicit path to yt-dlp/youtube-dl
	Verbose     bool

	NoUI bool // disable TUI even on a terminal
}
