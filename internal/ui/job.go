package ui

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"tunepull/internal/model"
	"tunepull/internal/progress"
)

type jobState struct {
	job     model.Job
	stage   progress.Stage
	status  string
	err     error
	done    bool
	attempt int

	outputPath string
	bytes      int64
	percent    float64 // -1 means unknown
	speed      string
	eta        string

	spinner spinner.Model
	bar     bubblesprogress.Model

	// Recent stderr lines, kept small.
	logsRing []string
}

func newJobState(job model.Job, styles Styles) jobState {
	sp := spinner.New()
	sp.Style = styles.Spinner
	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(40),
	)
	return jobState{
		job:     job,
		stage:   progress.StageMetadata,
		status:  "Queued",
		percent: -1,
		spinner: sp,
		bar:     bar,
	}
}

func (js *jobState) label() string {
	if js.job.Title != "" {
		return js.job.Title
	}
	return js.job.URL
}
