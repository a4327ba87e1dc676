package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tunepull/internal/model"
	"tunepull/internal/pipeline"
	"tunepull/internal/progress"
	"tunepull/internal/runner"
	"tunepull/internal/util/deps"
)

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	// Dependency check state.
	depsChecked    bool
	depsErr        error
	downloaderPath string
	ffmpegPath     string

	// Batch state.
	jobs   []model.Job
	opts   model.CLIOptions
	order  []string
	states map[string]*jobState
	report *model.BatchReport

	// UI.
	width, height int
	styles        Styles

	// Reporter events arrive here and are re-emitted as tea messages.
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, jobs []model.Job, opts model.CLIOptions) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()

	states := make(map[string]*jobState, len(jobs))
	order := make([]string, 0, len(jobs))
	for _, j := range jobs {
		js := newJobState(j, sty)
		states[j.ID] = &js
		order = append(order, j.ID)
	}

	return Model{
		ctx:     c,
		cancel:  cancel,
		jobs:    jobs,
		opts:    opts,
		order:   order,
		states:  states,
		styles:  sty,
		eventCh: make(chan tea.Msg, 256),
	}
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range m.order {
		sp := m.states[id].spinner
		cmds = append(cmds, sp.Tick)
	}
	cmds = append(cmds, m.listenEventsCmd())
	cmds = append(cmds, m.checkDepsCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			// The batch keeps draining; unstarted jobs come back cancelled
			// in the final report.
			m.cancel()
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case depsCheckedMsg:
		m.depsChecked = true
		m.depsErr = msg.Err
		m.downloaderPath = msg.DownloaderPath
		m.ffmpegPath = msg.FFmpegPath
		if m.depsErr != nil {
			for _, id := range m.order {
				js := m.states[id]
				js.stage = progress.StageError
				js.status = fmt.Sprintf("Dependency error: %v", m.depsErr)
				js.err = m.depsErr
				js.done = true
			}
			return m, tea.Quit
		}
		return m, m.runBatchCmd()

	case jobUpdateMsg:
		u := msg.U
		if js, ok := m.states[u.JobID]; ok {
			js.stage = u.Stage
			js.percent = u.Percent
			if u.Message != "" {
				js.status = u.Message
			}
			if u.Attempt > 0 {
				js.attempt = u.Attempt
			}
			if u.Speed != nil {
				js.speed = *u.Speed
			}
			if u.ETA != nil {
				js.eta = u.ETA.String()
			}
		}
	case jobLogMsg:
		l := msg.L
		if js, ok := m.states[l.JobID]; ok {
			line := strings.TrimRight(l.Line, "\r\n")
			if len(js.logsRing) > 1000 {
				js.logsRing = js.logsRing[1:]
			}
			js.logsRing = append(js.logsRing, line)
		}
	case jobResultMsg:
		r := msg.R
		if js, ok := m.states[r.JobID]; ok {
			js.outputPath = r.OutputPath
			js.bytes = r.Bytes
		}

	case batchDoneMsg:
		m.report = msg.Report
		m.applyReport()
		return m, tea.Quit
	}

	var cmds []tea.Cmd
	for _, id := range m.order {
		js := m.states[id]
		var c tea.Cmd
		js.spinner, c = js.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	cmds = append(cmds, m.listenEventsCmd())
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	summary := m.viewSummary()
	if summary != "" {
		return m.viewHeader() + "\n\n" + m.viewJobs() + "\n" + summary
	}
	return m.viewHeader() + "\n\n" + m.viewJobs()
}

// applyReport folds the final batch report into the per-job view state. The
// report is authoritative: a job that never produced a reporter event (e.g.
// cancelled before starting) still gets its outcome from here.
func (m *Model) applyReport() {
	if m.report == nil {
		return
	}
	for _, res := range m.report.Results() {
		js, ok := m.states[res.Job.ID]
		if !ok {
			continue
		}
		js.done = true
		js.attempt = res.Attempts
		switch res.Outcome {
		case model.OutcomeSucceeded:
			js.stage = progress.StageCompleted
			js.percent = 100
			if js.outputPath == "" {
				js.outputPath = res.OutputPath
			}
		case model.OutcomeCancelled:
			js.stage = progress.StageCancelled
			js.status = "Cancelled"
			js.percent = -1
			js.err = res.Err
		default:
			js.stage = progress.StageError
			js.err = res.Err
			js.percent = -1
			if res.Err != nil {
				js.status = res.Err.Error()
			}
		}
	}
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return nil
		case msg := <-m.eventCh:
			return msg
		}
	}
}

func (m Model) checkDepsCmd() tea.Cmd {
	return func() tea.Msg {
		dl, derr := deps.FindDownloader(m.opts.DLBinary)
		if derr != nil {
			return depsCheckedMsg{Err: derr}
		}
		ff, ferr := deps.FindFFmpeg()
		if ferr != nil {
			return depsCheckedMsg{Err: ferr}
		}
		return depsCheckedMsg{DownloaderPath: dl, FFmpegPath: ff}
	}
}

// runBatchCmd executes the whole batch through the bounded runner and
// delivers the final report as a message. Per-job progress flows through the
// reporter channel while this command blocks.
func (m Model) runBatchCmd() tea.Cmd {
	rep := teaReporter{ch: m.eventCh, ctx: m.ctx}
	svc := pipeline.NewService(
		pipeline.WithDownloaderPath(m.downloaderPath),
		pipeline.WithFFmpegPath(m.ffmpegPath),
		pipeline.WithCLIOptions(m.opts),
		pipeline.WithReporter(rep),
	)
	exec := withAttemptTracking(svc.RunJob, rep)
	r := runner.New(exec,
		runner.WithWorkers(m.opts.Jobs),
		runner.WithRetries(m.opts.Retries),
		runner.WithBackoff(time.Duration(m.opts.RetryDelay)*time.Second),
	)
	jobs := m.jobs
	return func() tea.Msg {
		report := r.Run(m.ctx, jobs)
		return batchDoneMsg{Report: &report}
	}
}

// withAttemptTracking wraps an execution function so the UI can show retry
// attempts. The runner owns the retry loop; this only observes it.
func withAttemptTracking(exec runner.ExecFunc, rep progress.Reporter) runner.ExecFunc {
	var mu sync.Mutex
	attempts := make(map[string]int)
	return func(ctx context.Context, job model.Job) (string, error) {
		mu.Lock()
		attempts[job.ID]++
		n := attempts[job.ID]
		mu.Unlock()
		if n > 1 {
			rep.Update(progress.Update{
				JobID:   job.ID,
				Stage:   progress.StageRetrying,
				Percent: -1,
				Attempt: n,
				Message: fmt.Sprintf("Retrying (attempt %d)", n),
			})
		}
		return exec(ctx, job)
	}
}

// teaReporter forwards progress events into the bubbletea message loop.
type teaReporter struct {
	ch  chan tea.Msg
	ctx context.Context
}

func (r teaReporter) Update(u progress.Update) {
	// Terminal stage updates must land; routine progress may be dropped
	// when the UI lags.
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.send(jobUpdateMsg{U: u})
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}

func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}

func (r teaReporter) Result(res progress.Result) {
	r.send(jobResultMsg{R: res})
}

func (r teaReporter) send(msg tea.Msg) {
	select {
	case r.ch <- msg:
	case <-r.ctx.Done():
	}
}
