package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tunepull/internal/model"
	"tunepull/internal/pipeline"
	"tunepull/internal/playlist"
	"tunepull/internal/progress"
	"tunepull/internal/runner"
	"tunepull/internal/ui"
	"tunepull/internal/util"
	"tunepull/internal/util/deps"
)

type runMode struct {
	ForceTUI bool
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "run [urls...]",
		Short:         "Download videos and playlists as tagged MP3s",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		PreRunE:       runPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{ForceTUI: false})
		},
	}
	bindRunFlags(cmd.Flags())
	return cmd
}

type ctxKey string

const runInputsKey ctxKey = "runInputs"

type runInputs struct {
	URLs    []string
	Options model.CLIOptions
}

func runPreRun(cmd *cobra.Command, args []string) error {
	urls, opts, err := assembleRunInputs(cmd, args)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	ctx := context.WithValue(cmd.Context(), runInputsKey, runInputs{
		URLs:    urls,
		Options: opts,
	})
	cmd.SetContext(ctx)
	return nil
}

func assembleRunInputs(cmd *cobra.Command, args []string) ([]string, model.CLIOptions, error) {
	outDir := getPersistentString(cmd, "out-dir", ".")
	verbose := getPersistentBool(cmd, "verbose", false)
	dlBinary := getPersistentString(cmd, "dl-binary", "")
	jobs := getPersistentInt(cmd, "jobs", 2)
	retries := getPersistentInt(cmd, "retries", 3)
	retryDelay := getPersistentInt(cmd, "retry-delay", 2)
	cookiesFrom := getPersistentString(cmd, "cookies-from", "")

	modeStr, _ := cmd.Flags().GetString("mode")
	qualityStr, _ := cmd.Flags().GetString("quality")
	skipTags, _ := cmd.Flags().GetBool("skip-tags")
	embedCover, _ := cmd.Flags().GetBool("embed-cover")
	keepTemp, _ := cmd.Flags().GetBool("keep-temp")
	noUI, _ := cmd.Flags().GetBool("no-ui")

	mode := model.Mode(strings.ToLower(modeStr))
	if mode != model.ModeAudio && mode != model.ModeVideo {
		return nil, model.CLIOptions{}, fmt.Errorf("invalid --mode: %q (valid: audio|video)", modeStr)
	}

	quality := model.Quality(strings.ToLower(qualityStr))
	if !model.ValidQuality(quality) {
		return nil, model.CLIOptions{}, fmt.Errorf("invalid --quality: %q (valid: best|1080p|720p|480p|worst)", qualityStr)
	}

	if retries < 1 {
		return nil, model.CLIOptions{}, fmt.Errorf("invalid --retries: %d (must be at least 1)", retries)
	}
	if retryDelay < 0 {
		retryDelay = 0
	}

	// URL validation up front: one bad URL fails the whole invocation
	// before anything downloads.
	var urls []string
	for _, raw := range args {
		if _, _, err := util.ClassifyURL(raw); err != nil {
			return nil, model.CLIOptions{}, err
		}
		urls = append(urls, raw)
	}

	if dlBinary == "" {
		dlBinary = os.Getenv("TUNEPULL_DL_BINARY")
	}

	opts := model.CLIOptions{
		OutDir:      filepath.Clean(outDir),
		Mode:        mode,
		Quality:     quality,
		Jobs:        jobs,
		Retries:     retries,
		RetryDelay:  retryDelay,
		SkipTags:    skipTags,
		EmbedCover:  embedCover,
		CookiesFrom: cookiesFrom,
		KeepTemp:    keepTemp,
		DLBinary:    dlBinary,
		Verbose:     verbose,
		NoUI:        noUI,
	}
	return urls, opts, nil
}

func runExecute(cmd *cobra.Command, args []string, mode runMode) error {
	var in runInputs
	if v := cmd.Context().Value(runInputsKey); v != nil {
		in = v.(runInputs)
	} else {
		urls, opts, err := assembleRunInputs(cmd, args)
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		in = runInputs{URLs: urls, Options: opts}
	}

	if err := ensureDir(in.Options.OutDir); err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("failed to create output dir: %v", err)}
	}

	dlPath, derr := deps.FindDownloader(in.Options.DLBinary)
	if derr != nil {
		return &ExitError{Code: ExitMissingDep, Err: derr}
	}
	ffmpegPath, ferr := deps.FindFFmpeg()
	if ferr != nil {
		return &ExitError{Code: ExitMissingDep, Err: ferr}
	}

	// Expand playlists into individual jobs before the batch starts, so
	// the worker pool bounds downloads, not playlists.
	jobs, err := expandJobs(cmd.Context(), in.URLs, in.Options, dlPath)
	if err != nil {
		return &ExitError{Code: ExitDownloadError, Err: err}
	}

	useTUI := mode.ForceTUI || (!in.Options.NoUI && isTerminal())
	var report *model.BatchReport
	if useTUI {
		report, err = ui.Run(cmd.Context(), jobs, in.Options)
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
	} else {
		report = runBatchPlain(cmd.Context(), jobs, in.Options, dlPath, ffmpegPath)
	}
	if report == nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("batch did not produce a report")}
	}

	renderReport(cmd, *report)
	return reportExitError(*report)
}

// expandJobs turns the URL list into a flat job list with batch-wide
// sequential ordinals. Playlist URLs contribute one job per entry.
func expandJobs(ctx context.Context, urls []string, opts model.CLIOptions, dlPath string) ([]model.Job, error) {
	var jobs []model.Job
	ordinal := 0
	for _, raw := range urls {
		kind, _, err := util.ClassifyURL(raw)
		if err != nil {
			return nil, err
		}
		if kind == util.KindPlaylist {
			entries, err := playlist.Fetch(ctx, raw, playlist.Options{
				DownloaderPath: dlPath,
				Verbose:        opts.Verbose,
			})
			if err != nil {
				return nil, fmt.Errorf("playlist %s: %w", raw, err)
			}
			for _, e := range entries {
				ordinal++
				jobs = append(jobs, model.NewJob(ordinal, e.WatchURL(), e.Title, opts.OutDir, opts.Quality, opts.Mode))
			}
			continue
		}
		ordinal++
		jobs = append(jobs, model.NewJob(ordinal, raw, "", opts.OutDir, opts.Quality, opts.Mode))
	}
	return jobs, nil
}

// runBatchPlain executes the batch without the TUI, logging job events as
// plain lines.
func runBatchPlain(ctx context.Context, jobs []model.Job, opts model.CLIOptions, dlPath, ffmpegPath string) *model.BatchReport {
	rep := plainReporter{verbose: opts.Verbose}
	svc := pipeline.NewService(
		pipeline.WithDownloaderPath(dlPath),
		pipeline.WithFFmpegPath(ffmpegPath),
		pipeline.WithCLIOptions(opts),
		pipeline.WithReporter(rep),
	)
	r := runner.New(svc.RunJob,
		runner.WithWorkers(opts.Jobs),
		runner.WithRetries(opts.Retries),
		runner.WithBackoff(time.Duration(opts.RetryDelay)*time.Second),
	)
	report := r.Run(ctx, jobs)
	return &report
}

func renderReport(cmd *cobra.Command, report model.BatchReport) {
	out := cmd.OutOrStdout()
	for _, res := range report.Results() {
		label := res.Job.Title
		if label == "" {
			label = res.Job.URL
		}
		switch res.Outcome {
		case model.OutcomeSucceeded:
			fmt.Fprintf(out, "%3d. ✓ %s → %s\n", res.Job.Ordinal, label, res.OutputPath)
		case model.OutcomeCancelled:
			fmt.Fprintf(out, "%3d. – %s (cancelled)\n", res.Job.Ordinal, label)
		default:
			fmt.Fprintf(out, "%3d. ✗ %s: %v (after %d attempt(s))\n", res.Job.Ordinal, label, res.Err, res.Attempts)
		}
	}
	fmt.Fprintf(out, "Done: %d succeeded, %d failed, %d cancelled\n",
		report.Succeeded(), report.Failed(), report.Cancelled())
}

func reportExitError(report model.BatchReport) error {
	switch {
	case report.Failed() > 0:
		return &ExitError{Code: ExitDownloadError, Err: fmt.Errorf("%d job(s) failed", report.Failed())}
	case report.Cancelled() > 0:
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("batch cancelled with %d job(s) unfinished", report.Cancelled())}
	}
	return nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// plainReporter prints progress as log lines for non-TTY runs.
type plainReporter struct {
	verbose bool
}

func (p plainReporter) Update(u progress.Update) {
	switch u.Stage {
	case progress.StageCompleted, progress.StageError, progress.StageRetrying:
		fmt.Fprintf(os.Stderr, "[%s] %s\n", u.Stage, u.Message)
	default:
		if p.verbose && u.Message != "" {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", u.Stage, u.Message)
		}
	}
}

func (p plainReporter) Log(l progress.Log) {
	if p.verbose {
		fmt.Fprintln(os.Stderr, l.Line)
	}
}

func (p plainReporter) Result(progress.Result) {}
