// Package pipeline orchestrates the per-job download → convert → tag
// workflow. Service.RunJob is the execution function handed to the batch
// runner.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tunepull/internal/convert"
	"tunepull/internal/downloader"
	"tunepull/internal/model"
	"tunepull/internal/progress"
	"tunepull/internal/tagger"
	"tunepull/internal/util"
	"tunepull/internal/util/format"
)

// Service executes single jobs end to end.
type Service struct {
	dlPath     string
	ffmpegPath string
	opts       model.CLIOptions
	runner     util.CmdRunner
	reporter   progress.Reporter
}

// Option configures a Service.
type Option func(*Service)

// WithDownloaderPath sets the downloader (yt-dlp/youtube-dl) binary path.
func WithDownloaderPath(p string) Option {
	return func(s *Service) { s.dlPath = p }
}

// WithFFmpegPath sets the ffmpeg binary path.
func WithFFmpegPath(p string) Option {
	return func(s *Service) { s.ffmpegPath = p }
}

// WithCLIOptions sets the runtime options.
func WithCLIOptions(o model.CLIOptions) Option {
	return func(s *Service) { s.opts = o }
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(s *Service) { s.runner = r }
}

// WithReporter attaches a progress reporter (used by the TUI).
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) { s.reporter = rp }
}

// NewService constructs a Service with the provided options.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = util.NewDefaultRunner()
	}
	return s
}

// RunJob performs one attempt for a job and returns the final output path.
// Failures carry a retry class for the batch runner. It never prints; when a
// reporter is present it emits per-stage progress.
func (s *Service) RunJob(ctx context.Context, job model.Job) (string, error) {
	if s.dlPath == "" {
		return "", fmt.Errorf("downloader path is required")
	}

	dlOpts := downloader.Options{
		DownloaderPath: s.dlPath,
		Verbose:        s.opts.Verbose,
		CookiesFrom:    s.opts.CookiesFrom,
		Reporter:       s.reporter,
		JobID:          job.ID,
		Runner:         s.runner,
	}

	// Step 1: metadata. Needed for tags and the final filename.
	s.emitStage(job.ID, progress.StageMetadata, "Fetching metadata")
	info, err := downloader.FetchMetadata(ctx, job.URL, dlOpts)
	if err != nil {
		s.emitError(job.ID, err)
		return "", fmt.Errorf("metadata: %w", err)
	}

	workdir, err := util.MakeTempWorkdir("job")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if !s.opts.KeepTemp {
			_ = os.RemoveAll(workdir)
		}
	}()

	// Step 2: download into the temp workdir.
	s.emitStage(job.ID, progress.StageDownloading, "Downloading")
	var mediaPath string
	if job.Mode == model.ModeVideo {
		mediaPath, err = downloader.DownloadVideo(ctx, job.URL, workdir, job.Quality, dlOpts)
	} else {
		mediaPath, err = downloader.DownloadAudio(ctx, job.URL, workdir, dlOpts)
	}
	if err != nil {
		s.emitError(job.ID, err)
		return "", fmt.Errorf("download: %w", err)
	}

	// Step 3: make sure audio ends up as MP3. yt-dlp normally converts,
	// but falls back to the source container when its postprocessor is
	// unavailable.
	if job.Mode == model.ModeAudio && convert.NeedsConversion(mediaPath) {
		s.emitStage(job.ID, progress.StageConverting, "Converting to MP3")
		mediaPath, err = convert.ToMP3(ctx, mediaPath, convert.Options{
			FFmpegPath: s.ffmpegPath,
			Verbose:    s.opts.Verbose,
			Runner:     s.runner,
		})
		if err != nil {
			s.emitError(job.ID, err)
			return "", fmt.Errorf("convert: %w", err)
		}
	}

	// Step 4: move into the output directory under the final name.
	meta := s.buildMeta(info)
	if err := util.EnsureDir(job.OutDir); err != nil {
		return "", fmt.Errorf("ensure output dir: %w", err)
	}
	destPath := uniquePath(filepath.Join(job.OutDir, s.outputName(job, info, meta)))
	if err := util.MoveFile(mediaPath, destPath); err != nil {
		return "", fmt.Errorf("move output: %w", err)
	}

	// Step 5: tags (audio only, best-effort cover art).
	if job.Mode == model.ModeAudio && !s.opts.SkipTags {
		s.emitStage(job.ID, progress.StageTagging, "Writing tags")
		coverPath := s.fetchCover(ctx, job.ID, info.Thumbnail, workdir)
		if err := tagger.Apply(destPath, meta, coverPath); err != nil {
			// A playable file beats perfect tags; record and move on.
			s.logWarn(job.ID, fmt.Sprintf("warning: failed to write tags: %v", err))
		}
	}

	s.emitSaved(job.ID, destPath)
	return destPath, nil
}

// buildMeta derives track tags from video metadata.
func (s *Service) buildMeta(info downloader.Info) model.TrackMeta {
	artist, title := tagger.GuessFromTitle(info.Title, info.BestUploader())
	return model.TrackMeta{
		Title:     title,
		Artist:    artist,
		Year:      info.UploadYear(),
		Thumbnail: info.Thumbnail,
	}
}

// outputName builds the final filename. Audio uses "Artist - Title.mp3";
// video keeps the cleaned title, prefixed with the playlist ordinal when the
// job came from a batch.
func (s *Service) outputName(job model.Job, info downloader.Info, meta model.TrackMeta) string {
	if job.Mode == model.ModeVideo {
		title := tagger.CleanTitle(info.Title)
		if title == "" {
			title = info.ID
		}
		name := util.SanitizeFilename(title)
		if job.Ordinal > 0 {
			name = fmt.Sprintf("%02d - %s", job.Ordinal, name)
		}
		return name + ".mp4"
	}

	title := meta.Title
	if title == "" {
		title = info.ID
	}
	if meta.Artist != "" {
		return util.SanitizeFilename(meta.Artist) + " - " + util.SanitizeFilename(title) + ".mp3"
	}
	return util.SanitizeFilename(title) + ".mp3"
}

// fetchCover downloads the thumbnail into workdir, returning "" when cover
// embedding is disabled or the fetch fails.
func (s *Service) fetchCover(ctx context.Context, jobID, thumbnail, workdir string) string {
	if !s.opts.EmbedCover || thumbnail == "" {
		return ""
	}
	coverPath := filepath.Join(workdir, "cover.jpg")
	if err := tagger.DownloadCover(ctx, thumbnail, coverPath); err != nil {
		s.logWarn(jobID, fmt.Sprintf("warning: could not download cover art: %v", err))
		return ""
	}
	return coverPath
}

// uniquePath appends " (n)" before the extension until the path is free.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func (s *Service) emitStage(jobID string, stage progress.Stage, msg string) {
	if s.reporter == nil {
		return
	}
	s.reporter.Update(progress.Update{JobID: jobID, Stage: stage, Percent: -1, Message: msg})
}

func (s *Service) emitError(jobID string, err error) {
	if s.reporter == nil {
		return
	}
	s.reporter.Update(progress.Update{JobID: jobID, Stage: progress.StageError, Percent: -1, Message: err.Error()})
}

func (s *Service) emitSaved(jobID, destPath string) {
	if s.reporter == nil {
		return
	}
	var bytes int64
	if fi, err := os.Stat(destPath); err == nil {
		bytes = fi.Size()
	}
	s.reporter.Update(progress.Update{
		JobID:   jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Saved: %s (%s)", filepath.Base(destPath), format.HumanizeBytes(bytes)),
	})
	s.reporter.Result(progress.Result{JobID: jobID, OutputPath: destPath, Bytes: bytes})
}

func (s *Service) logWarn(jobID, line string) {
	if s.reporter == nil {
		return
	}
	s.reporter.Log(progress.Log{JobID: jobID, Stream: progress.StreamStderr, Line: line})
}
