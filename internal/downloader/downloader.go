// Package downloader wraps yt-dlp for metadata fetches and media downloads.
package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"tunepull/internal/model"
	"tunepull/internal/progress"
	"tunepull/internal/runner"
	"tunepull/internal/util"
)

// Options controls downloader behavior.
type Options struct {
	DownloaderPath string // path to yt-dlp or youtube-dl
	Verbose        bool
	CookiesFrom    string // browser name for --cookies-from-browser; "" = none
	Reporter       progress.Reporter
	JobID          string
	Runner         util.CmdRunner
}

func (o Options) runner() util.CmdRunner {
	if o.Runner != nil {
		return o.Runner
	}
	return util.NewDefaultRunner()
}

// qualityFormats maps a quality selector to a yt-dlp format string.
var qualityFormats = map[model.Quality]string{
	model.QualityBest:  "bestvideo+bestaudio/best",
	model.Quality1080p: "bestvideo[height<=1080]+bestaudio/best[height<=1080]",
	model.Quality720p:  "bestvideo[height<=720]+bestaudio/best[height<=720]",
	model.Quality480p:  "bestvideo[height<=480]+bestaudio/best[height<=480]",
	model.QualityWorst: "worstvideo+worstaudio/worst",
}

// FormatFor returns the yt-dlp format string for a quality selector.
func FormatFor(q model.Quality) string {
	if f, ok := qualityFormats[q]; ok {
		return f
	}
	return qualityFormats[model.QualityBest]
}

// FetchMetadata retrieves single-video metadata without downloading media.
// Failures carry a retry class derived from yt-dlp's stderr.
func FetchMetadata(ctx context.Context, url string, opts Options) (Info, error) {
	if opts.DownloaderPath == "" {
		return Info{}, errors.New("downloader path is required")
	}
	args := []string{"--dump-json", "--no-playlist", url}
	res, runErr := opts.runner().Run(ctx, util.CmdSpec{
		Path:       opts.DownloaderPath,
		Args:       args,
		Verbose:    opts.Verbose,
		StderrLine: opts.stderrLogger(),
	})
	if runErr != nil && len(res.Stdout) == 0 {
		return Info{}, ClassifyRunError(fmt.Errorf("metadata fetch failed: %w", runErr), string(res.Stderr))
	}
	info, err := parseInfo(res.Stdout)
	if err != nil {
		return Info{}, ClassifyRunError(err, string(res.Stderr))
	}
	return info, nil
}

// parseInfo decodes the last well-formed JSON object from yt-dlp stdout.
// yt-dlp occasionally interleaves warnings with the JSON payload.
func parseInfo(stdout []byte) (Info, error) {
	data := strings.TrimSpace(string(stdout))
	var info Info
	if err := json.Unmarshal([]byte(data), &info); err == nil && info.ID != "" {
		return info, nil
	}
	lines := strings.Split(data, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var tmp Info
		if json.Unmarshal([]byte(line), &tmp) == nil && tmp.ID != "" {
			return tmp, nil
		}
	}
	return Info{}, errors.New("parse metadata JSON: no usable object in output")
}

// DownloadAudio extracts best-quality audio as MP3 into workdir and returns
// the downloaded file path.
func DownloadAudio(ctx context.Context, url, workdir string, opts Options) (string, error) {
	args := []string{
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--embed-thumbnail",
		"--add-metadata",
		"-o", filepath.Join(workdir, "%(title)s.%(ext)s"),
		"--newline",
		"--restrict-filenames",
		"--no-playlist",
	}
	args = append(args, cookieArgs(opts.CookiesFrom)...)
	args = append(args, url)
	return download(ctx, url, workdir, args, opts)
}

// DownloadVideo fetches a video at the given quality, merged into MP4, into
// workdir and returns the downloaded file path.
func DownloadVideo(ctx context.Context, url, workdir string, quality model.Quality, opts Options) (string, error) {
	args := []string{
		"-f", FormatFor(quality),
		"--merge-output-format", "mp4",
		"-o", filepath.Join(workdir, "%(title)s.%(ext)s"),
		"--newline",
		"--restrict-filenames",
		"--no-playlist",
	}
	args = append(args, cookieArgs(opts.CookiesFrom)...)
	args = append(args, url)
	return download(ctx, url, workdir, args, opts)
}

// cookieArgs returns bot-detection workaround flags. With a browser selected,
// yt-dlp reads its cookie jar; otherwise fall back to a desktop user agent
// and the android player client.
func cookieArgs(browser string) []string {
	if browser != "" {
		return []string{"--cookies-from-browser", browser}
	}
	return []string{
		"--user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		"--extractor-args", "youtube:player_client=android,web",
	}
}

func download(ctx context.Context, url, workdir string, args []string, opts Options) (string, error) {
	if opts.DownloaderPath == "" {
		return "", errors.New("downloader path is required")
	}
	spec := util.CmdSpec{
		Path:       opts.DownloaderPath,
		Args:       args,
		Dir:        workdir,
		Verbose:    opts.Verbose,
		StderrLine: opts.stderrLogger(),
	}
	if opts.Reporter != nil {
		spec.StdoutLine = func(line string) {
			if u, ok := ParseProgress(line, opts.JobID); ok {
				opts.Reporter.Update(u)
			}
		}
	}
	res, runErr := opts.runner().Run(ctx, spec)
	if runErr != nil {
		return "", ClassifyRunError(fmt.Errorf("downloader failed: %w", runErr), string(res.Stderr))
	}
	out, err := locateOutput(workdir)
	if err != nil {
		return "", runner.Transient(err)
	}
	return out, nil
}

// locateOutput finds the downloaded media file in workdir, preferring common
// final containers over intermediates.
func locateOutput(workdir string) (string, error) {
	candidates, err := filepath.Glob(filepath.Join(workdir, "*"))
	if err != nil {
		return "", fmt.Errorf("resolve download: %w", err)
	}
	var files []string
	for _, c := range candidates {
		switch strings.ToLower(filepath.Ext(c)) {
		case ".part", ".ytdl", ".temp":
		default:
			files = append(files, c)
		}
	}
	if len(files) == 0 {
		return "", errors.New("download succeeded but no output file found")
	}
	sort.SliceStable(files, func(i, j int) bool {
		pi := extPriority(filepath.Ext(files[i]))
		pj := extPriority(filepath.Ext(files[j]))
		if pi == pj {
			return files[i] < files[j]
		}
		return pi < pj
	})
	return files[0], nil
}

func extPriority(ext string) int {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "mp3":
		return 0
	case "mp4":
		return 1
	case "m4a":
		return 2
	case "opus", "webm":
		return 3
	case "mkv":
		return 4
	default:
		return 9
	}
}

func (o Options) stderrLogger() func(string) {
	if o.Reporter == nil {
		return nil
	}
	return func(line string) {
		o.Reporter.Log(progress.Log{JobID: o.JobID, Stream: progress.StreamStderr, Line: line})
	}
}
