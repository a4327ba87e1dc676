// Package playlist enumerates playlist entries via yt-dlp without
// downloading any media.
package playlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tunepull/internal/downloader"
	"tunepull/internal/model"
	"tunepull/internal/util"
)

// Entry is one item of a playlist in playlist order.
type Entry struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	DurationSec float64 `json:"duration"`
	URL         string  `json:"url"`
}

// WatchURL returns the canonical watch URL for the entry.
func (e Entry) WatchURL() string {
	if e.URL != "" && strings.HasPrefix(e.URL, "http") {
		return e.URL
	}
	return util.WatchURL(e.ID)
}

// Options controls playlist enumeration.
type Options struct {
	DownloaderPath string
	Verbose        bool
	Runner         util.CmdRunner
}

// Fetch lists all entries of a playlist. Each stdout line of
// `yt-dlp --flat-playlist --dump-json` is one JSON object per entry.
// Failures carry a retry class derived from stderr.
func Fetch(ctx context.Context, url string, opts Options) ([]Entry, error) {
	if opts.DownloaderPath == "" {
		return nil, errors.New("downloader path is required")
	}
	r := opts.Runner
	if r == nil {
		r = util.NewDefaultRunner()
	}

	res, runErr := r.Run(ctx, util.CmdSpec{
		Path:    opts.DownloaderPath,
		Args:    []string{"--flat-playlist", "--dump-json", url},
		Verbose: opts.Verbose,
	})
	if runErr != nil && len(res.Stdout) == 0 {
		return nil, downloader.ClassifyRunError(fmt.Errorf("playlist fetch failed: %w", runErr), string(res.Stderr))
	}

	entries, err := parseEntries(res.Stdout)
	if err != nil {
		return nil, downloader.ClassifyRunError(err, string(res.Stderr))
	}
	return entries, nil
}

func parseEntries(stdout []byte) ([]Entry, error) {
	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(string(stdout)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			// Skip non-JSON noise; yt-dlp sometimes prints warnings
			// on stdout.
			continue
		}
		if e.ID == "" {
			continue
		}
		if e.Title == "" {
			e.Title = e.ID
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, errors.New("no playlist entries found")
	}
	return entries, nil
}

// Jobs converts playlist entries into batch jobs with 1-based ordinals.
func Jobs(entries []Entry, outDir string, quality model.Quality, mode model.Mode) []model.Job {
	jobs := make([]model.Job, 0, len(entries))
	for i, e := range entries {
		jobs = append(jobs, model.NewJob(i+1, e.WatchURL(), e.Title, outDir, quality, mode))
	}
	return jobs
}
