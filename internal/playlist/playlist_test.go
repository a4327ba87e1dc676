package playlist

import (
	"context"
	"errors"
	"testing"

	"tunepull/internal/model"
	"tunepull/internal/util"
)

type fakeRunner struct {
	stdout string
	stderr string
	err    error
	spec   util.CmdSpec
}

func (f *fakeRunner) Run(ctx context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	f.spec = spec
	return util.CmdResult{Stdout: []byte(f.stdout), Stderr: []byte(f.stderr)}, f.err
}

func TestFetch_ParsesEntriesInOrder(t *testing.T) {
	fr := &fakeRunner{stdout: `
{"id":"aaa111","title":"First Song","duration":215,"url":"https://www.youtube.com/watch?v=aaa111"}
{"id":"bbb222","title":"Second Song","duration":187}
WARNING: some stray line
{"id":"ccc333","title":"","duration":0}
`}
	entries, err := Fetch(context.Background(), "https://www.youtube.com/playlist?list=PLx", Options{
		DownloaderPath: "/bin/yt-dlp",
		Runner:         fr,
	})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Title != "First Song" || entries[1].Title != "Second Song" {
		t.Errorf("titles out of order: %q, %q", entries[0].Title, entries[1].Title)
	}
	if entries[2].Title != "ccc333" {
		t.Errorf("empty title should fall back to ID, got %q", entries[2].Title)
	}
	if got := entries[1].WatchURL(); got != "https://www.youtube.com/watch?v=bbb222" {
		t.Errorf("WatchURL = %q", got)
	}
	if got := entries[0].WatchURL(); got != "https://www.youtube.com/watch?v=aaa111" {
		t.Errorf("WatchURL should keep explicit URL, got %q", got)
	}

	if len(fr.spec.Args) == 0 || fr.spec.Args[0] != "--flat-playlist" {
		t.Errorf("expected --flat-playlist, args = %v", fr.spec.Args)
	}
}

func TestFetch_Errors(t *testing.T) {
	if _, err := Fetch(context.Background(), "x", Options{}); err == nil {
		t.Error("missing downloader path should error")
	}

	fr := &fakeRunner{err: errors.New("exit 1"), stderr: "ERROR: Unsupported URL: x"}
	if _, err := Fetch(context.Background(), "x", Options{DownloaderPath: "/bin/yt-dlp", Runner: fr}); err == nil {
		t.Error("runner failure should propagate")
	}

	fr2 := &fakeRunner{stdout: "not json at all"}
	if _, err := Fetch(context.Background(), "x", Options{DownloaderPath: "/bin/yt-dlp", Runner: fr2}); err == nil {
		t.Error("unparseable output should error")
	}
}

func TestJobs(t *testing.T) {
	entries := []Entry{
		{ID: "a", Title: "One"},
		{ID: "b", Title: "Two"},
	}
	jobs := Jobs(entries, "/music", model.QualityBest, model.ModeAudio)
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	for i, j := range jobs {
		if j.Ordinal != i+1 {
			t.Errorf("jobs[%d].Ordinal = %d, want %d", i, j.Ordinal, i+1)
		}
		if j.ID == "" {
			t.Errorf("jobs[%d].ID empty", i)
		}
		if j.OutDir != "/music" || j.Mode != model.ModeAudio {
			t.Errorf("jobs[%d] options not propagated: %+v", i, j)
		}
	}
	if jobs[0].ID == jobs[1].ID {
		t.Error("job IDs should be unique")
	}
}
