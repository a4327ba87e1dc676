package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"tunepull/internal/model"
	"tunepull/internal/progress"
	"tunepull/internal/runner"
	"tunepull/internal/util"
)

const fakeMetaJSON = `{"id":"abc123","title":"Daft Punk - Get Lucky (Official Video)","uploader":"DaftPunkVEVO","upload_date":"20130419","thumbnail":""}`

// fakeRunner simulates yt-dlp and ffmpeg. Downloads drop a media file into
// the workdir taken from the -o template.
type fakeRunner struct {
	t        *testing.T
	mediaExt string
	metaErr  string

	mu    sync.Mutex
	calls []string
}

func (f *fakeRunner) Run(ctx context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, filepath.Base(spec.Path))
	f.mu.Unlock()

	if strings.Contains(spec.Path, "ffmpeg") {
		out := spec.Args[len(spec.Args)-1]
		if err := os.WriteFile(out, []byte("converted"), 0o644); err != nil {
			f.t.Fatalf("fake ffmpeg write: %v", err)
		}
		return util.CmdResult{}, nil
	}

	if hasArg(spec.Args, "--dump-json") {
		if f.metaErr != "" {
			return util.CmdResult{Stderr: []byte(f.metaErr), Code: 1}, errors.New("exit status 1")
		}
		return util.CmdResult{Stdout: []byte(fakeMetaJSON)}, nil
	}

	tmpl := argAfter(spec.Args, "-o")
	if tmpl == "" {
		f.t.Fatalf("download call missing -o template: %v", spec.Args)
	}
	media := filepath.Join(filepath.Dir(tmpl), "Daft_Punk_-_Get_Lucky"+f.mediaExt)
	if err := os.WriteFile(media, []byte("media"), 0o644); err != nil {
		f.t.Fatalf("fake download write: %v", err)
	}
	return util.CmdResult{}, nil
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// recordingReporter captures progress events for assertions.
type recordingReporter struct {
	mu      sync.Mutex
	stages  []progress.Stage
	results []progress.Result
}

func (r *recordingReporter) Update(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, u.Stage)
}

func (r *recordingReporter) Log(progress.Log) {}

func (r *recordingReporter) Result(res progress.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recordingReporter) sawStage(s progress.Stage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, got := range r.stages {
		if got == s {
			return true
		}
	}
	return false
}

func newTestService(fr *fakeRunner, rp progress.Reporter, opts model.CLIOptions) *Service {
	return NewService(
		WithDownloaderPath("/usr/bin/yt-dlp"),
		WithFFmpegPath("/usr/bin/ffmpeg"),
		WithCLIOptions(opts),
		WithRunner(fr),
		WithReporter(rp),
	)
}

func TestRunJobAudio(t *testing.T) {
	outDir := t.TempDir()
	fr := &fakeRunner{t: t, mediaExt: ".mp3"}
	rp := &recordingReporter{}
	svc := newTestService(fr, rp, model.CLIOptions{SkipTags: true})

	job := model.NewJob(0, "https://youtu.be/abc123", "", outDir, model.QualityBest, model.ModeAudio)
	dest, err := svc.RunJob(context.Background(), job)
	if err != nil {
		t.Fatalf("RunJob: %v", err)
	}

	wantName := "Daft_Punk - Get_Lucky.mp3"
	if filepath.Base(dest) != wantName {
		t.Errorf("output name = %q, want %q", filepath.Base(dest), wantName)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("output file missing: %v", err)
	}
	for _, s := range []progress.Stage{progress.StageMetadata, progress.StageDownloading, progress.StageCompleted} {
		if !rp.sawStage(s) {
			t.Errorf("reporter never saw stage %q", s)
		}
	}
	if len(rp.results) != 1 || rp.results[0].OutputPath != dest {
		t.Errorf("results = %+v, want single result for %q", rp.results, dest)
	}
}

func TestRunJobAudioConvertsNonMP3(t *testing.T) {
	outDir := t.TempDir()
	fr := &fakeRunner{t: t, mediaExt: ".m4a"}
	rp := &recordingReporter{}
	svc := newTestService(fr, rp, model.CLIOptions{SkipTags: true})

	job := model.NewJob(0, "https://youtu.be/abc123", "", outDir, model.QualityBest, model.ModeAudio)
	dest, err := svc.RunJob(context.Background(), job)
	if err != nil {
		t.Fatalf("RunJob: %v", err)
	}
	if !strings.HasSuffix(dest, ".mp3") {
		t.Errorf("expected MP3 output, got %q", dest)
	}
	if !rp.sawStage(progress.StageConverting) {
		t.Error("conversion stage never reported")
	}
	if !hasCall(fr, "ffmpeg") {
		t.Error("ffmpeg was never invoked")
	}
}

func TestRunJobVideoOrdinalPrefix(t *testing.T) {
	outDir := t.TempDir()
	fr := &fakeRunner{t: t, mediaExt: ".mp4"}
	svc := newTestService(fr, nil, model.CLIOptions{})

	job := model.NewJob(3, "https://youtu.be/abc123", "", outDir, model.Quality720p, model.ModeVideo)
	dest, err := svc.RunJob(context.Background(), job)
	if err != nil {
		t.Fatalf("RunJob: %v", err)
	}
	wantName := "03 - Daft_Punk_-_Get_Lucky.mp4"
	if filepath.Base(dest) != wantName {
		t.Errorf("output name = %q, want %q", filepath.Base(dest), wantName)
	}
	if hasCall(fr, "ffmpeg") {
		t.Error("video download must not run ffmpeg conversion")
	}
}

func TestRunJobMetadataFailureIsPermanent(t *testing.T) {
	fr := &fakeRunner{t: t, metaErr: "ERROR: Video unavailable"}
	svc := newTestService(fr, nil, model.CLIOptions{})

	job := model.NewJob(0, "https://youtu.be/gone", "", t.TempDir(), model.QualityBest, model.ModeAudio)
	_, err := svc.RunJob(context.Background(), job)
	if err == nil {
		t.Fatal("expected metadata error")
	}
	if runner.ClassOf(err) != runner.FailurePermanent {
		t.Errorf("unavailable video should classify permanent, got %v", runner.ClassOf(err))
	}
}

func TestRunJobRequiresDownloaderPath(t *testing.T) {
	svc := NewService(WithRunner(&fakeRunner{t: t}))
	job := model.NewJob(0, "https://youtu.be/abc123", "", t.TempDir(), model.QualityBest, model.ModeAudio)
	if _, err := svc.RunJob(context.Background(), job); err == nil {
		t.Error("expected error without a downloader path")
	}
}

func TestUniquePath(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "track.mp3")

	if got := uniquePath(p); got != p {
		t.Errorf("fresh path changed: %q", got)
	}
	if err := os.WriteFile(p, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(tmp, "track (2).mp3")
	if got := uniquePath(p); got != want {
		t.Errorf("uniquePath = %q, want %q", got, want)
	}
	if err := os.WriteFile(want, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	want3 := filepath.Join(tmp, "track (3).mp3")
	if got := uniquePath(p); got != want3 {
		t.Errorf("uniquePath = %q, want %q", got, want3)
	}
}

func hasCall(fr *fakeRunner, name string) bool {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	for _, c := range fr.calls {
		if c == name {
			return true
		}
	}
	return false
}
