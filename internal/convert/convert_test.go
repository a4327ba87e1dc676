package convert

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"tunepull/internal/util"
)

func TestNeedsConversion(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"song.mp3", false},
		{"song.MP3", false},
		{"song.m4a", true},
		{"song.webm", true},
		{"song.opus", true},
		{"song", true},
	}
	for _, tt := range tests {
		if got := NeedsConversion(tt.path); got != tt.want {
			t.Errorf("NeedsConversion(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestBuildArgs(t *testing.T) {
	got := BuildArgs("/tmp/in.m4a", "/tmp/in.mp3")
	want := []string{
		"-y",
		"-i", "/tmp/in.m4a",
		"-vn",
		"-c:a", "libmp3lame",
		"-q:a", "0",
		"-id3v2_version", "3",
		"/tmp/in.mp3",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildArgs = %v, want %v", got, want)
	}
}

type fakeFFmpeg struct {
	t    *testing.T
	fail bool
}

func (f *fakeFFmpeg) Run(ctx context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	if f.fail {
		return util.CmdResult{Code: 1}, context.DeadlineExceeded
	}
	out := spec.Args[len(spec.Args)-1]
	if err := os.WriteFile(out, []byte("mp3"), 0o644); err != nil {
		f.t.Fatalf("write fake output: %v", err)
	}
	return util.CmdResult{}, nil
}

func TestToMP3(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "track.m4a")
	if err := os.WriteFile(in, []byte("m4a"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := ToMP3(context.Background(), in, Options{
		FFmpegPath: "/bin/ffmpeg",
		Runner:     &fakeFFmpeg{t: t},
	})
	if err != nil {
		t.Fatalf("ToMP3 error: %v", err)
	}
	if out != filepath.Join(tmp, "track.mp3") {
		t.Errorf("output path = %q", out)
	}
	if _, err := os.Stat(in); !os.IsNotExist(err) {
		t.Error("input should be removed after successful conversion")
	}
}

func TestToMP3_Errors(t *testing.T) {
	if _, err := ToMP3(context.Background(), "in.m4a", Options{}); err == nil {
		t.Error("missing ffmpeg path should error")
	}
	if _, err := ToMP3(context.Background(), "", Options{FFmpegPath: "/bin/ffmpeg"}); err == nil {
		t.Error("missing input path should error")
	}

	tmp := t.TempDir()
	in := filepath.Join(tmp, "track.m4a")
	if err := os.WriteFile(in, []byte("m4a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ToMP3(context.Background(), in, Options{
		FFmpegPath: "/bin/ffmpeg",
		Runner:     &fakeFFmpeg{t: t, fail: true},
	}); err == nil {
		t.Error("ffmpeg failure should propagate")
	}
	if _, err := os.Stat(in); err != nil {
		t.Error("input should survive a failed conversion")
	}
}
