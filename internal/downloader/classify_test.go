package downloader

import (
	"errors"
	"testing"

	"tunepull/internal/runner"
)

func TestClassifyRunError(t *testing.T) {
	base := errors.New("downloader failed: command failed (exit 1)")

	tests := []struct {
		name   string
		stderr string
		want   runner.FailureClass
	}{
		{
			name:   "invalid url is permanent",
			stderr: `ERROR: 'htp://nope' is not a valid URL.`,
			want:   runner.FailurePermanent,
		},
		{
			name:   "unsupported url is permanent",
			stderr: "ERROR: Unsupported URL: https://example.com/page",
			want:   runner.FailurePermanent,
		},
		{
			name:   "video unavailable is permanent",
			stderr: "ERROR: [youtube] abc: Video unavailable",
			want:   runner.FailurePermanent,
		},
		{
			name:   "private video is permanent",
			stderr: "ERROR: [youtube] abc: Private video. Sign in if you've been granted access",
			want:   runner.FailurePermanent,
		},
		{
			name:   "rate limiting is transient",
			stderr: "ERROR: unable to download video data: HTTP Error 429: Too Many Requests",
			want:   runner.FailureTransient,
		},
		{
			name:   "timeout is transient",
			stderr: "ERROR: Unable to download webpage: The read operation timed out",
			want:   runner.FailureTransient,
		},
		{
			name:   "unknown stderr defaults to transient",
			stderr: "something unexpected happened",
			want:   runner.FailureTransient,
		},
		{
			name:   "empty stderr defaults to transient",
			stderr: "",
			want:   runner.FailureTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyRunError(base, tt.stderr)
			if err == nil {
				t.Fatal("ClassifyRunError returned nil for non-nil error")
			}
			if got := runner.ClassOf(err); got != tt.want {
				t.Errorf("ClassOf = %v, want %v", got, tt.want)
			}
			if !errors.Is(err, base) {
				t.Error("classified error should wrap the original")
			}
		})
	}

	if ClassifyRunError(nil, "ERROR: Video unavailable") != nil {
		t.Error("nil error should classify to nil")
	}
}
