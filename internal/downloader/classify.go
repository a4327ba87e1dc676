package downloader

import (
	"strings"

	"tunepull/internal/runner"
)

// Fragments of yt-dlp stderr that indicate the job can never succeed no
// matter how often it is retried.
var permanentMarkers = []string{
	"is not a valid url",
	"unsupported url",
	"incomplete youtube id",
	"video unavailable",
	"private video",
	"this video is not available",
	"account associated with this video has been terminated",
	"video has been removed",
	"no video formats found",
	"requested format is not available",
	"sign in to confirm your age",
}

// ClassifyRunError inspects yt-dlp stderr and wraps err with a retry class.
// Unrecognized failures default to transient: retrying a hopeless job wastes
// a few attempts, while not retrying a flaky network error loses the track.
func ClassifyRunError(err error, stderr string) error {
	if err == nil {
		return nil
	}
	s := strings.ToLower(stderr)
	for _, m := range permanentMarkers {
		if strings.Contains(s, m) {
			return runner.Permanent(err)
		}
	}
	return runner.Transient(err)
}
