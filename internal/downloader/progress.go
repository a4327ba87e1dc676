package downloader

import (
	"strconv"
	"strings"
	"time"

	"tunepull/internal/progress"
)

// ParseProgress parses yt-dlp output lines into progress updates.
// Download lines look like:
//
//	[download]  45.2% of 10.00MiB at  1.50MiB/s ETA 00:04
//
// Post-processing lines ([ExtractAudio], [Merger], [ffmpeg]) map to the
// converting stage with unknown percent.
func ParseProgress(line, jobID string) (u progress.Update, ok bool) {
	line = strings.TrimSpace(line)

	if strings.HasPrefix(line, "[ExtractAudio]") || strings.HasPrefix(line, "[ffmpeg]") || strings.HasPrefix(line, "[Merger]") {
		return progress.Update{
			JobID:   jobID,
			Stage:   progress.StageConverting,
			Percent: -1,
			Message: "Converting",
		}, true
	}

	if !strings.HasPrefix(line, "[download]") {
		return progress.Update{}, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, "[download]"))

	var percent float64 = -1
	if idx := strings.Index(rest, "%"); idx != -1 {
		pctStr := strings.TrimSpace(rest[:idx])
		if p, err := strconv.ParseFloat(pctStr, 64); err == nil {
			percent = p
		}
	}

	var speed *string
	if idx := strings.Index(rest, " at "); idx != -1 {
		speedPart := strings.TrimSpace(rest[idx+4:])
		if idx2 := strings.Index(speedPart, " "); idx2 != -1 {
			speedPart = speedPart[:idx2]
		}
		if speedPart != "" {
			s := speedPart
			speed = &s
		}
	}

	var eta *time.Duration
	if idx := strings.Index(rest, "ETA "); idx != -1 {
		etaStr := strings.TrimSpace(rest[idx+4:])
		if idx2 := strings.Index(etaStr, " "); idx2 != -1 {
			etaStr = etaStr[:idx2]
		}
		if d, err := parseClock(etaStr); err == nil {
			eta = &d
		}
	}

	return progress.Update{
		JobID:   jobID,
		Stage:   progress.StageDownloading,
		Percent: percent,
		Speed:   speed,
		ETA:     eta,
		Message: "Downloading",
	}, true
}

// parseClock parses duration strings like "00:04" or "01:23:45".
func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	vals := make([]int, 0, 3)
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, err
		}
		vals = append(vals, v)
	}
	switch len(vals) {
	case 1:
		return time.Duration(vals[0]) * time.Second, nil
	case 2:
		return time.Duration(vals[0])*time.Minute + time.Duration(vals[1])*time.Second, nil
	case 3:
		return time.Duration(vals[0])*time.Hour + time.Duration(vals[1])*time.Minute + time.Duration(vals[2])*time.Second, nil
	default:
		return 0, strconv.ErrSyntax
	}
}
