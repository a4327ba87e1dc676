// Package convert shells out to ffmpeg to turn downloaded audio into MP3.
// It is the fallback for when yt-dlp hands back a container other than MP3
// (m4a/webm/opus) despite --audio-format.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tunepull/internal/util"
)

// Options control ffmpeg execution.
type Options struct {
	FFmpegPath string
	Verbose    bool
	Runner     util.CmdRunner
}

// NeedsConversion reports whether the file at path is not already an MP3.
func NeedsConversion(path string) bool {
	return !strings.EqualFold(filepath.Ext(path), ".mp3")
}

// BuildArgs constructs the ffmpeg argument list for an MP3 conversion.
// -q:a 0 selects the highest VBR quality; ID3v2.3 maximizes player
// compatibility.
func BuildArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-c:a", "libmp3lame",
		"-q:a", "0",
		"-id3v2_version", "3",
		outputPath,
	}
}

// ToMP3 converts inputPath into an MP3 next to it and returns the new path.
// The input file is removed on success.
func ToMP3(ctx context.Context, inputPath string, opts Options) (string, error) {
	if opts.FFmpegPath == "" {
		return "", errors.New("ffmpeg path is required")
	}
	if inputPath == "" {
		return "", errors.New("input path is required")
	}
	r := opts.Runner
	if r == nil {
		r = util.NewDefaultRunner()
	}

	outputPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".mp3"
	_, runErr := r.Run(ctx, util.CmdSpec{
		Path:    opts.FFmpegPath,
		Args:    BuildArgs(inputPath, outputPath),
		Verbose: opts.Verbose,
	})
	if runErr != nil {
		_ = util.RemoveIfExists(outputPath)
		return "", fmt.Errorf("ffmpeg failed: %w", runErr)
	}
	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("stat output: %w", err)
	}
	_ = os.Remove(inputPath)
	return outputPath, nil
}
