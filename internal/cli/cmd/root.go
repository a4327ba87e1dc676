// Package cmd defines the tunepull command tree.
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tunepull/internal/config"
	"tunepull/internal/dirs"
)

const (
	ExitOK            = 0
	ExitCLIError      = 1
	ExitMissingDep    = 2
	ExitDownloadError = 3
	ExitTagError      = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tunepull [urls...]",
		Short:         "Download music and playlists from YouTube",
		Long:          "Tunepull fetches YouTube videos and playlists as tagged MP3s (or MP4 videos). Give it links, and it downloads them in parallel, converts audio to MP3, guesses artist and title, and writes ID3 tags with embedded cover art.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bare `tunepull <url>` behaves like `tunepull run <url>`.
			return runExecute(cmd, args, runMode{ForceTUI: false})
		},
	}

	// Persistent flags available to all subcommands
	root.PersistentFlags().StringP("out-dir", "o", dirs.MusicDir(), "Output directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "Show full subprocess commands/output")
	root.PersistentFlags().String("dl-binary", "", "Path to yt-dlp or youtube-dl")
	root.PersistentFlags().IntP("jobs", "j", 2, "Max concurrent downloads (1-10)")
	root.PersistentFlags().Int("retries", 3, "Attempts per job before giving up")
	root.PersistentFlags().Int("retry-delay", 2, "Seconds between retry attempts")
	root.PersistentFlags().String("cookies-from", "", "Browser to read YouTube cookies from (chrome, firefox, ...)")

	// Also bind run flags on root, so `tunepull <url>` works without the
	// explicit subcommand.
	bindRunFlags(root.Flags())

	_ = config.Init(root)

	// Subcommands
	root.AddCommand(newRunCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newTagCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func bindRunFlags(fs *pflag.FlagSet) {
	fs.StringP("mode", "m", "audio", "Download mode: audio (MP3) or video (MP4)")
	fs.StringP("quality", "q", "best", "Video quality: best, 1080p, 720p, 480p, worst")
	fs.Bool("skip-tags", false, "Leave MP3s untagged")
	fs.Bool("embed-cover", true, "Embed the video thumbnail as front cover art")
	fs.Bool("keep-temp", false, "Keep intermediate downloads")
	fs.Bool("no-ui", false, "Disable TUI; use plain textual output")
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}

// Helpers. Precedence per option: flag > env/config > default.
func getPersistentString(cmd *cobra.Command, name, def string) string {
	if f := cmd.InheritedFlags().Lookup(name); f != nil && f.Changed {
		return f.Value.String()
	}
	if v := viper.GetString(configKey(name)); v != "" {
		return v
	}
	v, err := cmd.InheritedFlags().GetString(name)
	if err != nil || v == "" {
		return def
	}
	return v
}

func getPersistentBool(cmd *cobra.Command, name string, def bool) bool {
	if f := cmd.InheritedFlags().Lookup(name); f != nil && f.Changed {
		v, _ := cmd.InheritedFlags().GetBool(name)
		return v
	}
	if viper.IsSet(configKey(name)) {
		return viper.GetBool(configKey(name))
	}
	v, err := cmd.InheritedFlags().GetBool(name)
	if err != nil {
		return def
	}
	return v
}

func getPersistentInt(cmd *cobra.Command, name string, def int) int {
	if f := cmd.InheritedFlags().Lookup(name); f != nil && f.Changed {
		v, _ := cmd.InheritedFlags().GetInt(name)
		return v
	}
	if viper.IsSet(configKey(name)) {
		return viper.GetInt(configKey(name))
	}
	v, err := cmd.InheritedFlags().GetInt(name)
	if err != nil {
		return def
	}
	return v
}

func configKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

func ensureDir(path string) error {
	if path == "" {
		path = "."
	}
	return os.MkdirAll(filepath.Clean(path), 0o755)
}
