package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tunepull/internal/playlist"
	"tunepull/internal/util"
	"tunepull/internal/util/deps"
	"tunepull/internal/util/format"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "list <playlist-url>",
		Short:         "List playlist entries without downloading",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _, err := util.ClassifyURL(args[0])
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			if kind != util.KindPlaylist {
				return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("not a playlist URL: %s", args[0])}
			}

			dlPath, derr := deps.FindDownloader(getPersistentString(cmd, "dl-binary", ""))
			if derr != nil {
				return &ExitError{Code: ExitMissingDep, Err: derr}
			}

			entries, err := playlist.Fetch(cmd.Context(), args[0], playlist.Options{
				DownloaderPath: dlPath,
				Verbose:        getPersistentBool(cmd, "verbose", false),
			})
			if err != nil {
				return &ExitError{Code: ExitDownloadError, Err: err}
			}

			out := cmd.OutOrStdout()
			for i, e := range entries {
				dur := ""
				if e.DurationSec > 0 {
					dur = " [" + format.Duration(int(e.DurationSec)) + "]"
				}
				fmt.Fprintf(out, "%3d. %s%s\n     %s\n", i+1, e.Title, dur, e.WatchURL())
			}
			fmt.Fprintf(out, "%d entries\n", len(entries))
			return nil
		},
	}
}
