package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tunepull/internal/model"
	"tunepull/internal/tagger"
)

func newTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tag <file-or-folder>",
		Short:         "Write ID3 tags on existing MP3 files",
		Long:          "Tag writes ID3v2 tags on an MP3 file or every MP3 in a folder. Artist and title are guessed from the filename unless overridden by flags.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := model.TrackMeta{}
			overrides.Title, _ = cmd.Flags().GetString("title")
			overrides.Artist, _ = cmd.Flags().GetString("artist")
			overrides.Album, _ = cmd.Flags().GetString("album")
			overrides.Genre, _ = cmd.Flags().GetString("genre")
			overrides.Year, _ = cmd.Flags().GetString("year")

			target := args[0]
			fi, err := os.Stat(target)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}

			if !fi.IsDir() {
				if err := tagOne(target, overrides); err != nil {
					return &ExitError{Code: ExitTagError, Err: err}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tagged: %s\n", target)
				return nil
			}

			if overrides.Title != "" {
				return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("--title only applies to a single file")}
			}
			matches, err := filepath.Glob(filepath.Join(target, "*.mp3"))
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			if len(matches) == 0 {
				return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("no MP3 files in %s", target)}
			}

			tagged, failed := 0, 0
			for _, path := range matches {
				if err := tagOne(path, overrides); err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "warning: %s: %v\n", path, err)
					continue
				}
				tagged++
				fmt.Fprintf(cmd.OutOrStdout(), "Tagged: %s\n", path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Done: %d tagged, %d failed\n", tagged, failed)
			if failed > 0 {
				return &ExitError{Code: ExitTagError, Err: fmt.Errorf("%d file(s) could not be tagged", failed)}
			}
			return nil
		},
	}

	cmd.Flags().String("title", "", "Track title (single file only)")
	cmd.Flags().String("artist", "", "Artist name")
	cmd.Flags().String("album", "", "Album name")
	cmd.Flags().String("genre", "", "Genre")
	cmd.Flags().String("year", "", "Release year")
	return cmd
}

// tagOne fills any missing fields from the filename, then writes the tag.
func tagOne(path string, overrides model.TrackMeta) error {
	meta := overrides
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	artist, title := tagger.GuessFromFilename(stem)
	if meta.Artist == "" {
		meta.Artist = artist
	}
	if meta.Title == "" {
		meta.Title = title
	}
	return tagger.Apply(path, meta, "")
}
