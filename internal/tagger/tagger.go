// Package tagger reads and writes ID3v2 tags on MP3 files, including
// embedded cover art.
package tagger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/bogem/id3v2"

	"tunepull/internal/model"
)

// Apply writes the given metadata into the MP3 at path. Empty fields leave
// the existing frame untouched. When coverPath points at a JPEG, it is
// embedded as the front cover.
func Apply(path string, meta model.TrackMeta, coverPath string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open tags: %w", err)
	}
	defer tag.Close()

	if meta.Title != "" {
		tag.SetTitle(meta.Title)
	}
	if meta.Artist != "" {
		tag.SetArtist(meta.Artist)
	}
	if meta.Album != "" {
		tag.SetAlbum(meta.Album)
	}
	if meta.Year != "" {
		tag.SetYear(meta.Year)
	}
	if meta.Genre != "" {
		tag.SetGenre(meta.Genre)
	}

	if coverPath != "" {
		art, err := os.ReadFile(coverPath)
		if err != nil {
			return fmt.Errorf("read cover art: %w", err)
		}
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     art,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

// Read returns the current tag values of the MP3 at path.
func Read(path string) (model.TrackMeta, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return model.TrackMeta{}, fmt.Errorf("open tags: %w", err)
	}
	defer tag.Close()

	return model.TrackMeta{
		Title:  tag.Title(),
		Artist: tag.Artist(),
		Album:  tag.Album(),
		Year:   tag.Year(),
		Genre:  tag.Genre(),
	}, nil
}

// coverClient downloads thumbnails; a short timeout keeps a slow CDN from
// stalling the whole job.
var coverClient = &http.Client{Timeout: 15 * time.Second}

// DownloadCover fetches a thumbnail URL into destPath. Best-effort: callers
// treat a failed cover as a warning, not a job failure.
func DownloadCover(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := coverClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cover art fetch: unexpected status %s", resp.Status)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		_ = os.Remove(destPath)
		return err
	}
	return f.Close()
}
