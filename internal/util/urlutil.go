package util

import (
	"fmt"
	"net/url"
	"strings"
)

// URLKind distinguishes supported YouTube URL shapes.
type URLKind string

const (
	KindVideo    URLKind = "video"
	KindPlaylist URLKind = "playlist"
)

// ClassifyURL parses a raw URL string and determines whether it targets a
// single YouTube video or a playlist. Bare strings without a scheme are
// retried with https:// prepended.
func ClassifyURL(raw string) (URLKind, *url.URL, error) {
	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "" || u.Host == "") {
		if u2, e2 := url.Parse("https://" + raw); e2 == nil {
			u = u2
		}
	}
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", nil, fmt.Errorf("invalid URL %q", raw)
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")

	switch host {
	case "youtu.be":
		return KindVideo, u, nil
	case "youtube.com", "m.youtube.com", "music.youtube.com":
	default:
		return "", nil, fmt.Errorf(
			"unsupported URL %q: only YouTube is supported (youtube.com, youtu.be, music.youtube.com)",
			raw,
		)
	}

	q := u.Query()
	switch {
	case strings.HasPrefix(u.Path, "/playlist"):
		if q.Get("list") == "" {
			return "", nil, fmt.Errorf("playlist URL %q is missing the list parameter", raw)
		}
		return KindPlaylist, u, nil
	case strings.HasPrefix(u.Path, "/watch"):
		if q.Get("v") == "" {
			return "", nil, fmt.Errorf("watch URL %q is missing the v parameter", raw)
		}
		// A watch URL inside a playlist still downloads the single video;
		// use the playlist URL to get the whole list.
		return KindVideo, u, nil
	case strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/live/"), strings.HasPrefix(u.Path, "/embed/"):
		return KindVideo, u, nil
	default:
		return "", nil, fmt.Errorf("unsupported YouTube URL %q", raw)
	}
}

// WatchURL builds a canonical watch URL for a video ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
