package util

import "testing"

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		raw     string
		want    URLKind
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", KindVideo, false},
		{"https://youtu.be/dQw4w9WgXcQ", KindVideo, false},
		{"https://music.youtube.com/watch?v=dQw4w9WgXcQ", KindVideo, false},
		{"https://www.youtube.com/shorts/abc123", KindVideo, false},
		{"https://www.youtube.com/playlist?list=PL123", KindPlaylist, false},
		{"youtube.com/watch?v=dQw4w9WgXcQ", KindVideo, false},
		// Watch URL inside a playlist downloads the single video.
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123", KindVideo, false},
		{"https://www.youtube.com/playlist", "", true},
		{"https://www.youtube.com/watch", "", true},
		{"https://vimeo.com/12345", "", true},
		{"://", "", true},
	}
	for _, tt := range tests {
		kind, _, err := ClassifyURL(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ClassifyURL(%q): expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ClassifyURL(%q): %v", tt.raw, err)
			continue
		}
		if kind != tt.want {
			t.Errorf("ClassifyURL(%q) = %q, want %q", tt.raw, kind, tt.want)
		}
	}
}

func TestWatchURL(t *testing.T) {
	if got := WatchURL("abc"); got != "https://www.youtube.com/watch?v=abc" {
		t.Errorf("WatchURL = %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Daft Punk", "Daft_Punk"},
		{"a/b\\c:d", "a_b_c_d"},
		{"", "untitled"},
		{"...", "untitled"},
		{"hello   world", "hello_world"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
