package tagger

import (
	"regexp"
	"strings"
)

// Video titles and filenames usually encode the split as
// "Artist - Title", "Artist: Title", or "Artist | Title".
var splitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.+?)\s*[-–—]\s*(.+)$`),
	regexp.MustCompile(`^(.+?)\s*:\s*(.+)$`),
	regexp.MustCompile(`^(.+?)\s*\|\s*(.+)$`),
}

// trackPattern matches "NN - Artist - Title" filenames from numbered
// playlist downloads.
var trackPattern = regexp.MustCompile(`^(\d+)\s*[-.)]\s*(.+?)\s*[-–—]\s*(.+)$`)

// Decorations commonly appended to video titles that don't belong in tags.
var suffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*\(official\s+(?:music\s+)?video\)`),
	regexp.MustCompile(`(?i)\s*\(official\s+audio\)`),
	regexp.MustCompile(`(?i)\s*\(lyric\s+video\)`),
	regexp.MustCompile(`(?i)\s*\(lyrics\)`),
	regexp.MustCompile(`(?i)\s*\[official\s*(?:video|audio)?\]`),
	regexp.MustCompile(`(?i)\s*\(hd\)`),
	regexp.MustCompile(`(?i)\s*\(hq\)`),
	regexp.MustCompile(`(?i)\s*\[4k\]`),
}

// CleanTitle strips "(Official Video)"-style decorations.
func CleanTitle(s string) string {
	for _, p := range suffixPatterns {
		s = p.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

// GuessFromTitle splits a video title into artist and song title. The
// uploader name decides which side is the artist when it appears in one of
// them; otherwise "Artist - Title" order is assumed. When no separator
// matches, the uploader becomes the artist and the whole title the song.
func GuessFromTitle(title, uploader string) (artist, song string) {
	artist = uploader
	song = title

	up := strings.ToLower(strings.TrimSpace(uploader))
	for _, p := range splitPatterns {
		m := p.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		part1, part2 := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		switch {
		case up != "" && strings.Contains(strings.ToLower(part1), up):
			artist, song = part1, part2
		case up != "" && strings.Contains(strings.ToLower(part2), up):
			artist, song = part2, part1
		default:
			artist, song = part1, part2
		}
		break
	}

	return CleanTitle(artist), CleanTitle(song)
}

// GuessFromFilename splits a filename stem (no extension) into artist and
// title. Recognizes "NN - Artist - Title" and "Artist - Title"; underscores
// from --restrict-filenames are treated as spaces. Returns empty artist when
// nothing matches.
func GuessFromFilename(stem string) (artist, title string) {
	s := strings.TrimSpace(strings.ReplaceAll(stem, "_", " "))

	if m := trackPattern.FindStringSubmatch(s); m != nil {
		return CleanTitle(m[2]), CleanTitle(m[3])
	}
	for _, p := range splitPatterns {
		if m := p.FindStringSubmatch(s); m != nil {
			return CleanTitle(m[1]), CleanTitle(m[2])
		}
	}
	return "", CleanTitle(s)
}
