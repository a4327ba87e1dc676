package downloader

// Info mirrors the fields from yt-dlp --dump-json output that we care about.
type Info struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	Channel     string  `json:"channel"`
	Duration    float64 `json:"duration"`
	UploadDate  string  `json:"upload_date"` // YYYYMMDD
	Thumbnail   string  `json:"thumbnail"`
	Description string  `json:"description"`
}

// UploadYear extracts the four-digit year from UploadDate, or "" if unknown.
func (i Info) UploadYear() string {
	if len(i.UploadDate) < 4 {
		return ""
	}
	return i.UploadDate[:4]
}

// BestUploader prefers the uploader name, falling back to the channel name.
func (i Info) BestUploader() string {
	if i.Uploader != "" {
		return i.Uploader
	}
	return i.Channel
}
