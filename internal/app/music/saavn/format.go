package saavn

import "strings"

var entityReplacer = strings.NewReplacer(
	"&quot;", "'",
	"&amp;", "&",
	"&#039;", "'",
)

// CleanText undoes the HTML entity escaping JioSaavn applies to titles,
// artist names, and album names.
func CleanText(s string) string {
	return entityReplacer.Replace(s)
}

// UpscaleImage swaps the default 150x150 artwork variant for 500x500.
func UpscaleImage(url string) string {
	return strings.Replace(url, "150x150", "500x500", 1)
}

// MediaURLForBitrate downgrades a 320kbps URL to 160kbps when the song's
// metadata says the higher bitrate does not exist.
func MediaURLForBitrate(url string, has320 bool) string {
	if has320 {
		return url
	}
	return strings.Replace(url, "_320.mp4", "_160.mp4", 1)
}

// PreviewURL derives the short preview stream from a full media URL.
func PreviewURL(mediaURL string) string {
	r := strings.NewReplacer("_320.mp4", "_96_p.mp4", "_160.mp4", "_96_p.mp4", "//aac.", "//preview.")
	return r.Replace(mediaURL)
}

// MediaURLFromPreview reverses PreviewURL for responses that only carry a
// preview link.
func MediaURLFromPreview(previewURL string, has320 bool) string {
	url := strings.Replace(previewURL, "preview", "aac", 1)
	if has320 {
		return strings.Replace(url, "_96_p.mp4", "_320.mp4", 1)
	}
	return strings.Replace(url, "_96_p.mp4", "_160.mp4", 1)
}
