package youtube

import "regexp"

// videoIDPattern matches watch?v=, youtu.be/, embed/, e/, v/ and /<path>/<x>/ URL shapes.
var videoIDPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?)/|\S*?[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// ExtractVideoID returns the 11-character video ID found in raw, or false when no
// recognizable YouTube URL is present. It does not check that the video exists.
func ExtractVideoID(raw string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(raw)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}
