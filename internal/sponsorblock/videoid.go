package sponsorblock

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// VideoIDFromURL extracts a YouTube video ID from a watch, youtu.be, shorts,
// embed, or live URL, from a ytdl:// reference, or from a bare ID.
func VideoIDFromURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "ytdl://")
	if videoIDPattern.MatchString(raw) {
		return raw, true
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	host = strings.TrimPrefix(host, "music.")

	var candidate string
	switch host {
	case "youtu.be":
		candidate = firstPathSegment(parsed.Path)
	case "youtube.com", "youtube-nocookie.com":
		if v := parsed.Query().Get("v"); v != "" {
			candidate = v
			break
		}
		parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(parts) == 2 {
			switch parts[0] {
			case "shorts", "embed", "live", "v":
				candidate = parts[1]
			}
		}
	}

	if videoIDPattern.MatchString(candidate) {
		return candidate, true
	}
	return "", false
}

func firstPathSegment(path string) string {
	trimmed := strings.Trim(path, "/")
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[:idx]
	}
	return trimmed
}
