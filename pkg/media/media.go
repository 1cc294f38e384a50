// Package media decides which media URLs are safe to render and which
// uploaded files are accepted as media.
package media

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"feedfinder/pkg/models"
)

var (
	trustedPrefix = regexp.MustCompile(`(?i)^(https?://|blob:|/|\./)`)
	imagePath     = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|webp|avif)$`)
	videoPath     = regexp.MustCompile(`(?i)\.(mp4|webm|mov|ogg)$`)
)

// IsSafeImageURL reports whether u may be used as an image source: a
// relative or http(s)/blob URL whose path has an image extension.
func IsSafeImageURL(u string) bool {
	return isSafe(u, imagePath)
}

// IsSafeVideoURL is IsSafeImageURL for video extensions.
func IsSafeVideoURL(u string) bool {
	return isSafe(u, videoPath)
}

func isSafe(u string, ext *regexp.Regexp) bool {
	if u == "" || !trustedPrefix.MatchString(u) {
		return false
	}
	p := urlPath(u)
	return p != "" && ext.MatchString(p)
}

// urlPath returns the path component, ignoring query and fragment.
// blob: URLs wrap another URL, so the inner one is parsed.
func urlPath(u string) string {
	if len(u) >= 5 && strings.EqualFold(u[:5], "blob:") {
		u = u[5:]
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return parsed.Path
}

// InferMediaType guesses the media type from the URL's extension. Anything
// that is not a known video extension is treated as an image.
func InferMediaType(u string) models.MediaType {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(urlPath(u))), ".")
	switch ext {
	case "mp4", "mov", "webm":
		return models.MediaVideo
	default:
		return models.MediaImage
	}
}

// IsVideoExtension reports whether u ends with a video extension that the
// profile grid renders as a player.
func IsVideoExtension(u string) bool {
	return InferMediaType(u) == models.MediaVideo
}
