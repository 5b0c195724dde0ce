package tracemoe

import (
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
)

var (
	videoExtensions = []string{".mp4"}
	imageExtensions = []string{".jpg", ".jpeg"}
)

// acceptedExtensions returns the allowed extensions for kind; the first one is the default.
func acceptedExtensions(kind MediaKind) []string {
	if kind == MediaVideo {
		return videoExtensions
	}
	return imageExtensions
}

// resolveFilename picks the destination filename for a preview.
//
// Without a requested name it builds "<source name>@<timestamp><ext>" from the result.
// A requested name keeps its casing; the default extension is appended when the name
// has no accepted extension.
func resolveFilename(result SearchResult, kind MediaKind, requested string) (string, error) {
	exts := acceptedExtensions(kind)

	if requested != "" {
		ext := strings.ToLower(filepath.Ext(requested))
		if slices.Contains(exts, ext) {
			return requested, nil
		}
		return requested + exts[0], nil
	}

	imageURL, err := url.Parse(result.ImageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse image URL: %w", err)
	}
	timestamp := imageURL.Query().Get("t")

	base := result.Filename
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		base = base[:idx]
	}

	return fmt.Sprintf("%s@%s%s", base, timestamp, exts[0]), nil
}
