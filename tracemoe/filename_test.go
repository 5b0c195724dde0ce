package tracemoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFilename(t *testing.T) {
	result := SearchResult{
		Filename: "foo.mp4",
		ImageURL: "https://media.trace.moe/image/1/foo.mp4.jpg?t=290.625&now=1&token=abc",
		VideoURL: "https://media.trace.moe/video/1/foo.mp4?t=290.625&now=1&token=abc",
	}

	tests := []struct {
		name      string
		kind      MediaKind
		requested string
		expected  string
	}{
		{name: "default video", kind: MediaVideo, expected: "foo@290.625.mp4"},
		{name: "default image", kind: MediaImage, expected: "foo@290.625.jpg"},
		{name: "accepted extension keeps casing", kind: MediaVideo, requested: "clip.MP4", expected: "clip.MP4"},
		{name: "missing image extension", kind: MediaImage, requested: "clip", expected: "clip.jpg"},
		{name: "jpeg accepted", kind: MediaImage, requested: "still.JPEG", expected: "still.JPEG"},
		{name: "wrong extension is appended to", kind: MediaVideo, requested: "clip.m4a", expected: "clip.m4a.mp4"},
		{name: "image extension on video", kind: MediaVideo, requested: "clip.jpg", expected: "clip.jpg.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := resolveFilename(result, tt.kind, tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, name)
		})
	}
}

func TestResolveFilename_SourceWithoutExtension(t *testing.T) {
	result := SearchResult{Filename: "[Group] Show - 01", ImageURL: "https://media.trace.moe/i?t=12"}

	name, err := resolveFilename(result, MediaImage, "")
	require.NoError(t, err)
	assert.Equal(t, "[Group] Show - 01@12.jpg", name)
}

func TestResolveFilename_InvalidImageURL(t *testing.T) {
	result := SearchResult{Filename: "foo.mp4", ImageURL: "://bad"}

	_, err := resolveFilename(result, MediaVideo, "")
	assert.Error(t, err)
}
