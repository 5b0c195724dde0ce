package tracemoe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/mo"
)

// SearchResponse is returned by the search operations.
type SearchResponse struct {
	// CheckedFramesCount is the number of frames trace.moe compared against.
	CheckedFramesCount int
	// Results are ordered from most to least similar, as delivered by trace.moe.
	Results []SearchResult
}

// SearchResult describes one matching scene.
type SearchResult struct {
	// AnilistInfo only carries ID unless extra AniList info was requested.
	AnilistInfo AnilistInfo
	// Filename of the source video containing the scene.
	Filename string
	// Episode is absent when trace.moe could not parse one from the filename.
	Episode              mo.Option[Episode]
	FromTimestamp        float64
	ToTimestamp          float64
	SimilarityPercentage float64
	VideoURL             string
	ImageURL             string
}

// AnilistInfo identifies the anime on AniList.
type AnilistInfo struct {
	ID          int
	MalID       mo.Option[int]
	Title       mo.Option[AnilistTitle]
	Synonyms    mo.Option[[]string]
	IsNSFWAnime mo.Option[bool]
}

// AnilistTitle holds the titles AniList knows an anime by.
type AnilistTitle struct {
	NativeTitle  mo.Option[string]
	RomajiTitle  string
	EnglishTitle mo.Option[string]
}

// DisplayTitle returns the English title, falling back to romaji
func (t AnilistTitle) DisplayTitle() string {
	if english, ok := t.EnglishTitle.Get(); ok && english != "" {
		return english
	}
	return t.RomajiTitle
}

// Limits describes the quota attached to the caller's API key or IP address.
type Limits struct {
	// ID is the caller's IP address when no API key is used.
	ID             string
	Priority       int
	Concurrency    int
	TotalQuota     int
	RemainingQuota int
}

// EpisodeKind tells which form an Episode value takes
type EpisodeKind int

const (
	// EpisodeNumber is a single episode number
	EpisodeNumber EpisodeKind = iota + 1
	// EpisodeLabel is a free-form label such as "OVA"
	EpisodeLabel
	// EpisodeList is a set of episodes, e.g. a batch release
	EpisodeList
)

// Episode is the episode trace.moe parsed from the source filename.
type Episode struct {
	kind    EpisodeKind
	number  float64
	label   string
	numbers []float64
}

// NewEpisodeNumber creates a numeric episode
func NewEpisodeNumber(n float64) Episode {
	return Episode{kind: EpisodeNumber, number: n}
}

// NewEpisodeLabel creates a labelled episode
func NewEpisodeLabel(label string) Episode {
	return Episode{kind: EpisodeLabel, label: label}
}

// NewEpisodeList creates an episode spanning several numbers
func NewEpisodeList(numbers ...float64) Episode {
	return Episode{kind: EpisodeList, numbers: append([]float64(nil), numbers...)}
}

// Kind returns the form of the episode
func (e Episode) Kind() EpisodeKind {
	return e.kind
}

// Number returns the episode number for EpisodeNumber values
func (e Episode) Number() (float64, bool) {
	return e.number, e.kind == EpisodeNumber
}

// Label returns the label for EpisodeLabel values
func (e Episode) Label() (string, bool) {
	return e.label, e.kind == EpisodeLabel
}

// Numbers returns a copy of the numbers for EpisodeList values
func (e Episode) Numbers() ([]float64, bool) {
	if e.kind != EpisodeList {
		return nil, false
	}
	return append([]float64(nil), e.numbers...), true
}

// Contains reports whether the episode is or includes n
func (e Episode) Contains(n float64) bool {
	switch e.kind {
	case EpisodeNumber:
		return e.number == n
	case EpisodeList:
		for _, num := range e.numbers {
			if num == n {
				return true
			}
		}
	case EpisodeLabel:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(e.label), 64); err == nil {
			return parsed == n
		}
	}
	return false
}

// String renders the episode, joining lists with "-"
func (e Episode) String() string {
	switch e.kind {
	case EpisodeNumber:
		return formatNumber(e.number)
	case EpisodeLabel:
		return e.label
	case EpisodeList:
		parts := make([]string, len(e.numbers))
		for i, n := range e.numbers {
			parts[i] = formatNumber(n)
		}
		return strings.Join(parts, "-")
	default:
		return ""
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// SearchOptions tune a search request. The zero value sends no options.
type SearchOptions struct {
	// CutBlackBorders asks trace.moe to crop black borders before searching.
	CutBlackBorders bool
	// AnilistID restricts the search to one anime.
	AnilistID mo.Option[int]
	// IncludeAnilistInfo returns titles, synonyms and the MAL ID in AnilistInfo.
	IncludeAnilistInfo bool
}

// MediaKind selects between the video and image previews of a result
type MediaKind int

const (
	// MediaVideo is the short video preview
	MediaVideo MediaKind = iota
	// MediaImage is the still image preview
	MediaImage
)

// String returns the string representation of a MediaKind
func (k MediaKind) String() string {
	switch k {
	case MediaVideo:
		return "video"
	case MediaImage:
		return "image"
	default:
		return "unknown"
	}
}

// ParseMediaKind parses "video" or "image"
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video":
		return MediaVideo, nil
	case "image":
		return MediaImage, nil
	}
	return 0, fmt.Errorf("%w: unknown media kind %q", ErrInvalidConfig, s)
}

// MediaSize is the preview size requested from trace.moe
type MediaSize string

const (
	MediaSizeSmall  MediaSize = "s"
	MediaSizeMedium MediaSize = "m"
	MediaSizeLarge  MediaSize = "l"
)

// ParseMediaSize accepts both long ("small") and short ("s") names.
// An empty string yields MediaSizeMedium.
func ParseMediaSize(s string) (MediaSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "m", "medium":
		return MediaSizeMedium, nil
	case "s", "small":
		return MediaSizeSmall, nil
	case "l", "large":
		return MediaSizeLarge, nil
	}
	return "", fmt.Errorf("%w: unknown media size %q", ErrInvalidConfig, s)
}

// DownloadOptions control where and how a preview is saved.
type DownloadOptions struct {
	// Size defaults to MediaSizeMedium.
	Size MediaSize
	// Mute strips the audio track; videos only.
	Mute bool
	// Directory defaults to the current directory and is created when missing.
	Directory string
	// Name is the destination filename; the extension is added when missing.
	Name string
	// Progress is called by DownloadAll after each saved file, possibly from several
	// goroutines at once.
	Progress func(result SearchResult, path string)
}
