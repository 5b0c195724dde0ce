package tracemoe

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireSearchResponse is the raw /search payload.
type wireSearchResponse struct {
	FrameCount int           `json:"frameCount"`
	Error      string        `json:"error"`
	Result     *[]wireResult `json:"result"`
}

type wireResult struct {
	Anilist    anilistRef  `json:"anilist"`
	Filename   string      `json:"filename"`
	Episode    wireEpisode `json:"episode"`
	From       float64     `json:"from"`
	To         float64     `json:"to"`
	Similarity float64     `json:"similarity"`
	Video      string      `json:"video"`
	Image      string      `json:"image"`
}

type wireAnilistInfo struct {
	ID       int               `json:"id"`
	IDMal    *int              `json:"idMal"`
	Title    *wireAnilistTitle `json:"title"`
	Synonyms []string          `json:"synonyms"`
	IsAdult  *bool             `json:"isAdult"`
}

type wireAnilistTitle struct {
	Native  *string `json:"native"`
	Romaji  string  `json:"romaji"`
	English *string `json:"english"`
}

// wireLimits is the raw /me payload.
type wireLimits struct {
	ID          string `json:"id"`
	Priority    int    `json:"priority"`
	Concurrency int    `json:"concurrency"`
	Quota       int    `json:"quota"`
	QuotaUsed   int    `json:"quotaUsed"`
}

// wireErrorEnvelope is the body trace.moe sends with failing statuses.
type wireErrorEnvelope struct {
	Error string `json:"error"`
}

// anilistRef is either a bare AniList ID or the full info object, depending on
// whether anilistInfo was requested.
type anilistRef struct {
	present bool
	id      int
	full    *wireAnilistInfo
}

func (r *anilistRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("anilist: missing value")
	}

	if data[0] == '{' {
		var info wireAnilistInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return fmt.Errorf("anilist: %w", err)
		}
		r.present, r.id, r.full = true, info.ID, &info
		return nil
	}

	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("anilist: expected number or object: %w", err)
	}
	r.present, r.id, r.full = true, id, nil
	return nil
}

// wireEpisode holds the number | string | number[] | null episode union.
type wireEpisode struct {
	present bool
	value   Episode
}

func (e *wireEpisode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*e = wireEpisode{}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return fmt.Errorf("episode: %w", err)
		}
		e.present, e.value = true, NewEpisodeLabel(label)
	case '[':
		var numbers []float64
		if err := json.Unmarshal(data, &numbers); err != nil {
			return fmt.Errorf("episode: %w", err)
		}
		e.present, e.value = true, NewEpisodeList(numbers...)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("episode: %w", err)
		}
		e.present, e.value = true, NewEpisodeNumber(n)
	}
	return nil
}
