package tracemoe

import (
	"fmt"
	"math"

	"github.com/samber/mo"
)

// roundingEpsilon is the IEEE-754 double machine epsilon. Adding it before rounding
// keeps values such as 1.0194999999999999 (meant as 1.0195) from rounding down.
const roundingEpsilon = 2.220446049250313e-16

const similarityPrecision = 3

// normalizeSearchResponse converts a decoded /search body into a SearchResponse.
// statusCode is only used to describe a rejection carried in a 2xx body.
func normalizeSearchResponse(raw *wireSearchResponse, statusCode int) (*SearchResponse, error) {
	if raw.Error != "" {
		return nil, &APIError{StatusCode: statusCode, Message: raw.Error}
	}
	if raw.Result == nil {
		return nil, fmt.Errorf("%w: search response has neither result nor error", ErrMalformedResponse)
	}

	results := make([]SearchResult, 0, len(*raw.Result))
	for i, r := range *raw.Result {
		result, err := normalizeResult(r)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		results = append(results, result)
	}

	return &SearchResponse{
		CheckedFramesCount: raw.FrameCount,
		Results:            results,
	}, nil
}

func normalizeResult(r wireResult) (SearchResult, error) {
	if !r.Anilist.present {
		return SearchResult{}, fmt.Errorf("%w: result has no anilist id", ErrMalformedResponse)
	}

	result := SearchResult{
		AnilistInfo:          normalizeAnilist(r.Anilist),
		Filename:             r.Filename,
		Episode:              mo.None[Episode](),
		FromTimestamp:        r.From,
		ToTimestamp:          r.To,
		SimilarityPercentage: similarityPercentage(r.Similarity),
		VideoURL:             r.Video,
		ImageURL:             r.Image,
	}
	if r.Episode.present {
		result.Episode = mo.Some(r.Episode.value)
	}
	return result, nil
}

func normalizeAnilist(ref anilistRef) AnilistInfo {
	info := AnilistInfo{
		ID:          ref.id,
		MalID:       mo.None[int](),
		Title:       mo.None[AnilistTitle](),
		Synonyms:    mo.None[[]string](),
		IsNSFWAnime: mo.None[bool](),
	}

	full := ref.full
	if full == nil {
		return info
	}

	if full.IDMal != nil {
		info.MalID = mo.Some(*full.IDMal)
	}
	if full.Title != nil {
		info.Title = mo.Some(normalizeTitle(*full.Title))
	}
	if full.Synonyms != nil {
		info.Synonyms = mo.Some(append([]string(nil), full.Synonyms...))
	}
	if full.IsAdult != nil {
		info.IsNSFWAnime = mo.Some(*full.IsAdult)
	}
	return info
}

func normalizeTitle(t wireAnilistTitle) AnilistTitle {
	title := AnilistTitle{
		NativeTitle:  mo.None[string](),
		RomajiTitle:  t.Romaji,
		EnglishTitle: mo.None[string](),
	}
	if t.Native != nil {
		title.NativeTitle = mo.Some(*t.Native)
	}
	if t.English != nil {
		title.EnglishTitle = mo.Some(*t.English)
	}
	return title
}

func normalizeLimits(raw *wireLimits) *Limits {
	return &Limits{
		ID:             raw.ID,
		Priority:       raw.Priority,
		Concurrency:    raw.Concurrency,
		TotalQuota:     raw.Quota,
		RemainingQuota: raw.Quota - raw.QuotaUsed,
	}
}

func similarityPercentage(similarity float64) float64 {
	// float64() keeps the compiler from fusing the multiply into the rounding add.
	return roundToPrecision(float64(similarity*100), similarityPrecision)
}

// roundToPrecision rounds half away from zero to the given number of decimals.
func roundToPrecision(value float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.Round((value+roundingEpsilon)*scale) / scale
}
