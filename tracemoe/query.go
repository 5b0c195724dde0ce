package tracemoe

import (
	"net/url"
	"strconv"
	"strings"
)

// queryParam is one search parameter; flags have no value.
type queryParam struct {
	key   string
	value string
	flag  bool
}

// buildQuery renders search options in the fixed order url, cutBorders, anilistID,
// anilistInfo. It returns "" when there is nothing to send.
func buildQuery(opts SearchOptions, mediaURL string) string {
	params := make([]queryParam, 0, 4)

	if mediaURL != "" {
		params = append(params, queryParam{key: "url", value: url.QueryEscape(mediaURL)})
	}
	if opts.CutBlackBorders {
		params = append(params, queryParam{key: "cutBorders", flag: true})
	}
	if id, ok := opts.AnilistID.Get(); ok {
		params = append(params, queryParam{key: "anilistID", value: strconv.Itoa(id)})
	}
	if opts.IncludeAnilistInfo {
		params = append(params, queryParam{key: "anilistInfo", flag: true})
	}

	if len(params) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteByte('?')
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		if !p.flag {
			b.WriteByte('=')
			b.WriteString(p.value)
		}
	}
	return b.String()
}
