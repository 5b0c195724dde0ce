package filter

import (
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/tracescene/tracemoe"
)

func testResults() []tracemoe.SearchResult {
	return []tracemoe.SearchResult{
		{
			AnilistInfo: tracemoe.AnilistInfo{
				ID:    21034,
				MalID: mo.Some(29787),
				Title: mo.Some(tracemoe.AnilistTitle{
					NativeTitle:  mo.Some("ご注文はうさぎですか？？"),
					RomajiTitle:  "Gochuumon wa Usagi Desu ka??",
					EnglishTitle: mo.Some("Is the Order a Rabbit?? Season 2"),
				}),
				Synonyms:    mo.Some([]string{"Gochiusa 2"}),
				IsNSFWAnime: mo.Some(false),
			},
			Filename:             "[Ohys-Raws] Gochuumon wa Usagi Desu ka 2 - 01.mp4",
			Episode:              mo.Some(tracemoe.NewEpisodeNumber(1)),
			FromTimestamp:        288,
			ToTimestamp:          292,
			SimilarityPercentage: 94.404,
		},
		{
			AnilistInfo:          tracemoe.AnilistInfo{ID: 1},
			Filename:             "Cowboy Bebop - 05-06.mp4",
			Episode:              mo.Some(tracemoe.NewEpisodeList(5, 6)),
			FromTimestamp:        10,
			ToTimestamp:          12,
			SimilarityPercentage: 85.1,
		},
		{
			AnilistInfo:          tracemoe.AnilistInfo{ID: 2},
			Filename:             "Movie.mp4",
			Episode:              mo.None[tracemoe.Episode](),
			SimilarityPercentage: 70,
		},
	}
}

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid expression",
			expression: `Similarity > 90`,
		},
		{
			name:        "empty expression",
			expression:  "  ",
			wantErr:     true,
			errContains: "empty expression",
		},
		{
			name:       "invalid syntax",
			expression: `containsFold(Filename, "unclosed`,
			wantErr:    true,
		},
		{
			name:       "unknown variable",
			expression: `Year > 2020`,
			wantErr:    true,
		},
		{
			name:       "not a boolean",
			expression: `Similarity`,
			wantErr:    true,
		},
		{
			name:       "complex expression",
			expression: `HasEpisode and episodeIs(1) and titleMatches("rabbit") and not IsAdult`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := CompileFilter(tt.expression)

			if tt.wantErr {
				require.Error(t, err)
				var compErr *CompilationError
				assert.ErrorAs(t, err, &compErr)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expression, filter.Expression())
		})
	}
}

func TestFilterEvaluation(t *testing.T) {
	results := testResults()

	tests := []struct {
		name       string
		expression string
		expected   []string
	}{
		{
			name:       "similarity",
			expression: `Similarity >= 85`,
			expected:   []string{"[Ohys-Raws] Gochuumon wa Usagi Desu ka 2 - 01.mp4", "Cowboy Bebop - 05-06.mp4"},
		},
		{
			name:       "episode in list",
			expression: `episodeIs(6)`,
			expected:   []string{"Cowboy Bebop - 05-06.mp4"},
		},
		{
			name:       "episode string",
			expression: `Episode == "5-6"`,
			expected:   []string{"Cowboy Bebop - 05-06.mp4"},
		},
		{
			name:       "no episode",
			expression: `not HasEpisode`,
			expected:   []string{"Movie.mp4"},
		},
		{
			name:       "synonym",
			expression: `hasSynonym("gochiusa 2")`,
			expected:   []string{"[Ohys-Raws] Gochuumon wa Usagi Desu ka 2 - 01.mp4"},
		},
		{
			name:       "native title",
			expression: `titleMatches("うさぎ")`,
			expected:   []string{"[Ohys-Raws] Gochuumon wa Usagi Desu ka 2 - 01.mp4"},
		},
		{
			name:       "absent ids are zero",
			expression: `MalID == 0 and AnilistID < 10`,
			expected:   []string{"Cowboy Bebop - 05-06.mp4", "Movie.mp4"},
		},
		{
			name:       "string helpers",
			expression: `hasPrefix(Filename, "cowboy") or hasSuffix(lower(Filename), "movie.mp4")`,
			expected:   []string{"Cowboy Bebop - 05-06.mp4", "Movie.mp4"},
		},
		{
			name:       "contains ignoring case",
			expression: `containsFold(Filename, "BEBOP") or containsFold(EnglishTitle, "rabbit")`,
			expected:   []string{"[Ohys-Raws] Gochuumon wa Usagi Desu ka 2 - 01.mp4", "Cowboy Bebop - 05-06.mp4"},
		},
		{
			name:       "builtin string operators",
			expression: `Filename startsWith "Cowboy" or Filename endsWith "Movie.mp4" or Filename contains "Usagi"`,
			expected:   []string{"[Ohys-Raws] Gochuumon wa Usagi Desu ka 2 - 01.mp4", "Cowboy Bebop - 05-06.mp4", "Movie.mp4"},
		},
		{
			name:       "builtin operators are case sensitive",
			expression: `Filename startsWith "cowboy"`,
			expected:   []string{},
		},
		{
			name:       "time range",
			expression: `From >= 10 and To - From <= 4`,
			expected:   []string{"[Ohys-Raws] Gochuumon wa Usagi Desu ka 2 - 01.mp4", "Cowboy Bebop - 05-06.mp4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := CompileFilter(tt.expression)
			require.NoError(t, err)

			matched := Apply(filter, results)
			filenames := make([]string, len(matched))
			for i, r := range matched {
				filenames[i] = r.Filename
			}
			assert.Equal(t, tt.expected, filenames)
		})
	}
}

func TestFilterEvaluationError(t *testing.T) {
	filter, err := CompileFilter(`Synonyms[3] == "x"`)
	require.NoError(t, err)

	result := testResults()[0]
	assert.False(t, filter.Evaluate(result))

	_, err = filter.Match(result)
	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, result.Filename, evalErr.Filename)
}

func TestApplyNilFilter(t *testing.T) {
	results := testResults()
	assert.Equal(t, results, Apply(nil, results))
}

func TestCompilerCache(t *testing.T) {
	compiler := NewExprCompiler(WithCache(2))

	first, err := compiler.Compile(`Similarity > 1`)
	require.NoError(t, err)
	again, err := compiler.Compile(` Similarity > 1 `)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, compiler.Size())

	_, err = compiler.Compile(`Similarity > 2`)
	require.NoError(t, err)
	_, err = compiler.Compile(`Similarity > 3`)
	require.NoError(t, err)
	assert.Equal(t, 2, compiler.Size())

	compiler.Clear()
	assert.Zero(t, compiler.Size())
}

func TestCustomFunctions(t *testing.T) {
	compiler := NewExprCompiler(WithCustomFunctions(map[string]any{
		"isLong": func(from, to float64) bool { return to-from > 3 },
	}))

	filter, err := compiler.Compile(`isLong(From, To)`)
	require.NoError(t, err)

	matched := Apply(filter, testResults())
	require.Len(t, matched, 1)
	assert.Equal(t, 21034, matched[0].AnilistInfo.ID)
}

func TestLRUCache(t *testing.T) {
	cache := newLRUCache[string, int](2)
	cache.Put("a", 1)
	cache.Put("b", 2)

	_, ok := cache.Get("a")
	require.True(t, ok)

	cache.Put("c", 3)
	_, ok = cache.Get("b")
	assert.False(t, ok, "least recently used entry must be evicted")

	v, ok := cache.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	cache.Put("a", 10)
	v, _ = cache.Get("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, 2, cache.Size())
}

func TestManager(t *testing.T) {
	m := NewManager()

	require.NoError(t, m.RegisterFilters(map[string]string{
		"confident": `Similarity >= 90`,
		"series":    `HasEpisode`,
	}))
	assert.Equal(t, []string{"confident", "series"}, m.ListFilters())

	matched, err := m.ApplyFilter("confident", testResults())
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, 21034, matched[0].AnilistInfo.ID)

	matched, err = m.ApplyFilter("series", testResults())
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	_, err = m.ApplyFilter("missing", testResults())
	assert.Error(t, err)

	m.UnregisterFilter("series")
	_, ok := m.GetFilter("series")
	assert.False(t, ok)
}

func TestManagerRegisterFiltersIsAtomic(t *testing.T) {
	m := NewManager()

	err := m.RegisterFilters(map[string]string{
		"good": `Similarity > 1`,
		"bad":  `Similarity >`,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'bad'")
	assert.Empty(t, m.ListFilters())

	require.Error(t, m.RegisterFilter("empty", ""))
}
