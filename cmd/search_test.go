package cmd

import (
	"bytes"
	"testing"

	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/tracescene/config"
	"github.com/s0up4200/tracescene/tracemoe"
)

// newFlagCommand binds the search flags to a fresh command, resetting them to their defaults.
func newFlagCommand(t *testing.T) *cobra.Command {
	t.Helper()

	c := &cobra.Command{Use: "test"}
	c.Flags().BoolVar(&cutBorders, "cut-borders", false, "")
	c.Flags().IntVar(&anilistID, "anilist-id", 0, "")
	c.Flags().BoolVar(&anilistInfo, "anilist-info", false, "")
	c.Flags().StringVarP(&filterExpr, "filter", "f", "", "")
	c.Flags().StringVarP(&preset, "preset", "p", "", "")
	c.Flags().StringVar(&mediaSize, "size", "", "")
	c.Flags().BoolVar(&mute, "mute", false, "")
	c.Flags().StringVar(&downloadDir, "dir", "", "")
	return c
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("https://example.com/a.jpg"))
	assert.True(t, isURL("HTTP://example.com/a.jpg"))
	assert.False(t, isURL("./https.jpg"))
	assert.False(t, isURL("/tmp/frame.png"))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00", formatTimestamp(0))
	assert.Equal(t, "04:50", formatTimestamp(290.625))
	assert.Equal(t, "1:01:05", formatTimestamp(3665.2))
}

func TestSearchOptions(t *testing.T) {
	defaults := config.SearchConfig{CutBorders: true, AnilistInfo: true}

	t.Run("config defaults", func(t *testing.T) {
		c := newFlagCommand(t)
		opts := searchOptions(c, defaults)
		assert.True(t, opts.CutBlackBorders)
		assert.True(t, opts.IncludeAnilistInfo)
		assert.True(t, opts.AnilistID.IsAbsent())
	})

	t.Run("flags override", func(t *testing.T) {
		c := newFlagCommand(t)
		require.NoError(t, c.Flags().Set("cut-borders", "false"))
		require.NoError(t, c.Flags().Set("anilist-info", "false"))
		require.NoError(t, c.Flags().Set("anilist-id", "21034"))

		opts := searchOptions(c, defaults)
		assert.False(t, opts.CutBlackBorders)
		assert.False(t, opts.IncludeAnilistInfo)
		assert.Equal(t, mo.Some(21034), opts.AnilistID)
	})
}

func TestDownloadOptions(t *testing.T) {
	defaults := config.DownloadConfig{Directory: "/previews", Size: "s", Mute: true}

	c := newFlagCommand(t)
	opts := downloadOptions(c, defaults)
	assert.Equal(t, tracemoe.DownloadOptions{Size: tracemoe.MediaSizeSmall, Mute: true, Directory: "/previews"}, opts)

	require.NoError(t, c.Flags().Set("size", "l"))
	require.NoError(t, c.Flags().Set("mute", "false"))
	require.NoError(t, c.Flags().Set("dir", "/tmp"))
	opts = downloadOptions(c, defaults)
	assert.Equal(t, tracemoe.DownloadOptions{Size: tracemoe.MediaSizeLarge, Directory: "/tmp"}, opts)
}

func TestGetFilterExpression(t *testing.T) {
	filterCfg := config.FilterConfig{
		Default: "Similarity > 80",
		Presets: map[string]string{"confident": "Similarity >= 90"},
	}

	tests := []struct {
		name     string
		filter   string
		preset   string
		expected string
		wantErr  bool
	}{
		{name: "default", expected: "Similarity > 80"},
		{name: "flag wins", filter: "HasEpisode", preset: "confident", expected: "HasEpisode"},
		{name: "preset", preset: "confident", expected: "Similarity >= 90"},
		{name: "unknown preset", preset: "missing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newFlagCommand(t)
			filterExpr, preset = tt.filter, tt.preset

			expression, err := getFilterExpression(filterCfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, expression)
		})
	}
}

func TestPrintResults(t *testing.T) {
	results := []tracemoe.SearchResult{
		{
			AnilistInfo: tracemoe.AnilistInfo{
				ID:    21034,
				MalID: mo.Some(29787),
				Title: mo.Some(tracemoe.AnilistTitle{
					RomajiTitle:  "Gochuumon wa Usagi Desu ka??",
					EnglishTitle: mo.None[string](),
				}),
			},
			Filename:             "a.mp4",
			Episode:              mo.Some(tracemoe.NewEpisodeNumber(1)),
			FromTimestamp:        288,
			ToTimestamp:          292,
			SimilarityPercentage: 94.404,
		},
		{
			AnilistInfo:          tracemoe.AnilistInfo{ID: 1},
			Filename:             "b.mp4",
			SimilarityPercentage: 50,
		},
	}

	var buf bytes.Buffer
	printResults(&buf, 100, results)
	out := buf.String()

	assert.Contains(t, out, "Found 2 scenes (100 frames compared)")
	assert.Contains(t, out, "• Gochuumon wa Usagi Desu ka?? - Episode 1 [94.40%]")
	assert.Contains(t, out, "Time: 04:48 - 04:52")
	assert.Contains(t, out, "MAL: https://myanimelist.net/anime/29787")
	assert.Contains(t, out, "• b.mp4 [50.00%]")

	buf.Reset()
	printResults(&buf, 100, nil)
	assert.Equal(t, "No matching scenes found.\n", buf.String())
}

func TestPrintLimits(t *testing.T) {
	var buf bytes.Buffer
	printLimits(&buf, &tracemoe.Limits{ID: "1.2.3.4", Concurrency: 1, TotalQuota: 1000, RemainingQuota: 900}, false)

	assert.Contains(t, buf.String(), "IP address 1.2.3.4")
	assert.Contains(t, buf.String(), "Quota: 900 of 1000 remaining")
}

func TestUserAgent(t *testing.T) {
	SetVersion("1.2.3", "now")
	t.Cleanup(func() { SetVersion("dev", "unknown") })

	assert.Equal(t, "tracescene/1.2.3", userAgent(""))
	assert.Equal(t, "tracescene/1.2.3", userAgent(tracemoe.DefaultUserAgent))
	assert.Equal(t, "custom/1.0", userAgent("custom/1.0"))
}
