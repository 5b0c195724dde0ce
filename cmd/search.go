package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/samber/mo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/s0up4200/tracescene/config"
	"github.com/s0up4200/tracescene/filter"
	"github.com/s0up4200/tracescene/tracemoe"
)

var (
	// Command flags
	cutBorders   bool
	anilistID    int
	anilistInfo  bool
	filterExpr   string
	preset       string
	resultLimit  int
	downloadKind string
	mediaSize    string
	mute         bool
	downloadDir  string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <url|path>",
	Short: "Search trace.moe for the scene in an image or video",
	Long: `Search trace.moe for the anime scene shown in an image or video clip.

The argument is treated as a URL when it starts with http:// or https://,
otherwise the file is uploaded. Results can be narrowed with a filter
expression, for example:

  tracescene search shot.jpg -f 'Similarity > 90 and HasEpisode'
  tracescene search https://example.com/shot.jpg --download video --size l`,
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolVar(&cutBorders, "cut-borders", false, "crop black borders before searching")
	searchCmd.Flags().IntVar(&anilistID, "anilist-id", 0, "only search within this AniList ID")
	searchCmd.Flags().BoolVar(&anilistInfo, "anilist-info", false, "include titles and synonyms from AniList")
	searchCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	searchCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	searchCmd.Flags().IntVar(&resultLimit, "limit", 0, "maximum number of results to show (0 for all)")
	searchCmd.Flags().StringVar(&downloadKind, "download", "", "download previews of the results (video or image)")
	searchCmd.Flags().StringVar(&mediaSize, "size", "", "preview size: s, m or l")
	searchCmd.Flags().BoolVar(&mute, "mute", false, "download muted video previews")
	searchCmd.Flags().StringVar(&downloadDir, "dir", "", "directory to save previews in")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	target := args[0]
	opts := searchOptions(cmd, cfg.Search)

	logger.Debug().Str("target", target).Msg("Searching trace.moe")

	var (
		resp *tracemoe.SearchResponse
		err  error
	)
	if isURL(target) {
		resp, err = client.SearchByURL(ctx, target, opts)
	} else {
		resp, err = client.SearchByPath(ctx, target, opts)
	}
	if err != nil {
		return err
	}

	results, err := applyFilter(resp.Results)
	if err != nil {
		return err
	}

	limit := cfg.Search.Limit
	if cmd.Flags().Changed("limit") {
		limit = resultLimit
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	out := cmd.OutOrStdout()
	printResults(out, resp.CheckedFramesCount, results)

	if downloadKind == "" || len(results) == 0 {
		return nil
	}
	return downloadPreviews(ctx, cmd, results)
}

// searchOptions merges command line flags over the configured search defaults
func searchOptions(cmd *cobra.Command, defaults config.SearchConfig) tracemoe.SearchOptions {
	opts := tracemoe.SearchOptions{
		CutBlackBorders:    defaults.CutBorders,
		AnilistID:          mo.None[int](),
		IncludeAnilistInfo: defaults.AnilistInfo,
	}

	if cmd.Flags().Changed("cut-borders") {
		opts.CutBlackBorders = cutBorders
	}
	if cmd.Flags().Changed("anilist-info") {
		opts.IncludeAnilistInfo = anilistInfo
	}
	if anilistID > 0 {
		opts.AnilistID = mo.Some(anilistID)
	}
	return opts
}

func isURL(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// getFilterExpression determines the filter expression to use.
// Priority: command line filter > preset > configured default. An empty result
// means no filtering.
func getFilterExpression(filterCfg config.FilterConfig) (string, error) {
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		if expression, ok := filterCfg.Presets[preset]; ok {
			return expression, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	return filterCfg.Default, nil
}

func applyFilter(results []tracemoe.SearchResult) ([]tracemoe.SearchResult, error) {
	if filterExpr == "" && preset != "" {
		// Presets were compiled when the app started.
		return filterManager.ApplyFilter(preset, results)
	}

	expression, err := getFilterExpression(cfg.Filter)
	if err != nil {
		return nil, err
	}
	if expression == "" {
		return results, nil
	}

	compiled, err := filterManager.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	logger.Debug().Str("filter", compiled.Expression()).Msg("Filtering results")
	return filter.Apply(compiled, results), nil
}

func printResults(out io.Writer, frames int, results []tracemoe.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No matching scenes found.")
		return
	}

	fmt.Fprintf(out, "\nFound %d scenes (%d frames compared):\n", len(results), frames)
	fmt.Fprintln(out, strings.Repeat("-", 80))

	for _, r := range results {
		fmt.Fprintf(out, "• %s", resultTitle(r))
		if ep, ok := r.Episode.Get(); ok {
			fmt.Fprintf(out, " - Episode %s", ep)
		}
		fmt.Fprintf(out, " [%.2f%%]\n", r.SimilarityPercentage)
		fmt.Fprintf(out, "  Time: %s - %s\n", formatTimestamp(r.FromTimestamp), formatTimestamp(r.ToTimestamp))
		fmt.Fprintf(out, "  File: %s\n", r.Filename)
		fmt.Fprintf(out, "  AniList: https://anilist.co/anime/%d", r.AnilistInfo.ID)
		if malID, ok := r.AnilistInfo.MalID.Get(); ok {
			fmt.Fprintf(out, "  MAL: https://myanimelist.net/anime/%d", malID)
		}
		fmt.Fprintln(out)
		if r.AnilistInfo.IsNSFWAnime.OrEmpty() {
			fmt.Fprintln(out, "  [NSFW]")
		}
	}
}

// resultTitle picks the best available name for a result
func resultTitle(r tracemoe.SearchResult) string {
	if title, ok := r.AnilistInfo.Title.Get(); ok {
		if name := title.DisplayTitle(); name != "" {
			return name
		}
	}
	return r.Filename
}

// formatTimestamp renders seconds as [h:]mm:ss
func formatTimestamp(seconds float64) string {
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func downloadPreviews(ctx context.Context, cmd *cobra.Command, results []tracemoe.SearchResult) error {
	kind, err := tracemoe.ParseMediaKind(downloadKind)
	if err != nil {
		return err
	}

	opts := downloadOptions(cmd, cfg.Download)

	bar := progressbar.NewOptions(len(results),
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s previews", kind)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	opts.Progress = func(result tracemoe.SearchResult, path string) {
		_ = bar.Add(1)
	}

	paths, err := client.DownloadAll(ctx, results, kind, opts)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nSaved %d %s previews:\n", len(paths), kind)
	for _, path := range paths {
		fmt.Fprintf(out, "  %s\n", path)
	}
	return nil
}

// downloadOptions merges command line flags over the configured download defaults
func downloadOptions(cmd *cobra.Command, defaults config.DownloadConfig) tracemoe.DownloadOptions {
	opts := tracemoe.DownloadOptions{
		Size:      tracemoe.MediaSize(defaults.Size),
		Mute:      defaults.Mute,
		Directory: defaults.Directory,
	}

	if cmd.Flags().Changed("size") {
		opts.Size = tracemoe.MediaSize(mediaSize)
	}
	if cmd.Flags().Changed("mute") {
		opts.Mute = mute
	}
	if downloadDir != "" {
		opts.Directory = downloadDir
	}
	return opts
}
