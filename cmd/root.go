package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/tracescene/config"
	"github.com/s0up4200/tracescene/filter"
	"github.com/s0up4200/tracescene/tracemoe"
)

var (
	cfgFile       string
	cfg           *config.Config
	logger        zerolog.Logger
	client        *tracemoe.Client
	filterManager *filter.Manager

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tracescene",
	Short: "Find the anime scene an image or video comes from",
	Long: `tracescene searches trace.moe for the anime scene shown in an image or short
video clip, given either a local file or a URL. Results can be filtered with
expressions and their video or image previews downloaded.`,
	SilenceUsage: true,
}

// SetVersion sets the version reported by the version and update commands
func SetVersion(v, built string) {
	version = v
	buildTime = built
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(versionCmd)
}

// initializeApp initializes the configuration and clients
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	client, err = newClient(cfg.TraceMoe, cfg.Download)
	if err != nil {
		return fmt.Errorf("failed to create trace.moe client: %w", err)
	}

	filterManager = filter.NewManager()
	if err := filterManager.RegisterFilters(cfg.Filter.Presets); err != nil {
		return fmt.Errorf("invalid filter preset: %w", err)
	}

	return nil
}

func newClient(tm config.TraceMoeConfig, dl config.DownloadConfig) (*tracemoe.Client, error) {
	return tracemoe.NewClient(tm.APIKey, logger,
		tracemoe.WithBaseURL(tm.URL),
		tracemoe.WithTimeout(tm.Timeout),
		tracemoe.WithRateLimitRetry(tm.RetryRateLimited),
		tracemoe.WithMaxRetries(tm.MaxRetries),
		tracemoe.WithUserAgent(userAgent(tm.UserAgent)),
		tracemoe.WithDownloadConcurrency(dl.Concurrency),
	)
}

// userAgent appends the build version to the default user agent
func userAgent(configured string) string {
	if configured == "" || configured == tracemoe.DefaultUserAgent {
		return tracemoe.DefaultUserAgent + "/" + version
	}
	return configured
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format; no colour codes when stderr is redirected
	fd := os.Stderr.Fd()
	terminal := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !terminal,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// versionCmd prints build information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tracescene %s (built %s)\n", version, buildTime)
	},
}
