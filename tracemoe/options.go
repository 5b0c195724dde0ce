package tracemoe

import (
	"net/http"
	"time"

	"github.com/spf13/afero"
)

const (
	defaultTimeout             = 30 * time.Second
	defaultDownloadConcurrency = 4
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	baseURL             string
	timeout             time.Duration
	httpClient          *http.Client
	retryRateLimited    bool
	maxRetries          int
	userAgent           string
	fs                  afero.Fs
	downloadConcurrency int
}

func defaultClientOptions() clientOptions {
	return clientOptions{
		baseURL:             DefaultBaseURL,
		timeout:             defaultTimeout,
		retryRateLimited:    true,
		userAgent:           DefaultUserAgent,
		fs:                  afero.NewOsFs(),
		downloadConcurrency: defaultDownloadConcurrency,
	}
}

// WithBaseURL points the client at another trace.moe deployment.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithHTTPClient sets the HTTP client used for API calls and downloads.
// Its transport is wrapped to add the API key; the client itself is not modified.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithRateLimitRetry toggles waiting for the rate limit to reset on HTTP 429.
// Enabled by default.
func WithRateLimitRetry(enabled bool) Option {
	return func(o *clientOptions) {
		o.retryRateLimited = enabled
	}
}

// WithMaxRetries caps rate-limit retries. 0 means retry until the context ends.
func WithMaxRetries(retries int) Option {
	return func(o *clientOptions) {
		o.maxRetries = retries
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		o.userAgent = userAgent
	}
}

// WithFs sets the filesystem used to read search media and write downloads.
func WithFs(fs afero.Fs) Option {
	return func(o *clientOptions) {
		o.fs = fs
	}
}

// WithDownloadConcurrency bounds the parallel downloads of DownloadAll.
func WithDownloadConcurrency(n int) Option {
	return func(o *clientOptions) {
		o.downloadConcurrency = n
	}
}
