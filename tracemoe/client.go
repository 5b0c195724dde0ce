package tracemoe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const (
	// DefaultBaseURL is the public trace.moe API.
	DefaultBaseURL = "https://api.trace.moe"

	searchEndpoint = "/search"
	limitsEndpoint = "/me"

	// searchByPathContentType is what trace.moe expects for raw media uploads.
	searchByPathContentType = "application/x-www-form-urlencoded"
)

// Client represents a trace.moe API client
type Client struct {
	baseURL             string
	apiKey              string
	exec                *executor
	mediaClient         *http.Client
	fs                  afero.Fs
	downloadConcurrency int
	logger              zerolog.Logger
}

// NewClient creates a new trace.moe client. apiKey may be empty, in which case
// trace.moe applies the anonymous per-IP quota.
func NewClient(apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	options := defaultClientOptions()
	for _, opt := range opts {
		opt(&options)
	}

	baseURL, err := validateOptions(&options)
	if err != nil {
		return nil, err
	}

	apiClient := newHTTPClient(options, apiKey)
	mediaClient := newHTTPClient(options, "")

	client := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		exec: &executor{
			httpClient: apiClient,
			policy: retryPolicy{
				enabled:    options.retryRateLimited,
				maxRetries: options.maxRetries,
			},
			logger: logger,
			now:    time.Now,
		},
		mediaClient:         mediaClient,
		fs:                  options.fs,
		downloadConcurrency: options.downloadConcurrency,
		logger:              logger,
	}

	logger.Debug().
		Str("baseURL", baseURL).
		Bool("apiKey", apiKey != "").
		Bool("retryRateLimited", options.retryRateLimited).
		Int("maxRetries", options.maxRetries).
		Msg("Created trace.moe client")

	return client, nil
}

func validateOptions(o *clientOptions) (string, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(o.baseURL), "/")
	if baseURL == "" {
		return "", fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base URL: %v", ErrInvalidConfig, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: base URL must be an absolute http(s) URL: %q", ErrInvalidConfig, o.baseURL)
	}
	if o.timeout < 0 {
		return "", fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	if o.maxRetries < 0 {
		return "", fmt.Errorf("%w: max retries must not be negative", ErrInvalidConfig)
	}
	if o.downloadConcurrency < 1 {
		return "", fmt.Errorf("%w: download concurrency must be at least 1", ErrInvalidConfig)
	}
	if o.fs == nil {
		return "", fmt.Errorf("%w: filesystem is required", ErrInvalidConfig)
	}
	return baseURL, nil
}

// newHTTPClient copies the configured client (or builds one) and wraps its transport.
func newHTTPClient(o clientOptions, apiKey string) *http.Client {
	var client http.Client
	if o.httpClient != nil {
		client = *o.httpClient
	} else {
		client.Timeout = o.timeout
	}
	client.Transport = &apiKeyTransport{
		base:      client.Transport,
		apiKey:    apiKey,
		userAgent: o.userAgent,
	}
	return &client
}

// APIKey returns the configured API key, or an empty string.
func (c *Client) APIKey() string {
	return c.apiKey
}

// SearchByURL searches for the scene shown by the media at mediaURL.
func (c *Client) SearchByURL(ctx context.Context, mediaURL string, opts SearchOptions) (*SearchResponse, error) {
	if strings.TrimSpace(mediaURL) == "" {
		return nil, fmt.Errorf("%w: media URL is required", ErrInvalidConfig)
	}

	endpoint := c.baseURL + searchEndpoint + buildQuery(opts, mediaURL)
	resp, err := c.exec.execute(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search by URL: %w", err)
	}

	result, err := decodeSearchResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to search by URL: %w", err)
	}

	c.logger.Debug().
		Str("url", mediaURL).
		Int("frames", result.CheckedFramesCount).
		Int("results", len(result.Results)).
		Msg("Searched trace.moe by URL")

	return result, nil
}

// SearchByPath uploads the media file at path and searches for its scene.
func (c *Client) SearchByPath(ctx context.Context, path string, opts SearchOptions) (*SearchResponse, error) {
	media, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read media file %s: %w", path, err)
	}

	endpoint := c.baseURL + searchEndpoint + buildQuery(opts, "")
	resp, err := c.exec.execute(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(media))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", searchByPathContentType)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search by path: %w", err)
	}

	result, err := decodeSearchResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to search by path: %w", err)
	}

	c.logger.Debug().
		Str("path", path).
		Int("bytes", len(media)).
		Int("frames", result.CheckedFramesCount).
		Int("results", len(result.Results)).
		Msg("Searched trace.moe by file")

	return result, nil
}

// FetchLimits returns the quota of the API key, or of the caller's IP without one.
func (c *Client) FetchLimits(ctx context.Context) (*Limits, error) {
	endpoint := c.baseURL + limitsEndpoint
	resp, err := c.exec.execute(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch limits: %w", err)
	}

	var raw wireLimits
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch limits: %w", decodeError(resp, err))
	}

	return normalizeLimits(&raw), nil
}

func decodeSearchResponse(resp *rawResponse) (*SearchResponse, error) {
	var raw wireSearchResponse
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, decodeError(resp, err)
	}
	return normalizeSearchResponse(&raw, resp.StatusCode)
}

func decodeError(resp *rawResponse, err error) error {
	return &TransportError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("failed to parse response: %v", err),
		Err:        err,
	}
}
