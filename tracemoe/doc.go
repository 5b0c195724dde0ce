// Package tracemoe provides a client for the trace.moe anime scene search API.
//
// trace.moe identifies the anime, episode and timestamp a screenshot or short clip
// was taken from. This package wraps its HTTP API and normalizes the loosely typed
// responses into plain Go values.
//
// # Architecture
//
// The package is organized into several components:
//
//   - Client: the public entry point, holding transport configuration
//   - Wire model: unexported structs mirroring the raw JSON payloads
//   - Domain model: SearchResponse, SearchResult, AnilistInfo and Limits
//   - Executor: performs requests, classifies failures and retries rate-limited calls
//   - Errors: structured error types for remote rejections, rate limits and transport failures
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := tracemoe.NewClient(
//		os.Getenv("TRACE_MOE_KEY"),
//		logger,
//		tracemoe.WithRateLimitRetry(true),
//		tracemoe.WithTimeout(30*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	resp, err := client.SearchByURL(ctx, "https://example.com/frame.jpg", tracemoe.SearchOptions{
//		IncludeAnilistInfo: true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	path, err := client.DownloadVideo(ctx, resp.Results[0], tracemoe.DownloadOptions{
//		Size:      tracemoe.MediaSizeLarge,
//		Directory: "previews",
//	})
//
// # Optional fields
//
// Fields the API only returns in some cases are mo.Option values. An absent field is
// mo.None, never a zero value, so a false IsNSFWAnime can be told apart from a missing one.
//
// # Error Handling
//
//   - APIError: trace.moe rejected the request with a message (quota, bad media, ...)
//   - RateLimitError: HTTP 429 that was not retried; matches ErrRateLimited
//   - TransportError: network failures, unexpected statuses and undecodable bodies
//   - ErrMalformedResponse: a successful response that breaks the API contract
//
//	var apiErr *tracemoe.APIError
//	if errors.As(err, &apiErr) && apiErr.IsConcurrencyLimit() {
//		// back off
//	}
package tracemoe
