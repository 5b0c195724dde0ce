package tracemoe

import "context"

// API defines the interface for trace.moe operations
type API interface {
	SearchByURL(ctx context.Context, mediaURL string, opts SearchOptions) (*SearchResponse, error)
	SearchByPath(ctx context.Context, path string, opts SearchOptions) (*SearchResponse, error)
	FetchLimits(ctx context.Context) (*Limits, error)
	DownloadVideo(ctx context.Context, result SearchResult, opts DownloadOptions) (string, error)
	DownloadImage(ctx context.Context, result SearchResult, opts DownloadOptions) (string, error)
	DownloadAll(ctx context.Context, results []SearchResult, kind MediaKind, opts DownloadOptions) ([]string, error)
}

// Ensure Client implements API
var _ API = (*Client)(nil)
