package tracemoe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const defaultDownloadDirectory = "."

// DownloadVideo saves the video preview of result and returns the written path.
func (c *Client) DownloadVideo(ctx context.Context, result SearchResult, opts DownloadOptions) (string, error) {
	return c.download(ctx, result, MediaVideo, opts)
}

// DownloadImage saves the image preview of result and returns the written path.
func (c *Client) DownloadImage(ctx context.Context, result SearchResult, opts DownloadOptions) (string, error) {
	return c.download(ctx, result, MediaImage, opts)
}

// DownloadAll downloads the previews of all results concurrently. Paths are returned
// in the order of results. opts.Name must be empty since every file needs its own name.
func (c *Client) DownloadAll(ctx context.Context, results []SearchResult, kind MediaKind, opts DownloadOptions) ([]string, error) {
	if opts.Name != "" {
		return nil, fmt.Errorf("%w: a file name cannot be used for multiple downloads", ErrInvalidConfig)
	}

	paths := make([]string, len(results))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.downloadConcurrency)

	for i, result := range results {
		i, result := i, result
		g.Go(func() error {
			path, err := c.download(ctx, result, kind, opts)
			if err != nil {
				return fmt.Errorf("failed to download %s for %s: %w", kind, result.Filename, err)
			}
			paths[i] = path
			if opts.Progress != nil {
				opts.Progress(result, path)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (c *Client) download(ctx context.Context, result SearchResult, kind MediaKind, opts DownloadOptions) (string, error) {
	size, err := ParseMediaSize(string(opts.Size))
	if err != nil {
		return "", err
	}

	source := result.VideoURL
	if kind == MediaImage {
		source = result.ImageURL
	}
	if source == "" {
		return "", fmt.Errorf("%w: result has no %s URL", ErrInvalidConfig, kind)
	}
	mediaURL := buildMediaURL(source, size, kind == MediaVideo && opts.Mute)

	dir := opts.Directory
	if dir == "" {
		dir = defaultDownloadDirectory
	}

	name, err := resolveFilename(result, kind, opts.Name)
	if err != nil {
		return "", fmt.Errorf("failed to resolve filename: %w", err)
	}
	path := filepath.Join(dir, name)

	// A name may carry its own subdirectories.
	if err := c.ensureDirectory(filepath.Dir(path)); err != nil {
		return "", err
	}

	data, err := c.fetchMedia(ctx, mediaURL)
	if err != nil {
		return "", err
	}

	if err := afero.WriteFile(c.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	c.logger.Debug().
		Str("kind", kind.String()).
		Str("size", string(size)).
		Str("path", path).
		Int("bytes", len(data)).
		Msg("Downloaded trace.moe preview")

	return path, nil
}

func (c *Client) ensureDirectory(dir string) error {
	exists, err := afero.DirExists(c.fs, dir)
	if err != nil {
		return fmt.Errorf("failed to check directory %s: %w", dir, err)
	}
	if exists {
		return nil
	}
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// fetchMedia performs the unauthenticated GET of a preview. Downloads are never retried.
func (c *Client) fetchMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.mediaClient.Do(req)
	if err != nil {
		return nil, &TransportError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to read media: %v", err),
			Err:        err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Message:    unexpectedStatusMessage(resp.StatusCode, data),
		}
	}
	return data, nil
}

// buildMediaURL appends the size and mute parameters to a stored preview URL.
func buildMediaURL(source string, size MediaSize, mute bool) string {
	sep := "&"
	if !strings.Contains(source, "?") {
		sep = "?"
	}

	u := source + sep + "size=" + string(size)
	if mute {
		u += "&mute"
	}
	return u
}
