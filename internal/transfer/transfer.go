package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/runloop/rl-cli/internal/constants"
	"github.com/runloop/rl-cli/internal/domain"
)

// StatusError is a non-success HTTP status from a presigned-URL
// exchange, carrying the response body text for diagnostics.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Client performs streaming uploads and downloads against presigned
// URLs. One exchange runs to completion (including retry backoff)
// before the next begins; there are no concurrent transfers within an
// invocation.
type Client struct {
	httpClient *http.Client
	retry      RetryConfig

	// progress receives percentage lines; nil disables reporting
	progress io.Writer
}

// NewClient creates a transfer client reporting progress to w (pass
// nil to disable progress output).
func NewClient(w io.Writer) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Minute},
		retry:      DefaultRetryConfig(),
		progress:   w,
	}
}

// NewClientWithOptions creates a transfer client with explicit
// transport and retry settings (for testing)
func NewClientWithOptions(httpClient *http.Client, retry RetryConfig, w io.Writer) *Client {
	return &Client{httpClient: httpClient, retry: retry, progress: w}
}

// Upload PUTs the contents of path to the presigned URL with an
// explicit Content-Length, reporting percentage progress per chunk.
// A status outside {200, 201, 204} is a hard failure carrying the
// response body. Transient failures are retried with backoff; the
// file is re-opened per attempt so each retry sends the full stream.
func (c *Client) Upload(ctx context.Context, url, path string, size int64) error {
	return WithRetryNoResult(ctx, c.retry, func() error {
		return c.uploadOnce(ctx, url, path, size)
	})
}

func (c *Client) uploadOnce(ctx context.Context, url, path string, size int64) error {
	f, err := os.Open(path)
	if err != nil {
		return domain.Errorf(domain.ErrUploadFailed, "failed to open %s: %v", path, err)
	}
	// The request body is f itself; http.Client closes it on every
	// path, but close again here so an error before the request
	// starts cannot leak the handle.
	defer f.Close()

	body := newProgressReader(f, size, c.progress, "Uploading")

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return domain.Errorf(domain.ErrUploadFailed, "failed to build request: %v", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	body.finish()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
}

// Download GETs the presigned URL and streams the body to destPath in
// fixed-size chunks, creating parent directories as needed. Any
// status other than 200 is fatal with the status and body surfaced.
// Percentage progress is reported only when Content-Length is present.
func (c *Client) Download(ctx context.Context, url, destPath string) error {
	return WithRetryNoResult(ctx, c.retry, func() error {
		return c.downloadOnce(ctx, url, destPath)
	})
}

func (c *Client) downloadOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Errorf(domain.ErrDownloadFailed, "failed to build request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if dir := filepath.Dir(destPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return domain.Errorf(domain.ErrDownloadFailed, "failed to create directory %s: %v", dir, err)
		}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return domain.Errorf(domain.ErrDownloadFailed, "failed to create %s: %v", destPath, err)
	}

	// Progress only when the server told us the total
	src := newProgressReader(resp.Body, resp.ContentLength, c.progress, "Downloading")

	buf := make([]byte, constants.TransferChunkSize)
	if _, err := io.CopyBuffer(out, src, buf); err != nil {
		out.Close()
		os.Remove(destPath)
		return domain.Errorf(domain.ErrDownloadFailed, "failed to write %s: %v", destPath, err)
	}
	src.finish()

	return out.Close()
}
