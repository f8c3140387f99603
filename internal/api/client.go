package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/runloop/rl-cli/internal/config"
	"github.com/runloop/rl-cli/internal/domain"
)

// Client is a typed HTTP client for the platform API. It is
// constructed once at startup and passed to command handlers; it
// holds no mutable state beyond the underlying http.Client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	Objects    *ObjectsService
	Devboxes   *DevboxesService
	Blueprints *BlueprintsService
}

// NewClient creates an API client from resolved configuration
func NewClient(cfg *config.Config) *Client {
	return newClient(cfg.BaseURL, cfg.APIKey, &http.Client{Timeout: 60 * time.Second})
}

// NewClientWithHTTP creates an API client with an explicit transport
// (for testing)
func NewClientWithHTTP(baseURL, apiKey string, httpClient *http.Client) *Client {
	return newClient(baseURL, apiKey, httpClient)
}

func newClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
	c.Objects = &ObjectsService{client: c}
	c.Devboxes = &DevboxesService{client: c}
	c.Blueprints = &BlueprintsService{client: c}
	return c
}

// BaseURL returns the API endpoint this client targets
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get performs a GET request and decodes the JSON response into out
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	resolved := c.baseURL + path
	if len(query) > 0 {
		resolved += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return domain.Errorf(domain.ErrAPIError, "failed to build request: %v", err)
	}

	return c.do(req, out)
}

// post performs a POST request with a JSON body (nil sends an empty
// object) and decodes the JSON response into out
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload := []byte("{}")
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return domain.Errorf(domain.ErrAPIError, "failed to encode request body: %v", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return domain.Errorf(domain.ErrAPIError, "failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do sends the request with bearer auth and decodes the response.
// Non-2xx responses become ErrAPIError with the status code and body
// text preserved.
func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Errorf(domain.ErrAPIError, "request to %s failed: %v", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Errorf(domain.ErrAPIError, "%s %s returned status %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, string(body))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.Errorf(domain.ErrAPIError, "failed to decode response from %s: %v", req.URL.Path, err)
	}
	return nil
}

// intQuery formats a positive int for a query string; zero is omitted
// by callers
func intQuery(v int) string {
	return fmt.Sprintf("%d", v)
}
