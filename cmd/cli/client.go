package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"

	"github.com/yourusername/youtubify-go/api/handlers"
	"github.com/yourusername/youtubify-go/internal/app"
	"github.com/yourusername/youtubify-go/internal/domain"
	"github.com/yourusername/youtubify-go/pkg/logger"
)

// Client talks to a running youtubify server
type Client struct {
	baseURL string
	client  *resty.Client
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", "youtubify-cli/1.0")

	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// apiError is the body every non-2xx response carries
type apiError struct {
	Error string `json:"error"`
}

// Health reports whether the server answers its health check
func (c *Client) Health() error {
	resp, err := c.client.R().Get("/health")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}
	return nil
}

// Submit posts a job request. A rejected request still returns the job id and
// its failed snapshot together with the error.
func (c *Client) Submit(req domain.JobRequest) (*handlers.SubmitResponse, error) {
	// decoded by hand: a 422 body is a SubmitResponse whose error is an object
	resp, err := c.client.R().
		SetBody(req).
		Post("/api/v1/jobs")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	var result handlers.SubmitResponse
	switch resp.StatusCode() {
	case http.StatusCreated:
		if err := c.decode(resp, &result); err != nil {
			return nil, err
		}
		return &result, nil
	case http.StatusUnprocessableEntity:
		if err := c.decode(resp, &result); err != nil {
			return nil, err
		}
		if result.Error != nil {
			return &result, result.Error
		}
		return &result, fmt.Errorf("job rejected")
	default:
		var failure apiError
		_ = c.decode(resp, &failure)
		return nil, responseError(resp, failure)
	}
}

// Get fetches the current snapshot of a job
func (c *Client) Get(id string) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := c.get("/api/v1/jobs/"+url.PathEscape(id), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// List fetches stored job records, optionally filtered
func (c *Client) List(status, kind string) ([]*domain.JobRecord, error) {
	params := map[string]string{}
	if status != "" {
		params["status"] = status
	}
	if kind != "" {
		params["kind"] = kind
	}

	var records []*domain.JobRecord
	if err := c.get("/api/v1/jobs", params, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Stats fetches job counts per status
func (c *Client) Stats() (*domain.JobStats, error) {
	var stats domain.JobStats
	if err := c.get("/api/v1/jobs/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Start releases a job parked after its metadata probe
func (c *Client) Start(id string, opts app.StartOptions) error {
	return c.post("/api/v1/jobs/"+url.PathEscape(id)+"/start", opts, nil)
}

// Cancel requests cancellation of a job
func (c *Client) Cancel(id string) error {
	return c.post("/api/v1/jobs/"+url.PathEscape(id)+"/cancel", nil, nil)
}

// Probe fetches title and available heights for a URL
func (c *Client) Probe(sourceURL string) (*domain.MediaMetadata, error) {
	var meta domain.MediaMetadata
	if err := c.post("/api/v1/probe", handlers.ProbeRequest{URL: sourceURL}, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Logs fetches the most recent status lines, optionally filtered by query
func (c *Client) Logs(limit int, query string) ([]logger.LogEntry, error) {
	params := map[string]string{"limit": strconv.Itoa(limit)}
	if query != "" {
		params["q"] = query
	}

	var result struct {
		Entries []logger.LogEntry `json:"entries"`
	}
	if err := c.get("/api/v1/logs", params, &result); err != nil {
		return nil, err
	}
	return result.Entries, nil
}

// Follow streams the snapshots of a job over its websocket until a terminal
// one arrives, calling fn for each. It returns the terminal snapshot.
func (c *Client) Follow(ctx context.Context, id string, fn func(domain.Snapshot)) (domain.Snapshot, error) {
	wsURL, err := websocketURL(c.baseURL, "/api/v1/jobs/"+url.PathEscape(id)+"/events")
	if err != nil {
		return domain.Snapshot{}, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return domain.Snapshot{}, fmt.Errorf("job %s not found", id)
		}
		return domain.Snapshot{}, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var snap domain.Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			if ctx.Err() != nil {
				return domain.Snapshot{}, ctx.Err()
			}
			return domain.Snapshot{}, fmt.Errorf("stream closed before job finished: %w", err)
		}
		if fn != nil {
			fn(snap)
		}
		if snap.IsTerminal() {
			return snap, nil
		}
	}
}

func (c *Client) get(path string, params map[string]string, out interface{}) error {
	var failure apiError
	resp, err := c.client.R().
		SetQueryParams(params).
		SetResult(out).
		SetError(&failure).
		Get(path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return responseError(resp, failure)
	}
	return nil
}

func (c *Client) post(path string, body, out interface{}) error {
	var failure apiError
	req := c.client.R().SetError(&failure)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return responseError(resp, failure)
	}
	return nil
}

func (c *Client) decode(resp *resty.Response, out interface{}) error {
	if err := c.client.JSONUnmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func responseError(resp *resty.Response, failure apiError) error {
	if failure.Error != "" {
		return fmt.Errorf("%s (status %d)", failure.Error, resp.StatusCode())
	}
	return fmt.Errorf("unexpected status code: %d", resp.StatusCode())
}

// websocketURL rewrites an http(s) base URL to ws(s) and appends path
func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String(), nil
}
