package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fragmill/internal/api"
)

// ErrDaemonUnreachable wraps connection failures so commands can print a
// friendly hint instead of a raw dial error.
var ErrDaemonUnreachable = errors.New("fragmill daemon is not reachable")

// Client talks to the daemon's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a client for the daemon listening at bind (host:port).
func New(bind string) *Client {
	base := strings.TrimSpace(bind)
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 10 * time.Minute},
	}
}

// Health probes daemon liveness.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var out api.HealthResponse
	err := c.get(ctx, "/health", &out)
	return out, err
}

// Files lists source files and their conversion state.
func (c *Client) Files(ctx context.Context) ([]api.FileInfo, error) {
	var out api.FileListResponse
	if err := c.get(ctx, "/api/files", &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// Convert queues one file for conversion and returns the pending job
// snapshot. Use Wait to block until the job reaches a terminal state.
func (c *Client) Convert(ctx context.Context, filename string, force bool, outputName string) (api.JobPayload, error) {
	var out api.JobPayload
	err := c.post(ctx, "/api/convert", api.ConvertRequest{
		Filename:   filename,
		Force:      force,
		OutputName: outputName,
	}, &out)
	return out, err
}

// Wait polls the job for filename until it completes or fails.
func (c *Client) Wait(ctx context.Context, filename string, interval time.Duration) (api.JobPayload, error) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		job, err := c.Status(ctx, filename)
		if err != nil {
			return api.JobPayload{}, err
		}
		if job.Status == "completed" || job.Status == "failed" {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ConvertAll queues every source file for conversion.
func (c *Client) ConvertAll(ctx context.Context) ([]string, error) {
	var out api.ConvertAllResponse
	if err := c.post(ctx, "/api/convert-all", nil, &out); err != nil {
		return nil, err
	}
	return out.Queued, nil
}

// Status fetches the snapshot for one file.
func (c *Client) Status(ctx context.Context, filename string) (api.JobPayload, error) {
	var out api.JobPayload
	err := c.get(ctx, "/api/status/"+url.PathEscape(filename), &out)
	return out, err
}

// StatusAll fetches the daemon status summary, including every known job.
func (c *Client) StatusAll(ctx context.Context) (api.StatusSummaryResponse, error) {
	var out api.StatusSummaryResponse
	err := c.get(ctx, "/api/status", &out)
	return out, err
}

// Fragments lists produced artifacts.
func (c *Client) Fragments(ctx context.Context) ([]api.FragmentInfo, error) {
	var out api.FragmentListResponse
	if err := c.get(ctx, "/api/fragments", &out); err != nil {
		return nil, err
	}
	return out.Fragments, nil
}

// History fetches recent conversion attempts, newest first.
func (c *Client) History(ctx context.Context, filename string, limit int) ([]api.AttemptPayload, error) {
	path := "/api/history"
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if strings.TrimSpace(filename) != "" {
		params.Set("filename", filename)
	}
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out api.HistoryResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Attempts, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDaemonUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
