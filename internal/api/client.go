// internal/api/client.go
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skywatch-bcn/planeview/pkg/core"
)

// maxBodySize caps how much of a planes response is read.
const maxBodySize = 4 << 20

var (
	// ErrTransport is returned when the request could not be completed.
	ErrTransport = errors.New("transport failure")
	// ErrStatus is returned when the data source answers with a non-success status.
	ErrStatus = errors.New("unexpected status")
)

// Client fetches plane snapshots from the tracker backend.
type Client struct {
	planesURL  string
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client for the planes endpoint at planesURL.
func New(planesURL string, timeout time.Duration) *Client {
	planesURL = strings.TrimRight(planesURL, "/")
	return &Client{
		planesURL:  planesURL,
		baseURL:    strings.TrimSuffix(planesURL, "/api/planes"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchPlanes performs one request for the full current snapshot.
func (c *Client) FetchPlanes(ctx context.Context) (core.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.planesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: planes returned status %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}

	return core.DecodeSnapshot(body)
}

// Healthcheck checks if the tracker backend is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthcheck", nil)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Kind names the failure class of a fetch error for logging.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, core.ErrDecode):
		return "decode"
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrTransport), errors.Is(err, context.DeadlineExceeded):
		return "transport"
	default:
		return "unknown"
	}
}
