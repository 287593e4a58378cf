// Package dump1090 reads aircraft state from a dump1090 compatible receiver.
package dump1090

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxBodySize = 16 << 20

// Client fetches aircraft.json from the receiver.
type Client struct {
	url        string
	httpClient *http.Client
}

// New creates a client for the aircraft.json document at url.
func New(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the receiver's current report.
func (c *Client) Fetch(ctx context.Context) (*Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("receiver request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("receiver returned status %d", resp.StatusCode)
	}

	var report Report
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode receiver report: %w", err)
	}
	return &report, nil
}
