// Package routes resolves the departure airport of a flight by callsign.
package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoRoute is returned when the route service knows nothing about a flight.
var ErrNoRoute = errors.New("no route known")

const maxBodySize = 1 << 20

type planeQuery struct {
	Callsign string  `json:"callsign"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

type routesetRequest struct {
	Planes []planeQuery `json:"planes"`
}

type airport struct {
	Name     string `json:"name"`
	IATA     string `json:"iata"`
	ICAO     string `json:"icao"`
	Location string `json:"location"`
}

type route struct {
	Callsign string    `json:"callsign"`
	Airports []airport `json:"_airports"`
}

// Client queries a routeset style service: a POST of callsigns with their
// position, answered by the matching routes with their airports in order.
type Client struct {
	url        string
	httpClient *http.Client
}

// New creates a client for the service at url.
func New(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Departure returns the location of the first airport on the flight's route.
func (c *Client) Departure(ctx context.Context, callsign string, lat, lng float64) (string, error) {
	body, err := json.Marshal(routesetRequest{
		Planes: []planeQuery{{Callsign: callsign, Lat: lat, Lng: lng}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode route request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("route request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("route service returned status %d", resp.StatusCode)
	}

	var routes []route
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&routes); err != nil {
		return "", fmt.Errorf("failed to decode route response: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Airports) == 0 || routes[0].Airports[0].Location == "" {
		return "", fmt.Errorf("%w: %s", ErrNoRoute, callsign)
	}
	return routes[0].Airports[0].Location, nil
}
