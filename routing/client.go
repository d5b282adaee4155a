package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/unimap/unimap/metrics"
)

const (
	defaultBaseURL = "https://api.openrouteservice.org"
	defaultProfile = "foot-walking"
	defaultTimeout = 10 * time.Second
	// Error bodies are quoted back to the caller, keep them short.
	maxErrorBody = 300
)

// Route is the first route returned by the provider.
type Route struct {
	// Geometry is the encoded polyline (precision 5).
	Geometry string
	// Distance in meters.
	Distance float64
	// Duration in seconds.
	Duration float64
}

// Provider computes a route between two points.
type Provider interface {
	Directions(ctx context.Context, start, end Coordinate) (*Route, error)
}

// ClientConfig configures the openrouteservice client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Profile string
	Timeout time.Duration
}

// Client calls the openrouteservice directions API.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient creates a client; zero config values fall back to defaults.
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Profile == "" {
		config.Profile = defaultProfile
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Endpoint returns the directions URL for the configured profile.
func (c *Client) Endpoint() string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/v2/directions/" + c.config.Profile
}

type directionsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// Directions requests a route. Coordinates are sent as [lng, lat] pairs as the provider expects.
// Exactly one HTTP request is made; there are no retries.
func (c *Client) Directions(ctx context.Context, start, end Coordinate) (*Route, error) {
	if c.config.APIKey == "" {
		return nil, fmt.Errorf("%w: API key not configured", ErrUpstream)
	}

	body, err := json.Marshal(directionsRequest{
		Coordinates: [][2]float64{start.LngLat(), end.LngLat()},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrUpstream, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Authorization", c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, application/geo+json")

	began := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstream("transport_error", time.Since(began).Seconds())
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		metrics.RecordUpstream("transport_error", time.Since(began).Seconds())
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordUpstream("http_error", time.Since(began).Seconds())
		preview := strings.TrimSpace(string(payload))
		if len(preview) > maxErrorBody {
			preview = preview[:maxErrorBody] + "..."
		}
		return nil, fmt.Errorf("%w: provider returned status %d: %s", ErrUpstream, resp.StatusCode, preview)
	}

	var decoded directionsResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		metrics.RecordUpstream("bad_payload", time.Since(began).Seconds())
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if len(decoded.Routes) == 0 || decoded.Routes[0].Geometry == "" {
		metrics.RecordUpstream("bad_payload", time.Since(began).Seconds())
		return nil, fmt.Errorf("%w: invalid response, no route returned", ErrUpstream)
	}
	metrics.RecordUpstream("ok", time.Since(began).Seconds())

	first := decoded.Routes[0]
	return &Route{
		Geometry: first.Geometry,
		Distance: first.Summary.Distance,
		Duration: first.Summary.Duration,
	}, nil
}
