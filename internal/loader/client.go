// Package loader fetches itinerary documents and rendering configuration
// from the content store over HTTP.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sagivbu-gif/usa-van-rail-site/internal/itinerary"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the content store.
	DefaultBaseURL = "https://content.usavanrail.example.com"

	// ProviderName identifies this provider.
	ProviderName = "content-store"
)

// ClientConfig holds configuration for the content store client.
type ClientConfig struct {
	// BaseURL is the content store base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Timeout for individual requests (default: 10s).
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches documents from the content store.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new content store client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// DurationsConfig carries the tunable layover durations. Zero values fall
// back to the built-in defaults downstream.
type DurationsConfig struct {
	BaggageClaimMinutes int `json:"baggage_claim_minutes"`
	HotelCheckinMinutes int `json:"hotel_checkin_minutes"`
}

// IconMap maps stop types and subtypes to presentation icon identifiers.
type IconMap map[string]string

// FetchItinerary retrieves and decodes an itinerary document by slug.
func (c *Client) FetchItinerary(ctx context.Context, slug string) (*itinerary.Itinerary, error) {
	var itin itinerary.Itinerary
	if err := c.getJSON(ctx, fmt.Sprintf("/itineraries/%s.json", slug), &itin); err != nil {
		return nil, err
	}
	if err := itin.Validate(); err != nil {
		return nil, fmt.Errorf("itinerary %s: %w", slug, err)
	}
	return &itin, nil
}

// FetchDurations retrieves the layover durations configuration.
func (c *Client) FetchDurations(ctx context.Context) (*DurationsConfig, error) {
	var cfg DurationsConfig
	if err := c.getJSON(ctx, "/config/durations.json", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FetchIconMap retrieves the stop icon mapping.
func (c *Client) FetchIconMap(ctx context.Context) (IconMap, error) {
	var icons IconMap
	if err := c.getJSON(ctx, "/config/icons.json", &icons); err != nil {
		return nil, err
	}
	return icons, nil
}

// getJSON performs a GET against the content store and decodes the body.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}
