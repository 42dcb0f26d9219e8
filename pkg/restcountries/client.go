package restcountries

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultURL = "https://restcountries.com/v3.1/all?fields=name,flag,latlng,maps"

// Record is the subset of a country document the admin needs.
type Record struct {
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	Flag   string    `json:"flag"`
	LatLng []float64 `json:"latlng"`
	Maps   struct {
		GoogleMaps     string `json:"googleMaps"`
		OpenStreetMaps string `json:"openStreetMaps"`
		OpenStreetMap  string `json:"openStreetMap"`
	} `json:"maps"`
}

// OpenStreetMapURL returns the map link under either key the source has used.
func (r Record) OpenStreetMapURL() string {
	if r.Maps.OpenStreetMap != "" {
		return r.Maps.OpenStreetMap
	}
	return r.Maps.OpenStreetMaps
}

type Client struct {
	HTTPClient *http.Client
	URL        string
}

func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		URL:        url,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// All fetches the full country list in source order.
func (c *Client) All(ctx context.Context) ([]Record, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("country source returned status %d: %s", resp.StatusCode, string(body))
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse country list: %w", err)
	}
	return records, nil
}
