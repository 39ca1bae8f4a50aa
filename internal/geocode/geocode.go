package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"predicta/internal/config"
	"predicta/internal/logger"

	gocache "github.com/patrickmn/go-cache"
)

// Client resolves coordinates to a human-readable place name using the
// Nominatim reverse-geocoding API. Lookups never fail from the caller's
// point of view: any error falls back to a "lat, lng" string.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *gocache.Cache
	cacheTTL   time.Duration
}

type reverseAddress struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	Suburb  string `json:"suburb"`
	Country string `json:"country"`
}

type reverseResponse struct {
	Address *reverseAddress `json:"address"`
}

// NewClient creates a reverse-geocoding client.
func NewClient(cfg config.Geocode, cacheTTL time.Duration) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
		cacheTTL:   cacheTTL,
	}
}

// Identify returns "City, Country" for the coordinates, preferring
// city > town > village > suburb, or "{lat}, {lng}" when the lookup fails.
// Results are cached since coordinates rarely change between refreshes.
func (c *Client) Identify(ctx context.Context, lat, lng float64) string {
	key := fmt.Sprintf("%.2f,%.2f", lat, lng)
	if cached, found := c.cache.Get(key); found {
		return cached.(string)
	}

	name, err := c.reverse(ctx, lat, lng)
	if err != nil {
		logger.Warn("reverse geocoding failed", "error", err.Error(), "lat", lat, "lng", lng)
		return fmt.Sprintf("%.2f, %.2f", lat, lng)
	}

	c.cache.Set(key, name, c.cacheTTL)
	return name
}

func (c *Client) reverse(ctx context.Context, lat, lng float64) (string, error) {
	endpoint := fmt.Sprintf("%s/reverse?format=json&lat=%s&lon=%s&zoom=10&addressdetails=1",
		c.baseURL,
		url.QueryEscape(fmt.Sprintf("%g", lat)),
		url.QueryEscape(fmt.Sprintf("%g", lng)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building reverse geocode request: %w", err)
	}
	req.Header.Set("Accept-Language", "en")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	var data reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decoding reverse geocode response: %w", err)
	}
	if data.Address == nil {
		return "", fmt.Errorf("no address in reverse geocode response")
	}

	// An address block without a locality still names a real place.
	city := firstNonEmpty(data.Address.City, data.Address.Town, data.Address.Village, data.Address.Suburb)
	if city == "" {
		city = "Unknown City"
	}
	if data.Address.Country != "" {
		return fmt.Sprintf("%s, %s", city, data.Address.Country), nil
	}
	return city, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
