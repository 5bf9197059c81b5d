package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultMapboxURL is the Mapbox API host
const DefaultMapboxURL = "https://api.mapbox.com"

// Geocoder turns coordinates into a human-readable place name. An empty name
// with a nil error means the service had no match.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// MapboxGeocoder calls the Mapbox places reverse-geocoding endpoint
type MapboxGeocoder struct {
	BaseURL     string
	AccessToken string
	UserAgent   string
	HTTPClient  *http.Client
}

// NewMapboxGeocoder creates a geocoder for the given access token
func NewMapboxGeocoder(accessToken string, httpClient *http.Client) *MapboxGeocoder {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &MapboxGeocoder{
		BaseURL:     DefaultMapboxURL,
		AccessToken: accessToken,
		UserAgent:   "photoloader",
		HTTPClient:  httpClient,
	}
}

type mapboxFeature struct {
	PlaceName string `json:"place_name"`
	Context   []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"context"`
}

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

// ReverseGeocode implements Geocoder
func (g *MapboxGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	coords := strconv.FormatFloat(lon, 'f', -1, 64) + "," + strconv.FormatFloat(lat, 'f', -1, 64)
	endpoint := strings.TrimRight(g.BaseURL, "/") + "/geocoding/v5/mapbox.places/" + coords + ".json"

	query := url.Values{
		"access_token": {g.AccessToken},
		"types":        {"address,poi,place"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reverse geocode %s: %w", coords, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("mapbox returned status %d for %s: %s", resp.StatusCode, coords, string(body))
	}

	var result mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode mapbox response: %w", err)
	}

	if len(result.Features) == 0 {
		return "", nil
	}
	return formatLocation(result.Features[0]), nil
}

// formatLocation renders "place, region, country" from the feature context,
// falling back to the feature's full place name
func formatLocation(f mapboxFeature) string {
	var parts []string
	for _, kind := range []string{"place", "region", "country"} {
		for _, c := range f.Context {
			if strings.Contains(c.ID, kind) {
				parts = append(parts, c.Text)
				break
			}
		}
	}
	if len(parts) == 0 {
		return f.PlaceName
	}
	return strings.Join(parts, ", ")
}
