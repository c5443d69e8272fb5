// Package places wraps the Google Places API (New) nearby search used for
// generic POI and restaurant lookups.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/snapatlas/enrich/internal/model"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// Client performs Google Places nearby searches.
type Client interface {
	// Nearby returns places within radiusMeters of (lat, lon), optionally
	// restricted to the given place types.
	Nearby(ctx context.Context, lat, lon float64, radiusMeters int, includedTypes []string) ([]model.POICandidate, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type nearbyRequest struct {
	IncludedTypes       []string `json:"includedTypes,omitempty"`
	MaxResultCount      int      `json:"maxResultCount"`
	LocationRestriction struct {
		Circle struct {
			Center struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"center"`
			Radius float64 `json:"radius"`
		} `json:"circle"`
	} `json:"locationRestriction"`
}

type nearbyResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		Location struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
		Rating           float64  `json:"rating"`
		PrimaryType      string   `json:"primaryType"`
		Types            []string `json:"types"`
		FormattedAddress string   `json:"formattedAddress"`
	} `json:"places"`
}

func (c *httpClient) Nearby(ctx context.Context, lat, lon float64, radiusMeters int, includedTypes []string) ([]model.POICandidate, error) {
	var reqBody nearbyRequest
	reqBody.IncludedTypes = includedTypes
	reqBody.MaxResultCount = 20
	reqBody.LocationRestriction.Circle.Center.Latitude = lat
	reqBody.LocationRestriction.Circle.Center.Longitude = lon
	reqBody.LocationRestriction.Circle.Radius = float64(radiusMeters)

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "places: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchNearby", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask",
		"places.id,places.displayName,places.location,places.rating,places.primaryType,places.types,places.formattedAddress")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result nearbyResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}

	candidates := make([]model.POICandidate, 0, len(result.Places))
	for _, p := range result.Places {
		dist := haversineMeters(lat, lon, p.Location.Latitude, p.Location.Longitude)
		candidates = append(candidates, model.POICandidate{
			PlaceID:        p.ID,
			Name:           p.DisplayName.Text,
			Category:       p.PrimaryType,
			Latitude:       p.Location.Latitude,
			Longitude:      p.Location.Longitude,
			DistanceMeters: &dist,
			Rating:         p.Rating,
			Source:         "google_places",
			Types:          p.Types,
		})
	}
	return candidates, nil
}

const earthRadiusMeters = 6371000

// haversineMeters computes great-circle distance between two coordinates.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
