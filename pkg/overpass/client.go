// Package overpass queries the OSM Overpass API for named trails and
// footpaths near a coordinate.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"golang.org/x/time/rate"

	"github.com/snapatlas/enrich/internal/model"
)

const defaultBaseURL = "https://overpass-api.de/api/interpreter"

// Client finds named trails near a coordinate.
type Client interface {
	NearbyTrails(ctx context.Context, lat, lon float64, radiusMeters int) ([]model.POICandidate, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default interpreter URL.
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
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an Overpass API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 25 * time.Second,
		},
		limiter: rate.NewLimiter(1, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type overpassResponse struct {
	Elements []struct {
		Type     string            `json:"type"`
		ID       int64             `json:"id"`
		Tags     map[string]string `json:"tags"`
		Geometry []struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"geometry"`
	} `json:"elements"`
}

func (c *httpClient) NearbyTrails(ctx context.Context, lat, lon float64, radiusMeters int) ([]model.POICandidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "overpass: rate limit wait")
	}

	query := fmt.Sprintf(
		`[out:json][timeout:20];way(around:%d,%f,%f)["highway"~"^(path|footway|track|bridleway)$"]["name"];out geom;`,
		radiusMeters, lat, lon,
	)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("overpass: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var raw overpassResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "overpass: unmarshal response")
	}

	// Deduplicate by trail name: long trails are split into many OSM ways
	// and we only want the nearest segment of each.
	byName := make(map[string]model.POICandidate)
	for _, el := range raw.Elements {
		name := el.Tags["name"]
		if name == "" || len(el.Geometry) == 0 {
			continue
		}

		coords := make([]geom.Coord, 0, len(el.Geometry))
		for _, g := range el.Geometry {
			coords = append(coords, geom.Coord{g.Lon, g.Lat})
		}
		line, err := geom.NewLineString(geom.XY).SetCoords(coords)
		if err != nil {
			continue
		}

		dist, nearLon, nearLat := nearestVertex(line, lon, lat)
		candidate := model.POICandidate{
			PlaceID:        fmt.Sprintf("osm-way-%d", el.ID),
			Name:           name,
			Category:       el.Tags["highway"],
			Latitude:       nearLat,
			Longitude:      nearLon,
			DistanceMeters: &dist,
			Source:         "osm_overpass",
		}

		existing, seen := byName[name]
		if !seen || (existing.DistanceMeters != nil && dist < *existing.DistanceMeters) {
			byName[name] = candidate
		}
	}

	trails := make([]model.POICandidate, 0, len(byName))
	for _, c := range byName {
		trails = append(trails, c)
	}
	return trails, nil
}

// nearestVertex returns the haversine distance in meters from (lon, lat)
// to the closest vertex of the linestring, plus that vertex's coordinates.
func nearestVertex(line *geom.LineString, lon, lat float64) (float64, float64, float64) {
	best := math.MaxFloat64
	bestLon, bestLat := lon, lat
	for _, c := range line.Coords() {
		d := haversineMeters(lat, lon, c[1], c[0])
		if d < best {
			best = d
			bestLon, bestLat = c[0], c[1]
		}
	}
	return best, bestLon, bestLat
}

const earthRadiusMeters = 6371000

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
