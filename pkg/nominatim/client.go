// Package nominatim provides OSM reverse geocoding with the 1 req/s rate
// limit the public Nominatim usage policy requires.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Client reverse-geocodes coordinates into addresses.
type Client interface {
	Reverse(ctx context.Context, lat, lon float64) (*Address, error)
}

// Address is the normalized reverse-geocode result.
type Address struct {
	DisplayName string
	Road        string
	City        string
	County      string
	State       string
	Country     string
	PostalCode  string
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

// WithRateLimit overrides the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a Nominatim client. userAgent identifies the caller
// per the Nominatim usage policy.
func NewClient(userAgent string, opts ...Option) Client {
	c := &httpClient{
		baseURL:   defaultBaseURL,
		userAgent: userAgent,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(1, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Road     string `json:"road"`
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
		County   string `json:"county"`
		State    string `json:"state"`
		Country  string `json:"country"`
		Postcode string `json:"postcode"`
	} `json:"address"`
}

func (c *httpClient) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit wait")
	}

	reqURL := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&format=jsonv2", c.baseURL, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("nominatim: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var raw reverseResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "nominatim: unmarshal response")
	}

	// Nominatim reports the locality under city, town, or village
	// depending on the place class.
	city := raw.Address.City
	if city == "" {
		city = raw.Address.Town
	}
	if city == "" {
		city = raw.Address.Village
	}

	return &Address{
		DisplayName: raw.DisplayName,
		Road:        raw.Address.Road,
		City:        city,
		County:      raw.Address.County,
		State:       raw.Address.State,
		Country:     raw.Address.Country,
		PostalCode:  raw.Address.Postcode,
	}, nil
}
