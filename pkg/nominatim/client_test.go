package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverse_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "snapatlas-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{
			"display_name": "Lime Ridge Open Space, Concord, Contra Costa County, California, United States",
			"address": {
				"road": "Treat Blvd",
				"city": "Concord",
				"county": "Contra Costa County",
				"state": "California",
				"country": "United States",
				"postcode": "94518"
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient("snapatlas-test", WithBaseURL(srv.URL), WithRateLimit(1000))
	addr, err := c.Reverse(context.Background(), 37.9435, -122.0094)

	require.NoError(t, err)
	assert.Equal(t, "Concord", addr.City)
	assert.Equal(t, "California", addr.State)
	assert.Contains(t, addr.DisplayName, "Lime Ridge")
}

func TestReverse_TownFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"display_name": "x", "address": {"town": "Moraga", "state": "California"}}`))
	}))
	defer srv.Close()

	c := NewClient("ua", WithBaseURL(srv.URL), WithRateLimit(1000))
	addr, err := c.Reverse(context.Background(), 37.8349, -122.1297)

	require.NoError(t, err)
	assert.Equal(t, "Moraga", addr.City)
}

func TestReverse_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("ua", WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := c.Reverse(context.Background(), 0, 0)
	assert.Error(t, err)
}
