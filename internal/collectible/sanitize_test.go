package collectible

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeQuery(t *testing.T) {
	assert.Equal(t, "1962 Topps Mickey Mantle #200", sanitizeQuery("1962 Topps Mickey Mantle #200"))
	assert.Equal(t, "Action Comics 1 CGC 9.0", sanitizeQuery(`Action Comics {1} (CGC 9.0)`))
	assert.Equal(t, "a b", sanitizeQuery("  a \t b  "))
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$1,200.00", 1200, true},
		{"$175.50", 175.5, true},
		{"1200", 1200, true},
		{"USD 45.99", 45.99, true},
		{"~$90", 90, true},
		{"", 0, false},
		{"call for price", 0, false},
		{"N/A", 0, false},
		{"$-50", 0, false},
	}
	for _, tc := range cases {
		got, ok := parsePrice(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 0.001, "input %q", tc.in)
		}
	}
}

func TestSanitizeURL(t *testing.T) {
	valid := sanitizeURL("https://www.ebay.com/itm/123", 512)
	require.NotNil(t, valid)
	assert.Equal(t, "https://www.ebay.com/itm/123", *valid)

	assert.Nil(t, sanitizeURL("ftp://example.com/file", 512))
	assert.Nil(t, sanitizeURL("www.ebay.com/itm/123", 512))
	assert.Nil(t, sanitizeURL("", 512))
	assert.Nil(t, sanitizeURL("https://"+strings.Repeat("x", 600), 512))
}

func TestTruncateVenue(t *testing.T) {
	assert.Equal(t, "eBay", truncateVenue("eBay", 128))
	long := strings.Repeat("v", 200)
	assert.Len(t, truncateVenue(long, 128), 128)
}
