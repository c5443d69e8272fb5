package collectible

import (
	"regexp"
	"strconv"
	"strings"
)

// searchUnsafe matches characters stripped from identification strings
// before they are used as web search queries.
var searchUnsafe = regexp.MustCompile(`[^\w\s.#&'-]`)

// sanitizeQuery turns a free-text identification into a search-safe
// string: punctuation noise removed, whitespace collapsed.
func sanitizeQuery(id string) string {
	cleaned := searchUnsafe.ReplaceAllString(id, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

// parsePrice coerces a price string that may carry currency symbols and
// thousands separators ("$1,200.00") into a plain number. Returns false
// for non-numeric or missing input.
func parsePrice(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-':
			return r
		default:
			return -1
		}
	}, cleaned)

	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// sanitizeURL validates that a URL starts with http/https and is within
// the length bound. Invalid URLs become nil rather than rejecting the
// containing record.
func sanitizeURL(raw string, maxLen int) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || len(trimmed) > maxLen {
		return nil
	}
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return nil
	}
	return &trimmed
}

// truncateVenue bounds a venue string, respecting rune boundaries.
func truncateVenue(venue string, maxLen int) string {
	venue = strings.TrimSpace(venue)
	runes := []rune(venue)
	if len(runes) <= maxLen {
		return venue
	}
	return string(runes[:maxLen])
}
