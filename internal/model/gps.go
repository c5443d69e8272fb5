package model

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Coordinates is a parsed GPS position.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// ParseGPS parses a "lat,lon" GPS string as produced by the upload
// pipeline's EXIF extraction. Whitespace around either component is
// tolerated.
func ParseGPS(gps string) (Coordinates, error) {
	parts := strings.Split(gps, ",")
	if len(parts) != 2 {
		return Coordinates{}, eris.Errorf("model: malformed gps string %q", gps)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinates{}, eris.Wrapf(err, "model: parse latitude %q", parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinates{}, eris.Wrapf(err, "model: parse longitude %q", parts[1])
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Coordinates{}, eris.Errorf("model: gps out of range %q", gps)
	}

	return Coordinates{Latitude: lat, Longitude: lon}, nil
}
