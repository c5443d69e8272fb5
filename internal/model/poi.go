package model

import "time"

// POICandidate is a normalized place record from any geo provider.
// DistanceMeters is set once by the provider client and never recomputed.
type POICandidate struct {
	PlaceID        string   `json:"place_id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
	Rating         float64  `json:"rating,omitempty"`
	Source         string   `json:"source"`
	Types          []string `json:"types,omitempty"`
}

// POIBundle is the cached aggregate of all geo lookups for one
// coordinate/classification pair.
type POIBundle struct {
	ReverseAddress string         `json:"reverse_address,omitempty"`
	NearbyPlaces   []POICandidate `json:"nearby_places,omitempty"`
	NearbyFood     []POICandidate `json:"nearby_food,omitempty"`
	Trails         []POICandidate `json:"trails,omitempty"`
}

// POISummary records lookup counts and duration for observability only.
type POISummary struct {
	PlaceCount int           `json:"place_count"`
	FoodCount  int           `json:"food_count"`
	TrailCount int           `json:"trail_count"`
	HasAddress bool          `json:"has_address"`
	Duration   time.Duration `json:"duration"`
}

// RestaurantCandidate is the food matcher's selected restaurant, with the
// score and confidence that justified the pick. Once Locked, downstream
// stages must not override its name or address.
type RestaurantCandidate struct {
	POICandidate
	Address    string  `json:"address,omitempty"`
	Confidence float64 `json:"confidence"`
	MatchScore float64 `json:"match_score"`
	Locked     bool    `json:"locked"`
}

// LocationIntel is the structured place description produced by the
// location intelligence agent. Fields default to "unknown", never empty.
type LocationIntel struct {
	City            string `json:"city"`
	Region          string `json:"region"`
	NearestLandmark string `json:"nearest_landmark"`
	NearestPark     string `json:"nearest_park"`
	NearestTrail    string `json:"nearest_trail"`
	Addendum        string `json:"addendum"`
}

// UnknownField is the sentinel for location intel fields the model could
// not determine.
const UnknownField = "unknown"

// NewLocationIntel returns a LocationIntel with every field set to the
// unknown sentinel.
func NewLocationIntel() *LocationIntel {
	return &LocationIntel{
		City:            UnknownField,
		Region:          UnknownField,
		NearestLandmark: UnknownField,
		NearestPark:     UnknownField,
		NearestTrail:    UnknownField,
		Addendum:        UnknownField,
	}
}
