// Package model defines the workflow state threaded through every
// enrichment stage and the domain types the stages exchange.
package model

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowState is the single record threaded through a photo enrichment
// run. Stages never mutate it directly; each stage returns a Delta that is
// merged with Apply (last-write-wins over non-nil fields).
type WorkflowState struct {
	RunID string

	// Input fields, set once at run start and read-only downstream.
	Image          []byte
	MIMEType       string
	Filename       string
	Metadata       map[string]string
	GPS            string
	Device         string
	ModelOverrides map[string]string

	// Routing fields.
	Classification Classification
	RawLabel       string
	Error          string

	// Context fields.
	POI        *POIBundle
	POISummary *POISummary

	// Pipeline-specific fields.
	BestRestaurant   *RestaurantCandidate
	NearbyFoodPlaces []POICandidate
	LocationIntel    *LocationIntel
	Collectible      *Collectible

	// Output field, the only one consumed by callers.
	FinalResult *FinalResult

	// Diagnostics, append-only. Never read by pipeline logic.
	Usage []UsageEntry
}

// NewState creates the initial state for one photo run.
func NewState(in Input) *WorkflowState {
	return &WorkflowState{
		RunID:          uuid.New().String(),
		Image:          in.Image,
		MIMEType:       in.MIMEType,
		Filename:       in.Filename,
		Metadata:       in.Metadata,
		GPS:            in.GPS,
		Device:         in.Device,
		ModelOverrides: in.ModelOverrides,
	}
}

// Input is the workflow input contract.
type Input struct {
	Image          []byte            `json:"image"`
	MIMEType       string            `json:"mime_type"`
	Filename       string            `json:"filename"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	GPS            string            `json:"gps,omitempty"`
	Device         string            `json:"device,omitempty"`
	ModelOverrides map[string]string `json:"model_overrides,omitempty"`
}

// HasGPS reports whether the input carried a usable GPS string.
func (s *WorkflowState) HasGPS() bool {
	return s.GPS != ""
}

// ModelFor returns the per-run model override for a stage, or fallback.
func (s *WorkflowState) ModelFor(stage, fallback string) string {
	if m, ok := s.ModelOverrides[stage]; ok && m != "" {
		return m
	}
	return fallback
}

// Delta is a partial state update produced by a single stage. Only non-nil
// fields are merged; Usage entries are appended rather than replaced.
type Delta struct {
	Classification   *Classification
	RawLabel         *string
	Error            *string
	POI              *POIBundle
	POISummary       *POISummary
	BestRestaurant   *RestaurantCandidate
	NearbyFoodPlaces []POICandidate
	LocationIntel    *LocationIntel
	Collectible      *Collectible
	FinalResult      *FinalResult
	Usage            []UsageEntry
}

// Apply merges a stage delta into the state, last write wins.
func (s *WorkflowState) Apply(d *Delta) {
	if d == nil {
		return
	}
	if d.Classification != nil {
		s.Classification = *d.Classification
	}
	if d.RawLabel != nil {
		s.RawLabel = *d.RawLabel
	}
	if d.Error != nil {
		s.Error = *d.Error
	}
	if d.POI != nil {
		s.POI = d.POI
	}
	if d.POISummary != nil {
		s.POISummary = d.POISummary
	}
	if d.BestRestaurant != nil {
		s.BestRestaurant = d.BestRestaurant
	}
	if d.NearbyFoodPlaces != nil {
		s.NearbyFoodPlaces = d.NearbyFoodPlaces
	}
	if d.LocationIntel != nil {
		s.LocationIntel = d.LocationIntel
	}
	if d.Collectible != nil {
		s.Collectible = d.Collectible
	}
	if d.FinalResult != nil {
		s.FinalResult = d.FinalResult
	}
	s.Usage = append(s.Usage, d.Usage...)
}

// Failed reports whether a prior stage aborted the run.
func (s *WorkflowState) Failed() bool {
	return s.Error != ""
}

// FinalResult is the workflow output contract.
type FinalResult struct {
	Caption             string               `json:"caption"`
	Description         string               `json:"description"`
	Keywords            string               `json:"keywords"`
	Classification      string               `json:"classification"`
	CollectibleInsights *CollectibleInsights `json:"collectible_insights,omitempty"`
}

// CollectibleInsights is the collectible slice of the final result.
type CollectibleInsights struct {
	Identification string            `json:"identification"`
	Category       string            `json:"category"`
	Confidence     float64           `json:"confidence"`
	ValueLow       float64           `json:"value_low,omitempty"`
	ValueHigh      float64           `json:"value_high,omitempty"`
	Currency       string            `json:"currency,omitempty"`
	MarketData     []MarketDataPoint `json:"market_data,omitempty"`
}

// UsageEntry records one model or tool invocation for observability.
type UsageEntry struct {
	Stage        string
	Model        string
	InputTokens  int64
	OutputTokens int64
	Duration     time.Duration
}
