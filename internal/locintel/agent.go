// Package locintel turns raw coordinates and the collected POI bundle
// into a structured place description.
package locintel

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/snapatlas/enrich/internal/llmtext"
	"github.com/snapatlas/enrich/internal/model"
	"github.com/snapatlas/enrich/pkg/claude"
)

const systemPrompt = `You are a location analyst. Given GPS coordinates, camera metadata, and nearby place data, describe where the photo was taken. Use only the provided data; do not invent places. When a field cannot be determined from the data, set it to the literal string "unknown". Respond with a valid JSON object: {"city": "...", "region": "...", "nearest_landmark": "...", "nearest_park": "...", "nearest_trail": "...", "addendum": "<one sentence of notable context or unknown>"}`

// parkVocab identifies landmark names that are really parks or open
// space, so they can be promoted into the park field.
var parkVocab = regexp.MustCompile(`(?i)\b(Open Space|Regional Park|Preserve|State Park|National Park|Wilderness)\b`)

// Agent is the location intelligence stage.
type Agent struct {
	ai        claude.Client
	maxTokens int64
}

// NewAgent creates a location intelligence agent.
func NewAgent(ai claude.Client) *Agent {
	return &Agent{ai: ai, maxTokens: 1024}
}

// Analyze builds the prompt from coordinates, EXIF metadata, and the POI
// bundle, and returns a structured place description. The result is never
// nil: a failed or unparsable model call degrades to a deterministic
// summary built from the bundle alone.
func (a *Agent) Analyze(ctx context.Context, coords model.Coordinates, meta map[string]string, bundle *model.POIBundle, modelName string) (*model.LocationIntel, claude.TokenUsage, error) {
	resp, err := a.ai.CreateMessage(ctx, claude.MessageRequest{
		Model:     modelName,
		MaxTokens: a.maxTokens,
		System:    systemPrompt,
		Prompt:    buildPrompt(coords, meta, bundle),
	})

	var usage claude.TokenUsage
	if err != nil {
		zap.L().Warn("locintel: model call failed, using fallback summary", zap.Error(err))
		return fallbackIntel(bundle), usage, nil
	}
	usage = resp.Usage

	parsed := llmtext.Decode[model.LocationIntel](resp.Text())
	if !parsed.OK {
		zap.L().Warn("locintel: unparsable response, using fallback summary")
		return fallbackIntel(bundle), usage, nil
	}

	intel := parsed.Value
	normalize(&intel)
	promotePark(&intel)
	return &intel, usage, nil
}

func buildPrompt(coords model.Coordinates, meta map[string]string, bundle *model.POIBundle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Coordinates: %.6f, %.6f\n", coords.Latitude, coords.Longitude)

	for _, key := range []string{"heading", "altitude", "timestamp"} {
		if v, ok := meta[key]; ok && v != "" {
			fmt.Fprintf(&b, "%s: %s\n", key, v)
		}
	}

	if bundle != nil {
		if bundle.ReverseAddress != "" {
			fmt.Fprintf(&b, "\nReverse-geocoded address: %s\n", bundle.ReverseAddress)
		}
		writeCandidates(&b, "Nearby places", bundle.NearbyPlaces)
		writeCandidates(&b, "Nearby trails", bundle.Trails)
	}

	return b.String()
}

func writeCandidates(b *strings.Builder, label string, candidates []model.POICandidate) {
	if len(candidates) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", label)
	for _, c := range candidates {
		fmt.Fprintf(b, "- %s (%s", c.Name, c.Category)
		if c.DistanceMeters != nil {
			fmt.Fprintf(b, ", %.0fm away", *c.DistanceMeters)
		}
		b.WriteString(")\n")
	}
}

// normalize replaces empty fields with the unknown sentinel so callers
// never see an empty string.
func normalize(intel *model.LocationIntel) {
	for _, f := range []*string{
		&intel.City, &intel.Region, &intel.NearestLandmark,
		&intel.NearestPark, &intel.NearestTrail, &intel.Addendum,
	} {
		if strings.TrimSpace(*f) == "" {
			*f = model.UnknownField
		}
	}
}

// promotePark moves an open-space landmark into the park field when the
// model left the park unknown.
func promotePark(intel *model.LocationIntel) {
	if intel.NearestPark != model.UnknownField {
		return
	}
	if intel.NearestLandmark == model.UnknownField {
		return
	}
	if parkVocab.MatchString(intel.NearestLandmark) {
		intel.NearestPark = intel.NearestLandmark
	}
}

// fallbackIntel builds a degraded place description from the bundle
// alone. City and region stay unknown; the reverse address carries the
// locality context through the addendum instead.
func fallbackIntel(bundle *model.POIBundle) *model.LocationIntel {
	intel := model.NewLocationIntel()
	if bundle == nil {
		return intel
	}

	if c := nearest(bundle.NearbyPlaces); c != nil {
		intel.NearestLandmark = c.Name
	}
	if c := nearest(bundle.Trails); c != nil {
		intel.NearestTrail = c.Name
	}
	if bundle.ReverseAddress != "" {
		intel.Addendum = "Near " + bundle.ReverseAddress + "."
	}
	promotePark(intel)
	return intel
}

// nearest picks the candidate with the smallest known distance,
// preferring any candidate with a distance over those without.
func nearest(candidates []model.POICandidate) *model.POICandidate {
	var best *model.POICandidate
	for i := range candidates {
		c := &candidates[i]
		if best == nil {
			best = c
			continue
		}
		if c.DistanceMeters == nil {
			continue
		}
		if best.DistanceMeters == nil || *c.DistanceMeters < *best.DistanceMeters {
			best = c
		}
	}
	return best
}
