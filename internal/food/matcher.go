// Package food selects the restaurant a photo was most likely taken at,
// from candidates queried at escalating radii around the photo's location.
package food

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/snapatlas/enrich/internal/model"
)

// Lookup is the cached food-place query the matcher escalates over.
// Implemented by the POI collector.
type Lookup interface {
	NearbyFood(ctx context.Context, coords model.Coordinates, radius int, types []string) []model.POICandidate
}

// Config holds matcher thresholds.
type Config struct {
	StartRadius      int
	MaxRadius        int
	AutoSelectMeters float64
	AutoSelectRating float64
	MinKeywordScore  float64
	MaxCandidates    int
}

// Result is the matcher output. Best is nil when no candidate cleared the
// deterministic or keyword thresholds; Candidates is the curated list a
// downstream generator may reason over.
type Result struct {
	Best       *model.RestaurantCandidate
	Candidates []model.POICandidate
}

// typeFilterGroups are queried in parallel within each radius. Splitting
// by group keeps each Places call under its result cap in dense areas.
var typeFilterGroups = [][]string{
	{"restaurant"},
	{"cafe", "bakery"},
	{"bar", "meal_takeaway"},
}

// Matcher scores and selects restaurant candidates.
type Matcher struct {
	cfg    Config
	lookup Lookup
	table  *ScoringTable
	fold   cases.Caser
}

// NewMatcher creates a Matcher. A nil table loads the embedded default.
func NewMatcher(cfg Config, lookup Lookup, table *ScoringTable) (*Matcher, error) {
	if table == nil {
		var err error
		table, err = DefaultScoringTable()
		if err != nil {
			return nil, err
		}
	}
	if cfg.StartRadius <= 0 {
		cfg.StartRadius = 100
	}
	if cfg.MaxRadius < cfg.StartRadius {
		cfg.MaxRadius = cfg.StartRadius
	}
	return &Matcher{
		cfg:    cfg,
		lookup: lookup,
		table:  table,
		fold:   cases.Fold(),
	}, nil
}

// Match queries candidates at escalating radii and applies the selection
// policy. Zero candidates at the maximum radius yields an empty Result,
// never an error.
func (m *Matcher) Match(ctx context.Context, coords model.Coordinates, keywords []string) Result {
	candidates := m.escalate(ctx, coords)
	if len(candidates) == 0 {
		return Result{}
	}

	curated := m.curate(candidates)
	sortCandidates(curated)
	if m.cfg.MaxCandidates > 0 && len(curated) > m.cfg.MaxCandidates {
		curated = curated[:m.cfg.MaxCandidates]
	}

	// Deterministic auto-select: a close, well-rated top candidate is
	// locked with full confidence and no stage may override it.
	top := curated[0]
	if top.DistanceMeters != nil &&
		*top.DistanceMeters <= m.cfg.AutoSelectMeters &&
		top.Rating >= m.cfg.AutoSelectRating {
		zap.L().Info("food: auto-selected restaurant",
			zap.String("name", top.Name),
			zap.Float64("distance_m", *top.DistanceMeters),
			zap.Float64("rating", top.Rating),
		)
		return Result{
			Best: &model.RestaurantCandidate{
				POICandidate: top,
				Confidence:   1,
				Locked:       true,
			},
			Candidates: curated,
		}
	}

	// Keyword tie-break: the best-scoring candidate wins if it clears the
	// minimum match score, even over closer unrelated businesses.
	if len(keywords) > 0 {
		if best, score := m.bestByKeywords(curated, keywords); best != nil && score >= m.cfg.MinKeywordScore {
			zap.L().Info("food: keyword-selected restaurant",
				zap.String("name", best.Name),
				zap.Float64("match_score", score),
			)
			return Result{
				Best: &model.RestaurantCandidate{
					POICandidate: *best,
					Confidence:   0.8,
					MatchScore:   score,
				},
				Candidates: curated,
			}
		}
	}

	return Result{Candidates: curated}
}

// escalate queries start, 2x, 4x radii up to the max, stopping at the
// first radius with any result. Within a radius the type filter groups
// run in parallel and results are deduplicated by place id.
func (m *Matcher) escalate(ctx context.Context, coords model.Coordinates) []model.POICandidate {
	for radius := m.cfg.StartRadius; ; radius *= 2 {
		if radius > m.cfg.MaxRadius {
			radius = m.cfg.MaxRadius
		}

		candidates := m.queryRadius(ctx, coords, radius)
		if len(candidates) > 0 {
			zap.L().Debug("food: candidates found",
				zap.Int("radius_m", radius),
				zap.Int("count", len(candidates)),
			)
			return candidates
		}
		if radius >= m.cfg.MaxRadius {
			return nil
		}
	}
}

func (m *Matcher) queryRadius(ctx context.Context, coords model.Coordinates, radius int) []model.POICandidate {
	var mu sync.Mutex
	merged := make(map[string]model.POICandidate)

	g, gCtx := errgroup.WithContext(ctx)
	for _, types := range typeFilterGroups {
		types := types
		g.Go(func() error {
			found := m.lookup.NearbyFood(gCtx, coords, radius, types)
			mu.Lock()
			for _, c := range found {
				existing, seen := merged[c.PlaceID]
				if !seen || morePopulated(c, existing) {
					merged[c.PlaceID] = c
				}
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := make([]model.POICandidate, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	return out
}

// morePopulated prefers the duplicate with non-null fields filled in.
func morePopulated(a, b model.POICandidate) bool {
	score := func(c model.POICandidate) int {
		n := 0
		if c.Rating > 0 {
			n++
		}
		if c.DistanceMeters != nil {
			n++
		}
		if len(c.Types) > 0 {
			n++
		}
		if c.Category != "" {
			n++
		}
		return n
	}
	return score(a) > score(b)
}

// curate filters candidates to known food-serving types, falling back to
// a category string match, then to the raw list.
func (m *Matcher) curate(candidates []model.POICandidate) []model.POICandidate {
	var byType []model.POICandidate
	for _, c := range candidates {
		if m.table.IsFoodType(c.Category) {
			byType = append(byType, c)
			continue
		}
		for _, t := range c.Types {
			if m.table.IsFoodType(t) {
				byType = append(byType, c)
				break
			}
		}
	}
	if len(byType) > 0 {
		return byType
	}

	var byCategory []model.POICandidate
	for _, c := range candidates {
		cat := m.fold.String(c.Category)
		if strings.Contains(cat, "restaurant") || strings.Contains(cat, "food") || strings.Contains(cat, "cafe") {
			byCategory = append(byCategory, c)
		}
	}
	if len(byCategory) > 0 {
		return byCategory
	}

	return candidates
}

// sortCandidates orders by ascending distance, then descending rating.
// Candidates without a distance sort last.
func sortCandidates(candidates []model.POICandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := candidates[i].DistanceMeters, candidates[j].DistanceMeters
		switch {
		case di == nil && dj == nil:
			return candidates[i].Rating > candidates[j].Rating
		case di == nil:
			return false
		case dj == nil:
			return true
		case *di != *dj:
			return *di < *dj
		default:
			return candidates[i].Rating > candidates[j].Rating
		}
	})
}

// bestByKeywords returns the highest-scoring candidate and its score.
func (m *Matcher) bestByKeywords(candidates []model.POICandidate, keywords []string) (*model.POICandidate, float64) {
	var best *model.POICandidate
	bestScore := 0.0
	for i := range candidates {
		score := m.keywordScore(candidates[i], keywords)
		if score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}
	return best, bestScore
}

// keywordScore awards one point per keyword that matches the candidate's
// name, its place types, or the cuisine vocabulary those types imply.
func (m *Matcher) keywordScore(c model.POICandidate, keywords []string) float64 {
	name := m.fold.String(c.Name)

	var typeStrings []string
	if c.Category != "" {
		typeStrings = append(typeStrings, c.Category)
	}
	typeStrings = append(typeStrings, c.Types...)

	var vocab []string
	for _, t := range typeStrings {
		vocab = append(vocab, m.table.Cuisine[t]...)
	}

	score := 0.0
	for _, kw := range keywords {
		folded := m.fold.String(strings.TrimSpace(kw))
		if folded == "" {
			continue
		}
		matched := strings.Contains(name, folded)
		if !matched {
			for _, t := range typeStrings {
				if strings.Contains(m.fold.String(t), folded) {
					matched = true
					break
				}
			}
		}
		if !matched {
			for _, v := range vocab {
				if m.fold.String(v) == folded {
					matched = true
					break
				}
			}
		}
		if matched {
			score++
		}
	}
	return score
}
