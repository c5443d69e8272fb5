// Package poi aggregates the geo provider clients into one cached context
// bundle per coordinate and classification.
package poi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/snapatlas/enrich/internal/geocache"
	"github.com/snapatlas/enrich/internal/model"
	"github.com/snapatlas/enrich/pkg/nominatim"
	"github.com/snapatlas/enrich/pkg/overpass"
	"github.com/snapatlas/enrich/pkg/places"
)

// FoodPlaceTypes are the Places API types queried for restaurant lookups.
var FoodPlaceTypes = []string{"restaurant", "cafe", "bakery", "bar", "meal_takeaway"}

// trailSkipClasses never get a trail lookup. POI context adds nothing for
// these photo categories.
var trailSkipClasses = map[model.Classification]bool{
	model.ClassFood:        true,
	model.ClassCollectible: true,
	model.ClassPeople:      true,
	model.ClassDocuments:   true,
}

// Config holds collector radii and cache settings.
type Config struct {
	DefaultRadius   int
	TrailRadius     int
	ReverseTTL      time.Duration
	PlacesTTL       time.Duration
	TrailsTTL       time.Duration
	CacheMaxEntries int
}

// Collector fetches and caches the POI context bundle. Each underlying
// provider call is independently fault-tolerant: failures degrade to empty
// values and never escape the collector.
type Collector struct {
	cfg     Config
	reverse nominatim.Client
	places  places.Client
	trails  overpass.Client

	reverseCache *geocache.Cache[string]
	placesCache  *geocache.Cache[[]model.POICandidate]
	trailCache   *geocache.Cache[[]model.POICandidate]
}

// Option configures the Collector.
type Option func(*Collector)

// WithClock injects a time source into every provider cache, for testing.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		c.reverseCache = geocache.New(c.cfg.ReverseTTL, c.cfg.CacheMaxEntries, geocache.WithClock[string](now))
		c.placesCache = geocache.New(c.cfg.PlacesTTL, c.cfg.CacheMaxEntries, geocache.WithClock[[]model.POICandidate](now))
		c.trailCache = geocache.New(c.cfg.TrailsTTL, c.cfg.CacheMaxEntries, geocache.WithClock[[]model.POICandidate](now))
	}
}

// NewCollector creates a Collector over the given provider clients.
func NewCollector(cfg Config, rev nominatim.Client, pl places.Client, tr overpass.Client, opts ...Option) *Collector {
	c := &Collector{
		cfg:          cfg,
		reverse:      rev,
		places:       pl,
		trails:       tr,
		reverseCache: geocache.New[string](cfg.ReverseTTL, cfg.CacheMaxEntries),
		placesCache:  geocache.New[[]model.POICandidate](cfg.PlacesTTL, cfg.CacheMaxEntries),
		trailCache:   geocache.New[[]model.POICandidate](cfg.TrailsTTL, cfg.CacheMaxEntries),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect builds the context bundle for a coordinate. Lookups are skipped
// based on classification: collectibles get no reverse geocode or generic
// places (POI data is not meaningful for them), food photos skip generic
// places because the dedicated food lookup supersedes it.
func (c *Collector) Collect(ctx context.Context, coords model.Coordinates, class model.Classification, fetchFood bool) (*model.POIBundle, *model.POISummary) {
	start := time.Now()
	bundle := &model.POIBundle{}

	skipReverse := class == model.ClassCollectible
	skipPlaces := class == model.ClassCollectible || class == model.ClassFood
	skipTrails := trailSkipClasses[class]

	g, gCtx := errgroup.WithContext(ctx)

	if !skipReverse {
		g.Go(func() error {
			bundle.ReverseAddress = c.reverseAddress(gCtx, coords)
			return nil
		})
	}
	if !skipPlaces {
		g.Go(func() error {
			bundle.NearbyPlaces = c.nearbyPlaces(gCtx, coords, c.cfg.DefaultRadius, nil)
			return nil
		})
	}
	if fetchFood {
		g.Go(func() error {
			bundle.NearbyFood = c.NearbyFood(gCtx, coords, c.cfg.DefaultRadius, FoodPlaceTypes)
			return nil
		})
	}
	if !skipTrails {
		g.Go(func() error {
			bundle.Trails = c.nearbyTrails(gCtx, coords)
			return nil
		})
	}

	_ = g.Wait()

	summary := &model.POISummary{
		PlaceCount: len(bundle.NearbyPlaces),
		FoodCount:  len(bundle.NearbyFood),
		TrailCount: len(bundle.Trails),
		HasAddress: bundle.ReverseAddress != "",
		Duration:   time.Since(start),
	}
	return bundle, summary
}

// reverseAddress returns the cached reverse-geocode display name, or ""
// when the provider fails.
func (c *Collector) reverseAddress(ctx context.Context, coords model.Coordinates) string {
	key := geocache.Key("reverse", coords.Latitude, coords.Longitude, 0)
	if cached, ok := c.reverseCache.Get(key); ok {
		zap.L().Debug("poi: reverse cache hit", zap.String("key", key))
		return cached
	}

	addr, err := c.reverse.Reverse(ctx, coords.Latitude, coords.Longitude)
	if err != nil {
		zap.L().Warn("poi: reverse geocode failed", zap.Error(err))
		return ""
	}

	c.reverseCache.Set(key, addr.DisplayName)
	return addr.DisplayName
}

// nearbyPlaces returns cached generic nearby places, or nil on failure.
func (c *Collector) nearbyPlaces(ctx context.Context, coords model.Coordinates, radius int, types []string) []model.POICandidate {
	key := geocache.Key("places", coords.Latitude, coords.Longitude, radius)
	if cached, ok := c.placesCache.Get(key); ok {
		zap.L().Debug("poi: places cache hit", zap.String("key", key))
		return cached
	}

	candidates, err := c.places.Nearby(ctx, coords.Latitude, coords.Longitude, radius, types)
	if err != nil {
		zap.L().Warn("poi: nearby places failed", zap.Error(err))
		return nil
	}

	c.placesCache.Set(key, candidates)
	return candidates
}

// NearbyFood returns cached nearby food places at the given radius, or nil
// on failure. Exported for the food matcher's radius escalation.
func (c *Collector) NearbyFood(ctx context.Context, coords model.Coordinates, radius int, types []string) []model.POICandidate {
	key := geocache.Key("food", coords.Latitude, coords.Longitude, radius)
	if cached, ok := c.placesCache.Get(key); ok {
		zap.L().Debug("poi: food cache hit", zap.String("key", key))
		return cached
	}

	candidates, err := c.places.Nearby(ctx, coords.Latitude, coords.Longitude, radius, types)
	if err != nil {
		zap.L().Warn("poi: nearby food failed", zap.Error(err))
		return nil
	}

	c.placesCache.Set(key, candidates)
	return candidates
}

// nearbyTrails returns cached nearby trails, or nil on failure.
func (c *Collector) nearbyTrails(ctx context.Context, coords model.Coordinates) []model.POICandidate {
	key := geocache.Key("trails", coords.Latitude, coords.Longitude, c.cfg.TrailRadius)
	if cached, ok := c.trailCache.Get(key); ok {
		zap.L().Debug("poi: trail cache hit", zap.String("key", key))
		return cached
	}

	trails, err := c.trails.NearbyTrails(ctx, coords.Latitude, coords.Longitude, c.cfg.TrailRadius)
	if err != nil {
		zap.L().Warn("poi: trail lookup failed", zap.Error(err))
		return nil
	}

	c.trailCache.Set(key, trails)
	return trails
}
