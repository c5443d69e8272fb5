package main

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/snapatlas/enrich/internal/collectible"
	"github.com/snapatlas/enrich/internal/cost"
	"github.com/snapatlas/enrich/internal/food"
	"github.com/snapatlas/enrich/internal/generate"
	"github.com/snapatlas/enrich/internal/locintel"
	"github.com/snapatlas/enrich/internal/poi"
	"github.com/snapatlas/enrich/internal/usagelog"
	"github.com/snapatlas/enrich/internal/workflow"
	"github.com/snapatlas/enrich/pkg/claude"
	"github.com/snapatlas/enrich/pkg/jina"
	"github.com/snapatlas/enrich/pkg/nominatim"
	"github.com/snapatlas/enrich/pkg/overpass"
	"github.com/snapatlas/enrich/pkg/places"
)

// env holds the wired workflow engine and its closable resources.
type env struct {
	Engine *workflow.Engine
	usage  *usagelog.Store
}

func (e *env) Close() {
	if e.usage != nil {
		if err := e.usage.Close(); err != nil {
			zap.L().Warn("close usage log", zap.Error(err))
		}
	}
}

// buildEnv wires every client and stage from configuration.
func buildEnv() (*env, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic.key is required")
	}

	ai := claude.NewClient(cfg.Anthropic.Key)
	search := jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL))
	placesClient := places.NewClient(cfg.Places.Key, places.WithBaseURL(cfg.Places.BaseURL))
	reverse := nominatim.NewClient(cfg.Nominatim.UserAgent,
		nominatim.WithBaseURL(cfg.Nominatim.BaseURL),
		nominatim.WithRateLimit(cfg.Nominatim.RateRPS),
	)
	trails := overpass.NewClient(overpass.WithBaseURL(cfg.Overpass.BaseURL))

	collector := poi.NewCollector(poi.Config{
		DefaultRadius:   cfg.Places.DefaultRadius,
		TrailRadius:     cfg.Overpass.TrailRadius,
		ReverseTTL:      time.Duration(cfg.Cache.ReverseTTLHours) * time.Hour,
		PlacesTTL:       time.Duration(cfg.Cache.PlacesTTLHours) * time.Hour,
		TrailsTTL:       time.Duration(cfg.Cache.TrailsTTLHours) * time.Hour,
		CacheMaxEntries: cfg.Cache.MaxEntries,
	}, reverse, placesClient, trails)

	matcher, err := food.NewMatcher(food.Config{
		StartRadius:      cfg.Food.StartRadius,
		MaxRadius:        cfg.Food.MaxRadius,
		AutoSelectMeters: cfg.Food.AutoSelectMeters,
		AutoSelectRating: cfg.Food.AutoSelectRating,
		MinKeywordScore:  cfg.Food.MinKeywordScore,
		MaxCandidates:    cfg.Food.MaxCandidates,
	}, collector, nil)
	if err != nil {
		return nil, eris.Wrap(err, "build food matcher")
	}

	collectibles := collectible.NewPipeline(collectible.Config{
		MaxSearchResults: cfg.Collectible.MaxSearchResults,
		MaxVenueLength:   cfg.Collectible.MaxVenueLength,
		MaxURLLength:     cfg.Collectible.MaxURLLength,
		MaxTokens:        cfg.Anthropic.MaxTokens,
	}, ai, search)

	usage, err := usagelog.Open(cfg.UsageLog.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open usage log")
	}

	engine := workflow.NewEngine(workflow.Config{
		VisionModel: cfg.Anthropic.VisionModel,
		TextModel:   cfg.Anthropic.TextModel,
		Costs:       cost.NewCalculator(cost.DefaultRates()),
	}, ai, collector, matcher, collectibles, locintel.NewAgent(ai), generate.NewGenerator(ai), usage)

	return &env{Engine: engine, usage: usage}, nil
}
