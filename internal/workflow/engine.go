// Package workflow is the orchestrator: it classifies a photo, routes it
// to the matching enrichment pipeline, and merges each stage's delta into
// the run state.
package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/snapatlas/enrich/internal/cost"
	"github.com/snapatlas/enrich/internal/food"
	"github.com/snapatlas/enrich/internal/model"
	"github.com/snapatlas/enrich/pkg/claude"
)

// ContextCollector aggregates the geo providers into a POI bundle.
type ContextCollector interface {
	Collect(ctx context.Context, coords model.Coordinates, class model.Classification, fetchFood bool) (*model.POIBundle, *model.POISummary)
}

// RestaurantMatcher selects the restaurant a food photo was taken at.
type RestaurantMatcher interface {
	Match(ctx context.Context, coords model.Coordinates, keywords []string) food.Result
}

// CollectiblePipeline runs the identify, valuate, and describe stages.
type CollectiblePipeline interface {
	Identify(ctx context.Context, image []byte, mimeType, modelName string) (model.Identification, claude.TokenUsage, error)
	Valuate(ctx context.Context, ident model.Identification, modelName string) (*model.Valuation, []string, claude.TokenUsage, error)
	Describe(ctx context.Context, c *model.Collectible, modelName string) (*model.FinalResult, claude.TokenUsage, error)
}

// LocationAgent produces structured place intelligence.
type LocationAgent interface {
	Analyze(ctx context.Context, coords model.Coordinates, meta map[string]string, bundle *model.POIBundle, modelName string) (*model.LocationIntel, claude.TokenUsage, error)
}

// MetadataGenerator produces the final caption/description/keywords.
type MetadataGenerator interface {
	Generic(ctx context.Context, state *model.WorkflowState, modelName string) (*model.FinalResult, claude.TokenUsage, error)
	Food(ctx context.Context, state *model.WorkflowState, modelName string) (*model.FinalResult, claude.TokenUsage, error)
}

// UsageSink persists the run's usage entries.
type UsageSink interface {
	Record(ctx context.Context, runID string, entries []model.UsageEntry) error
}

// Config holds the engine's default model names and optional cost
// tracking.
type Config struct {
	VisionModel string
	TextModel   string
	Costs       *cost.Calculator
}

// Engine is the workflow orchestrator. Stages run at most once per run;
// retries belong to the caller.
type Engine struct {
	cfg          Config
	ai           claude.Client
	collector    ContextCollector
	matcher      RestaurantMatcher
	collectibles CollectiblePipeline
	locator      LocationAgent
	generator    MetadataGenerator
	usage        UsageSink
}

// NewEngine creates the orchestrator. The usage sink may be nil, in which
// case usage entries stay on the state only.
func NewEngine(cfg Config, ai claude.Client, collector ContextCollector, matcher RestaurantMatcher,
	collectibles CollectiblePipeline, locator LocationAgent, generator MetadataGenerator, usage UsageSink) *Engine {
	return &Engine{
		cfg:          cfg,
		ai:           ai,
		collector:    collector,
		matcher:      matcher,
		collectibles: collectibles,
		locator:      locator,
		generator:    generator,
		usage:        usage,
	}
}

// Run processes one photo end to end and always returns the final state.
// A stage that sets Error routes directly to the end; the caller decides
// whether to retry.
func (e *Engine) Run(ctx context.Context, in model.Input) *model.WorkflowState {
	state := model.NewState(in)
	zap.L().Info("workflow: run started",
		zap.String("run_id", state.RunID),
		zap.String("filename", state.Filename),
	)

	state.Apply(e.classify(ctx, state))

	switch route := RouteFor(state.Classification, state.Failed(), state.HasGPS()); route {
	case RouteScenic:
		e.runScenic(ctx, state)
	case RouteFood:
		e.runFood(ctx, state)
	case RouteCollectible:
		e.runCollectible(ctx, state)
	case RouteGeneric:
		e.runGeneric(ctx, state)
	case RouteEnd:
	}

	e.flushUsage(ctx, state)
	zap.L().Info("workflow: run finished",
		zap.String("run_id", state.RunID),
		zap.String("classification", string(state.Classification)),
		zap.Bool("failed", state.Failed()),
	)
	return state
}

// runScenic collects POI context and location intelligence, then hands
// off to the generic generator. A malformed GPS string degrades to the
// plain generic path.
func (e *Engine) runScenic(ctx context.Context, state *model.WorkflowState) {
	coords, err := model.ParseGPS(state.GPS)
	if err != nil {
		zap.L().Warn("workflow: unusable gps, skipping location context", zap.Error(err))
		e.runGeneric(ctx, state)
		return
	}

	bundle, summary := e.collector.Collect(ctx, coords, state.Classification, false)
	state.Apply(&model.Delta{POI: bundle, POISummary: summary})

	start := time.Now()
	modelName := state.ModelFor("locintel", e.cfg.TextModel)
	intel, usage, err := e.locator.Analyze(ctx, coords, state.Metadata, bundle, modelName)
	if err != nil {
		zap.L().Warn("workflow: location intelligence failed", zap.Error(err))
	}
	state.Apply(&model.Delta{
		LocationIntel: intel,
		Usage:         usageEntries("locintel", modelName, usage, start),
	})

	e.runGeneric(ctx, state)
}

// runFood matches the restaurant when coordinates are available, then
// runs the food generator.
func (e *Engine) runFood(ctx context.Context, state *model.WorkflowState) {
	if state.HasGPS() {
		if coords, err := model.ParseGPS(state.GPS); err != nil {
			zap.L().Warn("workflow: unusable gps, skipping restaurant match", zap.Error(err))
		} else {
			result := e.matcher.Match(ctx, coords, keywordsFromLabel(state.RawLabel))
			state.Apply(&model.Delta{
				BestRestaurant:   result.Best,
				NearbyFoodPlaces: result.Candidates,
			})
		}
	}

	start := time.Now()
	modelName := state.ModelFor("generate", e.cfg.VisionModel)
	result, usage, _ := e.generator.Food(ctx, state, modelName)
	state.Apply(&model.Delta{
		FinalResult: result,
		Usage:       usageEntries("generate_food", modelName, usage, start),
	})
}

// runCollectible runs the three collectible stages. Identify and valuate
// errors abort the run; describe never errors.
func (e *Engine) runCollectible(ctx context.Context, state *model.WorkflowState) {
	start := time.Now()
	identifyModel := state.ModelFor("identify", e.cfg.VisionModel)
	ident, usage, err := e.collectibles.Identify(ctx, state.Image, state.MIMEType, identifyModel)
	state.Apply(&model.Delta{Usage: usageEntries("identify", identifyModel, usage, start)})
	if err != nil {
		msg := err.Error()
		state.Apply(&model.Delta{Error: &msg})
		return
	}

	c := &model.Collectible{
		Identification: ident,
		Review:         model.Review{Status: model.ReviewPending},
	}
	state.Apply(&model.Delta{Collectible: c})

	start = time.Now()
	valuateModel := state.ModelFor("valuate", e.cfg.TextModel)
	valuation, snippets, usage, err := e.collectibles.Valuate(ctx, ident, valuateModel)
	state.Apply(&model.Delta{Usage: usageEntries("valuate", valuateModel, usage, start)})
	if err != nil {
		msg := err.Error()
		state.Apply(&model.Delta{Error: &msg})
		return
	}
	c.Valuation = valuation
	c.SearchSnippets = snippets

	start = time.Now()
	describeModel := state.ModelFor("describe", e.cfg.TextModel)
	result, usage, err := e.collectibles.Describe(ctx, c, describeModel)
	if err != nil {
		zap.L().Warn("workflow: describe failed", zap.Error(err))
	}
	state.Apply(&model.Delta{
		FinalResult: result,
		Usage:       usageEntries("describe", describeModel, usage, start),
	})
}

// runGeneric is the terminal generator for scenery and everything else.
func (e *Engine) runGeneric(ctx context.Context, state *model.WorkflowState) {
	start := time.Now()
	modelName := state.ModelFor("generate", e.cfg.VisionModel)
	result, usage, _ := e.generator.Generic(ctx, state, modelName)
	state.Apply(&model.Delta{
		FinalResult: result,
		Usage:       usageEntries("generate", modelName, usage, start),
	})
}

// flushUsage persists usage entries best effort; a failed write never
// fails the run.
func (e *Engine) flushUsage(ctx context.Context, state *model.WorkflowState) {
	if len(state.Usage) == 0 {
		return
	}
	if e.cfg.Costs != nil {
		zap.L().Info("workflow: estimated run cost",
			zap.String("run_id", state.RunID),
			zap.Float64("usd", e.cfg.Costs.Run(state.Usage)),
		)
	}
	if e.usage == nil {
		return
	}
	if err := e.usage.Record(ctx, state.RunID, state.Usage); err != nil {
		zap.L().Warn("workflow: usage log write failed", zap.Error(err))
	}
}

func usageEntries(stage, modelName string, usage claude.TokenUsage, start time.Time) []model.UsageEntry {
	if usage.InputTokens == 0 && usage.OutputTokens == 0 {
		return nil
	}
	return []model.UsageEntry{{
		Stage:        stage,
		Model:        modelName,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		Duration:     time.Since(start),
	}}
}
