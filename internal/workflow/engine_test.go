package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/snapatlas/enrich/internal/food"
	"github.com/snapatlas/enrich/internal/model"
	"github.com/snapatlas/enrich/pkg/claude"
)

func testEngine(ai *mockClaude, collector *mockCollector, matcher *mockMatcher,
	collectibles *mockCollectibles, locator *mockLocator, generator *mockGenerator, usage *mockUsageSink) *Engine {
	var sink UsageSink
	if usage != nil {
		sink = usage
	}
	return NewEngine(Config{VisionModel: "vision-model", TextModel: "text-model"},
		ai, collector, matcher, collectibles, locator, generator, sink)
}

func TestRunScenic(t *testing.T) {
	ai := new(mockClaude)
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(classifyResponse("scenery", "redwoods", "canyon"), nil)

	bundle := &model.POIBundle{ReverseAddress: "Skyline Blvd, Oakland"}
	collector := new(mockCollector)
	collector.On("Collect", mock.Anything,
		model.Coordinates{Latitude: 37.8197, Longitude: -122.1811},
		model.ClassScenery, false).
		Return(bundle, &model.POISummary{HasAddress: true})

	intel := &model.LocationIntel{City: "Oakland"}
	locator := new(mockLocator)
	locator.On("Analyze", mock.Anything, mock.Anything, mock.Anything, bundle, "text-model").
		Return(intel, claude.TokenUsage{InputTokens: 30, OutputTokens: 20}, nil)

	generator := new(mockGenerator)
	generator.On("Generic", mock.Anything, mock.Anything, "vision-model").
		Return(&model.FinalResult{Caption: "Redwood canyon", Description: "d", Classification: "scenery"},
			claude.TokenUsage{InputTokens: 40, OutputTokens: 25}, nil)

	engine := testEngine(ai, collector, new(mockMatcher), new(mockCollectibles), locator, generator, nil)
	state := engine.Run(context.Background(), model.Input{
		Image:    []byte("img"),
		MIMEType: "image/jpeg",
		GPS:      "37.8197,-122.1811",
	})

	require.NotNil(t, state.FinalResult)
	assert.Equal(t, "Redwood canyon", state.FinalResult.Caption)
	assert.Equal(t, model.ClassScenery, state.Classification)
	assert.Same(t, bundle, state.POI)
	assert.Same(t, intel, state.LocationIntel)
	assert.False(t, state.Failed())

	// classify, locintel, generate.
	require.Len(t, state.Usage, 3)
	assert.Equal(t, "classify", state.Usage[0].Stage)
	assert.Equal(t, "locintel", state.Usage[1].Stage)
	assert.Equal(t, "generate", state.Usage[2].Stage)
}

func TestRunSceneryWithoutGPSSkipsContext(t *testing.T) {
	ai := new(mockClaude)
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(classifyResponse("scenery"), nil)

	collector := new(mockCollector)
	locator := new(mockLocator)
	generator := new(mockGenerator)
	generator.On("Generic", mock.Anything, mock.Anything, "vision-model").
		Return(&model.FinalResult{Caption: "c", Description: "d"}, claude.TokenUsage{}, nil)

	engine := testEngine(ai, collector, new(mockMatcher), new(mockCollectibles), locator, generator, nil)
	state := engine.Run(context.Background(), model.Input{Image: []byte("img")})

	require.NotNil(t, state.FinalResult)
	assert.Nil(t, state.POI)
	collector.AssertNotCalled(t, "Collect")
	locator.AssertNotCalled(t, "Analyze")
}

func TestRunFood(t *testing.T) {
	ai := new(mockClaude)
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(classifyResponse("food", "seafood", "crab"), nil)

	best := &model.RestaurantCandidate{
		POICandidate: model.POICandidate{Name: "The Cajun Crackn"},
		Confidence:   0.8,
		MatchScore:   2,
	}
	matcher := new(mockMatcher)
	matcher.On("Match", mock.Anything, mock.Anything, []string{"seafood", "crab"}).
		Return(food.Result{Best: best, Candidates: []model.POICandidate{best.POICandidate}})

	generator := new(mockGenerator)
	generator.On("Food", mock.Anything, mock.MatchedBy(func(s *model.WorkflowState) bool {
		return s.BestRestaurant != nil && s.BestRestaurant.Name == "The Cajun Crackn"
	}), "vision-model").
		Return(&model.FinalResult{Caption: "Crab boil", Description: "At The Cajun Crackn."},
			claude.TokenUsage{InputTokens: 10, OutputTokens: 5}, nil)

	engine := testEngine(ai, new(mockCollector), matcher, new(mockCollectibles), new(mockLocator), generator, nil)
	state := engine.Run(context.Background(), model.Input{
		Image: []byte("img"),
		GPS:   "37.80,-122.27",
	})

	require.NotNil(t, state.FinalResult)
	assert.Equal(t, best, state.BestRestaurant)
	generator.AssertExpectations(t)
	matcher.AssertExpectations(t)
}

func TestRunFoodWithoutGPSSkipsMatcher(t *testing.T) {
	ai := new(mockClaude)
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(classifyResponse("food"), nil)

	matcher := new(mockMatcher)
	generator := new(mockGenerator)
	generator.On("Food", mock.Anything, mock.Anything, "vision-model").
		Return(&model.FinalResult{Caption: "c", Description: "d"}, claude.TokenUsage{}, nil)

	engine := testEngine(ai, new(mockCollector), matcher, new(mockCollectibles), new(mockLocator), generator, nil)
	state := engine.Run(context.Background(), model.Input{Image: []byte("img")})

	require.NotNil(t, state.FinalResult)
	assert.Nil(t, state.BestRestaurant)
	matcher.AssertNotCalled(t, "Match")
}

func TestRunCollectible(t *testing.T) {
	ai := new(mockClaude)
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(classifyResponse("collectible"), nil)

	ident := model.Identification{ID: "1962 Topps Mickey Mantle #200", Category: "card", Confidence: 0.85, Source: model.SourceAI}
	valuation := &model.Valuation{Low: 175.5, High: 1200, Currency: "USD"}
	result := &model.FinalResult{Caption: "Mantle card", Description: "d", Classification: "collectible"}

	collectibles := new(mockCollectibles)
	collectibles.On("Identify", mock.Anything, []byte("img"), "image/jpeg", "vision-model").
		Return(ident, claude.TokenUsage{InputTokens: 100, OutputTokens: 20}, nil)
	collectibles.On("Valuate", mock.Anything, ident, "text-model").
		Return(valuation, []string{"snippet"}, claude.TokenUsage{InputTokens: 200, OutputTokens: 80}, nil)
	collectibles.On("Describe", mock.Anything, mock.MatchedBy(func(c *model.Collectible) bool {
		return c.Identification == ident && c.Valuation == valuation &&
			c.Review.Status == model.ReviewPending
	}), "text-model").
		Return(result, claude.TokenUsage{InputTokens: 50, OutputTokens: 40}, nil)

	engine := testEngine(ai, new(mockCollector), new(mockMatcher), collectibles, new(mockLocator), new(mockGenerator), nil)
	state := engine.Run(context.Background(), model.Input{Image: []byte("img"), MIMEType: "image/jpeg"})

	assert.Equal(t, result, state.FinalResult)
	require.NotNil(t, state.Collectible)
	assert.Equal(t, valuation, state.Collectible.Valuation)
	assert.False(t, state.Failed())
	require.Len(t, state.Usage, 4)
	assert.Equal(t, "identify", state.Usage[1].Stage)
	assert.Equal(t, "valuate", state.Usage[2].Stage)
	assert.Equal(t, "describe", state.Usage[3].Stage)
}

func TestRunCollectibleIdentifyErrorAborts(t *testing.T) {
	ai := new(mockClaude)
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(classifyResponse("collectible"), nil)

	collectibles := new(mockCollectibles)
	collectibles.On("Identify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(model.Identification{}, claude.TokenUsage{InputTokens: 100, OutputTokens: 5},
			errors.New("collectible: unparsable identify response"))

	engine := testEngine(ai, new(mockCollector), new(mockMatcher), collectibles, new(mockLocator), new(mockGenerator), nil)
	state := engine.Run(context.Background(), model.Input{Image: []byte("img")})

	assert.True(t, state.Failed())
	assert.Contains(t, state.Error, "unparsable identify response")
	assert.Nil(t, state.FinalResult)
	collectibles.AssertNotCalled(t, "Valuate")
	collectibles.AssertNotCalled(t, "Describe")
	// The failed identify call's usage is still recorded.
	require.Len(t, state.Usage, 2)
	assert.Equal(t, "identify", state.Usage[1].Stage)
}

func TestRunClassifyErrorEndsRun(t *testing.T) {
	ai := new(mockClaude)
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("api down"))

	generator := new(mockGenerator)
	engine := testEngine(ai, new(mockCollector), new(mockMatcher), new(mockCollectibles), new(mockLocator), generator, nil)
	state := engine.Run(context.Background(), model.Input{Image: []byte("img")})

	assert.True(t, state.Failed())
	assert.Nil(t, state.FinalResult)
	generator.AssertNotCalled(t, "Generic")
	generator.AssertNotCalled(t, "Food")
}

func TestRunUnparsableClassificationRoutesGeneric(t *testing.T) {
	ai := new(mockClaude)
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse("this looks like a nice photo"), nil)

	generator := new(mockGenerator)
	generator.On("Generic", mock.Anything, mock.Anything, "vision-model").
		Return(&model.FinalResult{Caption: "c", Description: "d"}, claude.TokenUsage{}, nil)

	engine := testEngine(ai, new(mockCollector), new(mockMatcher), new(mockCollectibles), new(mockLocator), generator, nil)
	state := engine.Run(context.Background(), model.Input{Image: []byte("img"), GPS: "1,1"})

	assert.Equal(t, model.ClassOther, state.Classification)
	require.NotNil(t, state.FinalResult)
	assert.False(t, state.Failed())
}

func TestRunFlushesUsage(t *testing.T) {
	ai := new(mockClaude)
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(classifyResponse("other"), nil)

	generator := new(mockGenerator)
	generator.On("Generic", mock.Anything, mock.Anything, mock.Anything).
		Return(&model.FinalResult{Caption: "c", Description: "d"},
			claude.TokenUsage{InputTokens: 10, OutputTokens: 5}, nil)

	usage := new(mockUsageSink)
	usage.On("Record", mock.Anything, mock.Anything, mock.MatchedBy(func(entries []model.UsageEntry) bool {
		return len(entries) == 2
	})).Return(nil)

	engine := testEngine(ai, new(mockCollector), new(mockMatcher), new(mockCollectibles), new(mockLocator), generator, usage)
	engine.Run(context.Background(), model.Input{Image: []byte("img")})

	usage.AssertExpectations(t)
}

func TestRunUsageFlushFailureDoesNotFailRun(t *testing.T) {
	ai := new(mockClaude)
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(classifyResponse("other"), nil)

	generator := new(mockGenerator)
	generator.On("Generic", mock.Anything, mock.Anything, mock.Anything).
		Return(&model.FinalResult{Caption: "c", Description: "d"}, claude.TokenUsage{}, nil)

	usage := new(mockUsageSink)
	usage.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	engine := testEngine(ai, new(mockCollector), new(mockMatcher), new(mockCollectibles), new(mockLocator), generator, usage)
	state := engine.Run(context.Background(), model.Input{Image: []byte("img")})

	assert.False(t, state.Failed())
	require.NotNil(t, state.FinalResult)
}

func TestRunModelOverrides(t *testing.T) {
	ai := new(mockClaude)
	ai.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req claude.MessageRequest) bool {
		return req.Model == "custom-classify-model"
	})).Return(classifyResponse("other"), nil)

	generator := new(mockGenerator)
	generator.On("Generic", mock.Anything, mock.Anything, "custom-generate-model").
		Return(&model.FinalResult{Caption: "c", Description: "d"}, claude.TokenUsage{}, nil)

	engine := testEngine(ai, new(mockCollector), new(mockMatcher), new(mockCollectibles), new(mockLocator), generator, nil)
	state := engine.Run(context.Background(), model.Input{
		Image: []byte("img"),
		ModelOverrides: map[string]string{
			"classify": "custom-classify-model",
			"generate": "custom-generate-model",
		},
	})

	require.NotNil(t, state.FinalResult)
	ai.AssertExpectations(t)
	generator.AssertExpectations(t)
}
