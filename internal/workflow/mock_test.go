package workflow

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/snapatlas/enrich/internal/food"
	"github.com/snapatlas/enrich/internal/model"
	"github.com/snapatlas/enrich/pkg/claude"
)

type mockClaude struct {
	mock.Mock
}

func (m *mockClaude) CreateMessage(ctx context.Context, req claude.MessageRequest) (*claude.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*claude.MessageResponse), args.Error(1)
}

type mockCollector struct {
	mock.Mock
}

func (m *mockCollector) Collect(ctx context.Context, coords model.Coordinates, class model.Classification, fetchFood bool) (*model.POIBundle, *model.POISummary) {
	args := m.Called(ctx, coords, class, fetchFood)
	return args.Get(0).(*model.POIBundle), args.Get(1).(*model.POISummary)
}

type mockMatcher struct {
	mock.Mock
}

func (m *mockMatcher) Match(ctx context.Context, coords model.Coordinates, keywords []string) food.Result {
	args := m.Called(ctx, coords, keywords)
	return args.Get(0).(food.Result)
}

type mockCollectibles struct {
	mock.Mock
}

func (m *mockCollectibles) Identify(ctx context.Context, image []byte, mimeType, modelName string) (model.Identification, claude.TokenUsage, error) {
	args := m.Called(ctx, image, mimeType, modelName)
	return args.Get(0).(model.Identification), args.Get(1).(claude.TokenUsage), args.Error(2)
}

func (m *mockCollectibles) Valuate(ctx context.Context, ident model.Identification, modelName string) (*model.Valuation, []string, claude.TokenUsage, error) {
	args := m.Called(ctx, ident, modelName)
	var v *model.Valuation
	if args.Get(0) != nil {
		v = args.Get(0).(*model.Valuation)
	}
	var snippets []string
	if args.Get(1) != nil {
		snippets = args.Get(1).([]string)
	}
	return v, snippets, args.Get(2).(claude.TokenUsage), args.Error(3)
}

func (m *mockCollectibles) Describe(ctx context.Context, c *model.Collectible, modelName string) (*model.FinalResult, claude.TokenUsage, error) {
	args := m.Called(ctx, c, modelName)
	var r *model.FinalResult
	if args.Get(0) != nil {
		r = args.Get(0).(*model.FinalResult)
	}
	return r, args.Get(1).(claude.TokenUsage), args.Error(2)
}

type mockLocator struct {
	mock.Mock
}

func (m *mockLocator) Analyze(ctx context.Context, coords model.Coordinates, meta map[string]string, bundle *model.POIBundle, modelName string) (*model.LocationIntel, claude.TokenUsage, error) {
	args := m.Called(ctx, coords, meta, bundle, modelName)
	var intel *model.LocationIntel
	if args.Get(0) != nil {
		intel = args.Get(0).(*model.LocationIntel)
	}
	return intel, args.Get(1).(claude.TokenUsage), args.Error(2)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generic(ctx context.Context, state *model.WorkflowState, modelName string) (*model.FinalResult, claude.TokenUsage, error) {
	args := m.Called(ctx, state, modelName)
	return args.Get(0).(*model.FinalResult), args.Get(1).(claude.TokenUsage), args.Error(2)
}

func (m *mockGenerator) Food(ctx context.Context, state *model.WorkflowState, modelName string) (*model.FinalResult, claude.TokenUsage, error) {
	args := m.Called(ctx, state, modelName)
	return args.Get(0).(*model.FinalResult), args.Get(1).(claude.TokenUsage), args.Error(2)
}

type mockUsageSink struct {
	mock.Mock
}

func (m *mockUsageSink) Record(ctx context.Context, runID string, entries []model.UsageEntry) error {
	args := m.Called(ctx, runID, entries)
	return args.Error(0)
}

func textResponse(text string) *claude.MessageResponse {
	return &claude.MessageResponse{
		Content: []claude.ContentBlock{{Type: "text", Text: text}},
		Usage:   claude.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}
}

func classifyResponse(label string, words ...string) *claude.MessageResponse {
	text := `{"classification": "` + label + `", "confidence": 0.9, "subject_words": [`
	for i, w := range words {
		if i > 0 {
			text += ", "
		}
		text += `"` + w + `"`
	}
	text += `]}`
	return textResponse(text)
}
