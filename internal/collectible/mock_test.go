package collectible

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/snapatlas/enrich/pkg/claude"
	"github.com/snapatlas/enrich/pkg/jina"
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

type mockSearch struct {
	mock.Mock
}

func (m *mockSearch) Search(ctx context.Context, query string, opts ...jina.SearchOption) ([]jina.Result, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]jina.Result), args.Error(1)
}

func textResponse(text string) *claude.MessageResponse {
	return &claude.MessageResponse{
		Content: []claude.ContentBlock{{Type: "text", Text: text}},
		Usage:   claude.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}
}
