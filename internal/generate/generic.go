// Package generate holds the terminal metadata generators. Every
// generator returns a non-nil result with a non-empty caption and
// description; malformed model output degrades to templated text built
// from the structured state.
package generate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/snapatlas/enrich/internal/llmtext"
	"github.com/snapatlas/enrich/internal/model"
	"github.com/snapatlas/enrich/pkg/claude"
)

const genericSystemPrompt = `You write photo library metadata. Given a photo and any available location context, produce an engaging caption, a two-to-three sentence description, and search keywords. Use the location context when it is provided; never invent place names. Respond with a valid JSON object: {"caption": "<short caption>", "description": "<description>", "keywords": ["<keyword>", ...]}`

// metaResponse is the shared model response shape of the terminal
// generators.
type metaResponse struct {
	Caption     string   `json:"caption"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Generator produces final photo metadata.
type Generator struct {
	ai        claude.Client
	maxTokens int64
}

// NewGenerator creates a metadata generator.
func NewGenerator(ai claude.Client) *Generator {
	return &Generator{ai: ai, maxTokens: 1024}
}

// Generic produces metadata for scenery and any photo without a
// dedicated pipeline.
func (g *Generator) Generic(ctx context.Context, state *model.WorkflowState, modelName string) (*model.FinalResult, claude.TokenUsage, error) {
	resp, err := g.ai.CreateMessage(ctx, claude.MessageRequest{
		Model:     modelName,
		MaxTokens: g.maxTokens,
		System:    genericSystemPrompt,
		Prompt:    genericPrompt(state),
		Image:     state.Image,
		ImageType: state.MIMEType,
	})

	var usage claude.TokenUsage
	if err != nil {
		zap.L().Warn("generate: generic call failed, using template", zap.Error(err))
		return genericTemplate(state), usage, nil
	}
	usage = resp.Usage

	parsed := llmtext.Decode[metaResponse](resp.Text())
	if !parsed.OK || strings.TrimSpace(parsed.Value.Description) == "" {
		zap.L().Warn("generate: unparsable generic response, using template")
		return genericTemplate(state), usage, nil
	}

	return finalize(parsed.Value, state.Classification), usage, nil
}

func genericPrompt(state *model.WorkflowState) string {
	var b strings.Builder
	b.WriteString("Describe this photo for a photo library.\n")
	if state.Classification != "" {
		fmt.Fprintf(&b, "Photo type: %s\n", state.Classification)
	}
	writeIntel(&b, state.LocationIntel)
	return b.String()
}

func writeIntel(b *strings.Builder, intel *model.LocationIntel) {
	if intel == nil {
		return
	}
	fields := []struct {
		label string
		value string
	}{
		{"City", intel.City},
		{"Region", intel.Region},
		{"Nearest landmark", intel.NearestLandmark},
		{"Nearest park", intel.NearestPark},
		{"Nearest trail", intel.NearestTrail},
		{"Context", intel.Addendum},
	}
	for _, f := range fields {
		if f.value != "" && f.value != model.UnknownField {
			fmt.Fprintf(b, "%s: %s\n", f.label, f.value)
		}
	}
}

func genericTemplate(state *model.WorkflowState) *model.FinalResult {
	caption := "Untitled photo"
	if state.Filename != "" {
		caption = state.Filename
	}

	desc := "A photo"
	keywords := []string{}
	if state.Classification != "" {
		desc = fmt.Sprintf("A %s photo", state.Classification)
		keywords = append(keywords, string(state.Classification))
	}
	if intel := state.LocationIntel; intel != nil {
		if intel.City != model.UnknownField {
			desc += " taken in " + intel.City
			keywords = append(keywords, intel.City)
			if intel.Region != model.UnknownField {
				desc += ", " + intel.Region
				keywords = append(keywords, intel.Region)
			}
		}
		if intel.NearestLandmark != model.UnknownField {
			desc += " near " + intel.NearestLandmark
			keywords = append(keywords, intel.NearestLandmark)
		}
	}
	desc += "."

	return &model.FinalResult{
		Caption:        caption,
		Description:    desc,
		Keywords:       strings.Join(keywords, ", "),
		Classification: string(state.Classification),
	}
}

// finalize turns a parsed model response into the output contract,
// filling the caption from the description when the model left it empty.
func finalize(meta metaResponse, class model.Classification) *model.FinalResult {
	caption := strings.TrimSpace(meta.Caption)
	if caption == "" {
		caption = firstSentence(meta.Description)
	}
	return &model.FinalResult{
		Caption:        caption,
		Description:    meta.Description,
		Keywords:       strings.Join(meta.Keywords, ", "),
		Classification: string(class),
	}
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".!?"); i > 0 {
		return text[:i+1]
	}
	return text
}
