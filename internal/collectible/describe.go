package collectible

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/snapatlas/enrich/internal/llmtext"
	"github.com/snapatlas/enrich/internal/model"
	"github.com/snapatlas/enrich/pkg/claude"
)

const describeSystemPrompt = `You write photo library metadata for collectible items. Given an identification and valuation, produce an engaging caption, a two-to-four sentence description citing sources by name when available, and search keywords. Respond with a valid JSON object: {"caption": "<short caption>", "description": "<description>", "keywords": ["<keyword>", ...]}`

const describeUserPrompt = `Item: %s
Category: %s
Identification confidence: %.2f
%s%s`

// Describe produces the final metadata for a collectible. Malformed model
// output falls back to a deterministic template built from the structured
// fields, so the description is never empty.
func (p *Pipeline) Describe(ctx context.Context, c *model.Collectible, modelName string) (*model.FinalResult, claude.TokenUsage, error) {
	resp, err := p.ai.CreateMessage(ctx, claude.MessageRequest{
		Model:     modelName,
		MaxTokens: p.cfg.MaxTokens,
		System:    describeSystemPrompt,
		Prompt:    describePrompt(c),
	})

	var usage claude.TokenUsage
	if err != nil {
		zap.L().Warn("collectible: describe call failed, using template", zap.Error(err))
		return templateResult(c), usage, nil
	}
	usage = resp.Usage

	parsed := llmtext.Decode[struct {
		Caption     string   `json:"caption"`
		Description string   `json:"description"`
		Keywords    []string `json:"keywords"`
	}](resp.Text())
	if !parsed.OK || strings.TrimSpace(parsed.Value.Description) == "" {
		zap.L().Warn("collectible: unparsable describe response, using template")
		return templateResult(c), usage, nil
	}

	result := &model.FinalResult{
		Caption:             parsed.Value.Caption,
		Description:         parsed.Value.Description,
		Keywords:            strings.Join(parsed.Value.Keywords, ", "),
		Classification:      string(model.ClassCollectible),
		CollectibleInsights: insights(c),
	}
	if strings.TrimSpace(result.Caption) == "" {
		result.Caption = c.Identification.ID
	}
	return result, usage, nil
}

func describePrompt(c *model.Collectible) string {
	valuation := "No valuation available.\n"
	if v := c.Valuation; v != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "Estimated value: %.2f-%.2f %s\n", v.Low, v.High, v.Currency)
		for _, md := range v.MarketData {
			fmt.Fprintf(&b, "- %.2f at %s", md.Price, md.Venue)
			if md.Condition != "" {
				fmt.Fprintf(&b, " (%s)", md.Condition)
			}
			b.WriteString("\n")
		}
		valuation = b.String()
	}

	snippets := ""
	if len(c.SearchSnippets) > 0 {
		snippets = "\nListing context:\n" + strings.Join(c.SearchSnippets, "\n")
	}

	return fmt.Sprintf(describeUserPrompt,
		c.Identification.ID, c.Identification.Category, c.Identification.Confidence,
		valuation, snippets)
}

// templateResult builds the deterministic fallback description.
func templateResult(c *model.Collectible) *model.FinalResult {
	id := c.Identification.ID
	if id == "" {
		id = "Unidentified collectible"
	}

	desc := fmt.Sprintf("%s, identified with %.0f%% confidence.", id, c.Identification.Confidence*100)
	if v := c.Valuation; v != nil && (v.Low > 0 || v.High > 0) {
		desc += fmt.Sprintf(" Estimated market value %.2f-%.2f %s based on %d observed listings.",
			v.Low, v.High, v.Currency, len(v.MarketData))
	}

	keywords := []string{"collectible"}
	if c.Identification.Category != "" {
		keywords = append(keywords, c.Identification.Category)
	}

	return &model.FinalResult{
		Caption:             id,
		Description:         desc,
		Keywords:            strings.Join(keywords, ", "),
		Classification:      string(model.ClassCollectible),
		CollectibleInsights: insights(c),
	}
}

func insights(c *model.Collectible) *model.CollectibleInsights {
	out := &model.CollectibleInsights{
		Identification: c.Identification.ID,
		Category:       c.Identification.Category,
		Confidence:     c.Identification.Confidence,
	}
	if v := c.Valuation; v != nil {
		out.ValueLow = v.Low
		out.ValueHigh = v.High
		out.Currency = v.Currency
		out.MarketData = v.MarketData
	}
	return out
}
