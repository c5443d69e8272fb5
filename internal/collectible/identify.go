package collectible

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/snapatlas/enrich/internal/llmtext"
	"github.com/snapatlas/enrich/internal/model"
	"github.com/snapatlas/enrich/pkg/claude"
)

// The identify stage names the item only. Valuation reasoning is
// deliberately excluded here and handled by the valuate stage.
const identifySystemPrompt = `You identify collectible items from photos: trading cards, coins, stamps, comics, vinyl records, toys, memorabilia. Name the item as precisely as the photo allows (year, maker, series, number). Do not estimate value. Respond with a valid JSON object: {"id": "<precise item name>", "category": "<card|coin|stamp|comic|vinyl|toy|memorabilia|other>", "confidence": <0.0-1.0>}`

const identifyUserPrompt = `Identify the collectible item in this photo.`

// Identify runs the single vision call of the identify stage.
func (p *Pipeline) Identify(ctx context.Context, image []byte, mimeType, modelName string) (model.Identification, claude.TokenUsage, error) {
	resp, err := p.ai.CreateMessage(ctx, claude.MessageRequest{
		Model:     modelName,
		MaxTokens: p.cfg.MaxTokens,
		System:    identifySystemPrompt,
		Prompt:    identifyUserPrompt,
		Image:     image,
		ImageType: mimeType,
	})
	if err != nil {
		return model.Identification{}, claude.TokenUsage{}, eris.Wrap(err, "collectible: identify call")
	}

	parsed := llmtext.Decode[struct {
		ID         string  `json:"id"`
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}](resp.Text())
	if !parsed.OK {
		return model.Identification{}, resp.Usage, eris.New("collectible: unparsable identify response")
	}

	return model.Identification{
		ID:         parsed.Value.ID,
		Category:   parsed.Value.Category,
		Confidence: clamp01(parsed.Value.Confidence),
		Source:     model.SourceAI,
	}, resp.Usage, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
