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

const foodSystemPrompt = `You write photo library metadata for food photos. Given a photo of a dish and the restaurant it was taken at, produce an appetizing caption, a two-to-three sentence description that names the restaurant, and search keywords. Respond with a valid JSON object: {"caption": "<short caption>", "description": "<description>", "keywords": ["<keyword>", ...]}`

// Food produces metadata for food photos. When a restaurant was locked
// onto the state, the description is guaranteed to name it verbatim; a
// sentence is appended if the model text omits it.
func (g *Generator) Food(ctx context.Context, state *model.WorkflowState, modelName string) (*model.FinalResult, claude.TokenUsage, error) {
	resp, err := g.ai.CreateMessage(ctx, claude.MessageRequest{
		Model:     modelName,
		MaxTokens: g.maxTokens,
		System:    foodSystemPrompt,
		Prompt:    foodPrompt(state),
		Image:     state.Image,
		ImageType: state.MIMEType,
	})

	var usage claude.TokenUsage
	if err != nil {
		zap.L().Warn("generate: food call failed, using template", zap.Error(err))
		return foodTemplate(state), usage, nil
	}
	usage = resp.Usage

	parsed := llmtext.Decode[metaResponse](resp.Text())
	if !parsed.OK || strings.TrimSpace(parsed.Value.Description) == "" {
		zap.L().Warn("generate: unparsable food response, using template")
		return foodTemplate(state), usage, nil
	}

	result := finalize(parsed.Value, state.Classification)
	enforceRestaurantName(result, state.BestRestaurant)
	return result, usage, nil
}

func foodPrompt(state *model.WorkflowState) string {
	var b strings.Builder
	b.WriteString("Describe this food photo for a photo library.\n")

	if r := state.BestRestaurant; r != nil {
		fmt.Fprintf(&b, "Restaurant: %s\n", r.Name)
		if r.Address != "" {
			fmt.Fprintf(&b, "Address: %s\n", r.Address)
		}
		if r.Category != "" {
			fmt.Fprintf(&b, "Cuisine/category: %s\n", r.Category)
		}
	} else if len(state.NearbyFoodPlaces) > 0 {
		b.WriteString("Nearby restaurants (none confirmed):\n")
		for _, p := range state.NearbyFoodPlaces {
			fmt.Fprintf(&b, "- %s (%s)\n", p.Name, p.Category)
		}
	}

	return b.String()
}

// enforceRestaurantName appends a sentence naming the restaurant when
// the model text left it out.
func enforceRestaurantName(result *model.FinalResult, r *model.RestaurantCandidate) {
	if r == nil || r.Name == "" {
		return
	}
	if strings.Contains(result.Description, r.Name) {
		return
	}
	desc := strings.TrimSpace(result.Description)
	if desc != "" && !strings.HasSuffix(desc, ".") && !strings.HasSuffix(desc, "!") && !strings.HasSuffix(desc, "?") {
		desc += "."
	}
	result.Description = desc + fmt.Sprintf(" Taken at %s.", r.Name)
}

func foodTemplate(state *model.WorkflowState) *model.FinalResult {
	caption := "Food photo"
	desc := "A food photo."
	keywords := []string{"food"}

	if r := state.BestRestaurant; r != nil && r.Name != "" {
		caption = "Meal at " + r.Name
		desc = fmt.Sprintf("A meal photographed at %s.", r.Name)
		keywords = append(keywords, r.Name)
		if r.Category != "" {
			keywords = append(keywords, r.Category)
		}
	}

	return &model.FinalResult{
		Caption:        caption,
		Description:    desc,
		Keywords:       strings.Join(keywords, ", "),
		Classification: string(state.Classification),
	}
}
