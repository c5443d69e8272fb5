package workflow

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/snapatlas/enrich/internal/llmtext"
	"github.com/snapatlas/enrich/internal/model"
	"github.com/snapatlas/enrich/pkg/claude"
)

const classifySystemPrompt = `You classify photos for an enrichment pipeline. Assign exactly one label: scenery, food, collectible, people, pets, documents, or other. Add two or three lowercase content words describing the subject (for food, the cuisine or dish; for scenery, the terrain). Respond with a valid JSON object: {"classification": "<label>", "confidence": <0.0-1.0>, "subject_words": ["<word>", ...]}`

const classifyUserPrompt = `Classify this photo.`

// classify runs the single vision call that decides the route. Unparsable
// model output degrades to "other" rather than an error, so routing stays
// total. The subject words are kept on the raw label for the food
// matcher's keyword tie-break.
func (e *Engine) classify(ctx context.Context, state *model.WorkflowState) *model.Delta {
	start := time.Now()
	modelName := state.ModelFor("classify", e.cfg.VisionModel)

	resp, err := e.ai.CreateMessage(ctx, claude.MessageRequest{
		Model:     modelName,
		MaxTokens: 256,
		System:    classifySystemPrompt,
		Prompt:    classifyUserPrompt,
		Image:     state.Image,
		ImageType: state.MIMEType,
	})
	if err != nil {
		msg := "classify: " + err.Error()
		return &model.Delta{Error: &msg}
	}

	parsed := llmtext.Decode[struct {
		Classification string   `json:"classification"`
		Confidence     float64  `json:"confidence"`
		SubjectWords   []string `json:"subject_words"`
	}](resp.Text())

	rawLabel := strings.TrimSpace(parsed.Value.Classification)
	class := model.NormalizeClassification(rawLabel)
	if !parsed.OK {
		zap.L().Warn("workflow: unparsable classify response, defaulting to other")
		class = model.ClassOther
		rawLabel = ""
	}
	if len(parsed.Value.SubjectWords) > 0 {
		rawLabel = rawLabel + " " + strings.Join(parsed.Value.SubjectWords, " ")
	}

	zap.L().Info("workflow: classified photo",
		zap.String("classification", string(class)),
		zap.String("raw_label", rawLabel),
		zap.Float64("confidence", parsed.Value.Confidence),
	)

	return &model.Delta{
		Classification: &class,
		RawLabel:       &rawLabel,
		Usage: []model.UsageEntry{{
			Stage:        "classify",
			Model:        modelName,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			Duration:     time.Since(start),
		}},
	}
}

// classifierStopWords are label tokens that carry no cuisine or subject
// signal for keyword matching.
var classifierStopWords = map[string]bool{
	"food": true, "photo": true, "picture": true, "image": true,
	"of": true, "a": true, "an": true, "the": true, "and": true,
	"scenery": true, "collectible": true, "other": true,
}

// keywordsFromLabel extracts match keywords from the raw classifier
// label, dropping classification names and filler words.
func keywordsFromLabel(raw string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(raw)) {
		tok = strings.Trim(tok, ".,:;-()")
		if tok == "" || classifierStopWords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}
