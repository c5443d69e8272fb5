package collectible

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/snapatlas/enrich/internal/llmtext"
	"github.com/snapatlas/enrich/internal/model"
	"github.com/snapatlas/enrich/pkg/claude"
	"github.com/snapatlas/enrich/pkg/jina"
)

const valuateSystemPrompt = `You estimate the market value of a collectible item from raw listing search results. Extract concrete asking and sold prices with their venue and URL. Respond with a valid JSON object: {"low": <number>, "high": <number>, "currency": "USD", "market_data": [{"price": "<as seen, e.g. $1,200.00>", "venue": "<marketplace or seller>", "url": "<listing url>", "date_seen": "<date if stated>", "condition": "<grade/condition if stated>"}], "reasoning": "<one or two sentences>"}`

const valuateUserPrompt = `Item: %s
Category: %s

Search results:
%s`

// rawValuation is the model's response shape. Prices arrive as strings
// because models echo them as seen in listings ("$1,200.00").
type rawValuation struct {
	Low        float64 `json:"low"`
	High       float64 `json:"high"`
	Currency   string  `json:"currency"`
	MarketData []struct {
		Price     string `json:"price"`
		Venue     string `json:"venue"`
		URL       string `json:"url"`
		DateSeen  string `json:"date_seen"`
		Condition string `json:"condition"`
	} `json:"market_data"`
	Reasoning string `json:"reasoning"`
}

// Valuate sanitizes the identification into a search query, fans out the
// price/for-sale/sold searches, and synthesizes a valuation from the raw
// search text. A missing identification id short-circuits to a no-op.
func (p *Pipeline) Valuate(ctx context.Context, ident model.Identification, modelName string) (*model.Valuation, []string, claude.TokenUsage, error) {
	if strings.TrimSpace(ident.ID) == "" {
		return nil, nil, claude.TokenUsage{}, nil
	}

	query := sanitizeQuery(ident.ID)
	snippets := p.runSearches(ctx, query)

	prompt := fmt.Sprintf(valuateUserPrompt, ident.ID, ident.Category, strings.Join(snippets, "\n\n"))
	resp, err := p.ai.CreateMessage(ctx, claude.MessageRequest{
		Model:     modelName,
		MaxTokens: p.cfg.MaxTokens,
		System:    valuateSystemPrompt,
		Prompt:    prompt,
	})
	if err != nil {
		return nil, snippets, claude.TokenUsage{}, eris.Wrap(err, "collectible: valuate call")
	}

	parsed := llmtext.Decode[rawValuation](resp.Text())
	if !parsed.OK {
		return nil, snippets, resp.Usage, eris.New("collectible: unparsable valuate response")
	}

	return p.normalizeValuation(parsed.Value), snippets, resp.Usage, nil
}

// runSearches issues the three listing searches concurrently. A failed
// search degrades to a "search failed" note that flows into the prompt as
// context rather than an error.
func (p *Pipeline) runSearches(ctx context.Context, query string) []string {
	queries := []struct {
		label string
		q     string
	}{
		{"price", query + " price"},
		{"for sale", query + " for sale"},
		{"sold", query + " sold listings"},
	}

	snippets := make([]string, len(queries))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	for i, sq := range queries {
		i, sq := i, sq
		g.Go(func() error {
			results, err := p.search.Search(gCtx, sq.q, jina.WithMaxResults(p.cfg.MaxSearchResults))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				zap.L().Warn("collectible: search failed",
					zap.String("query", sq.q),
					zap.Error(err),
				)
				snippets[i] = fmt.Sprintf("[%s search failed, no results available]", sq.label)
				return nil
			}
			snippets[i] = formatResults(sq.label, results)
			return nil
		})
	}
	_ = g.Wait()

	return snippets
}

func formatResults(label string, results []jina.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("[no %s results]", label)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s results:\n", label)
	for _, r := range results {
		fmt.Fprintf(&b, "- %s (%s): %s\n", r.Title, r.URL, r.Snippet)
	}
	return b.String()
}

// normalizeValuation applies the numeric-consistency rule: market-data
// prices are coerced to numbers, entries without a numeric price are
// dropped, and low/high are recomputed as min/max of the survivors. When
// no numeric price survives, the model's low/high pass through as the
// documented fallback.
func (p *Pipeline) normalizeValuation(raw rawValuation) *model.Valuation {
	v := &model.Valuation{
		Low:       raw.Low,
		High:      raw.High,
		Currency:  raw.Currency,
		Reasoning: raw.Reasoning,
	}
	if v.Currency == "" {
		v.Currency = "USD"
	}

	for _, md := range raw.MarketData {
		price, ok := parsePrice(md.Price)
		if !ok {
			zap.L().Debug("collectible: dropped market data point",
				zap.String("price", md.Price),
				zap.String("venue", md.Venue),
			)
			continue
		}
		v.MarketData = append(v.MarketData, model.MarketDataPoint{
			Price:     price,
			Venue:     truncateVenue(md.Venue, p.cfg.MaxVenueLength),
			URL:       sanitizeURL(md.URL, p.cfg.MaxURLLength),
			DateSeen:  md.DateSeen,
			Condition: md.Condition,
		})
	}

	if len(v.MarketData) > 0 {
		low, high := v.MarketData[0].Price, v.MarketData[0].Price
		for _, md := range v.MarketData[1:] {
			if md.Price < low {
				low = md.Price
			}
			if md.Price > high {
				high = md.Price
			}
		}
		v.Low, v.High = low, high
	}

	return v
}
