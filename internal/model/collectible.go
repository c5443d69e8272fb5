package model

// ReviewStatus tracks human review of a collectible identification.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewConfirmed ReviewStatus = "confirmed"
	ReviewRejected  ReviewStatus = "rejected"
)

// IdentificationSource records whether an identification came from the
// model or a human reviewer.
type IdentificationSource string

const (
	SourceAI    IdentificationSource = "ai"
	SourceHuman IdentificationSource = "human"
)

// Collectible holds the three-stage collectible pipeline output.
type Collectible struct {
	Identification Identification `json:"identification"`
	Review         Review         `json:"review"`
	Valuation      *Valuation     `json:"valuation,omitempty"`
	SearchSnippets []string       `json:"-"`
}

// Identification is the identify stage output.
type Identification struct {
	ID         string               `json:"id"`
	Category   string               `json:"category"`
	Confidence float64              `json:"confidence"`
	Source     IdentificationSource `json:"source"`
}

// Review is the human review record, pending until confirmed or rejected.
type Review struct {
	Status ReviewStatus `json:"status"`
}

// Valuation is the valuate stage output. When MarketData contains at least
// one numeric price, Low and High are recomputed as its min/max rather than
// trusted from the model.
type Valuation struct {
	Low        float64           `json:"low"`
	High       float64           `json:"high"`
	Currency   string            `json:"currency"`
	MarketData []MarketDataPoint `json:"market_data"`
	Reasoning  string            `json:"reasoning,omitempty"`
}

// MarketDataPoint is a single observed price from a listing search.
type MarketDataPoint struct {
	Price     float64 `json:"price"`
	Venue     string  `json:"venue"`
	URL       *string `json:"url,omitempty"`
	DateSeen  string  `json:"date_seen,omitempty"`
	Condition string  `json:"condition,omitempty"`
}
