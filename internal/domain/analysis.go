package domain

import (
	"encoding/json"
	"math"
	"time"
)

// MarketCapEntry is one row of the top-by-market-cap subview.
// Index points back into Snapshot.Rows.
type MarketCapEntry struct {
	Index     int     `json:"index"`
	Name      string  `json:"name"`
	MarketCap float64 `json:"market_cap"`
}

// ChangeEntry is the row holding an extreme 24h change.
type ChangeEntry struct {
	Index        int     `json:"index"`
	Name         string  `json:"name"`
	Change24hPct float64 `json:"change_24h_pct"`
}

// AnalysisResult holds the summary statistics derived from one Snapshot.
// AveragePrice is NaN when no row has a price.
type AnalysisResult struct {
	TopByMarketCap []MarketCapEntry
	AveragePrice   float64
	HighestChange  *ChangeEntry
	LowestChange   *ChangeEntry
}

// HasAveragePrice reports whether the mean price is defined.
func (a AnalysisResult) HasAveragePrice() bool {
	return !math.IsNaN(a.AveragePrice)
}

type analysisJSON struct {
	TopByMarketCap []MarketCapEntry `json:"top_by_market_cap"`
	AveragePrice   *float64         `json:"average_price"`
	HighestChange  *ChangeEntry     `json:"highest_change"`
	LowestChange   *ChangeEntry     `json:"lowest_change"`
}

// MarshalJSON encodes an undefined mean as null; encoding/json rejects NaN.
func (a AnalysisResult) MarshalJSON() ([]byte, error) {
	out := analysisJSON{
		TopByMarketCap: a.TopByMarketCap,
		HighestChange:  a.HighestChange,
		LowestChange:   a.LowestChange,
	}
	if out.TopByMarketCap == nil {
		out.TopByMarketCap = []MarketCapEntry{}
	}
	if a.HasAveragePrice() {
		avg := a.AveragePrice
		out.AveragePrice = &avg
	}
	return json.Marshal(out)
}

func (a *AnalysisResult) UnmarshalJSON(data []byte) error {
	var in analysisJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	a.TopByMarketCap = in.TopByMarketCap
	a.HighestChange = in.HighestChange
	a.LowestChange = in.LowestChange
	a.AveragePrice = math.NaN()
	if in.AveragePrice != nil {
		a.AveragePrice = *in.AveragePrice
	}
	return nil
}

// MarketReport is the outcome of one published cycle.
type MarketReport struct {
	UpdatedAt time.Time      `json:"updated_at"`
	Snapshot  Snapshot       `json:"snapshot"`
	Analysis  AnalysisResult `json:"analysis"`
}
