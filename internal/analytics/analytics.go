package analytics

import (
	"math"
	"sort"

	"crypto-live-sheet/internal/domain"
)

// TopN is the size of the top-by-market-cap subview.
const TopN = 5

// Analyze derives the summary statistics of a snapshot. Ties are broken by
// original row order; rows with an absent value are left out of that ranking.
func Analyze(snap domain.Snapshot) domain.AnalysisResult {
	highest, lowest := ChangeExtremes(snap.Rows)
	return domain.AnalysisResult{
		TopByMarketCap: TopByMarketCap(snap.Rows, TopN),
		AveragePrice:   MeanPrice(snap.Rows),
		HighestChange:  highest,
		LowestChange:   lowest,
	}
}

// TopByMarketCap returns up to n rows with the greatest market cap, descending.
func TopByMarketCap(rows []domain.SnapshotRow, n int) []domain.MarketCapEntry {
	entries := make([]domain.MarketCapEntry, 0, len(rows))
	for i, r := range rows {
		if r.MarketCap == nil || math.IsNaN(*r.MarketCap) {
			continue
		}
		entries = append(entries, domain.MarketCapEntry{Index: i, Name: r.Name, MarketCap: *r.MarketCap})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].MarketCap > entries[j].MarketCap
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// MeanPrice averages the present prices. It returns NaN when there are none.
func MeanPrice(rows []domain.SnapshotRow) float64 {
	var sum float64
	var count int
	for _, r := range rows {
		if r.PriceUSD == nil || math.IsNaN(*r.PriceUSD) {
			continue
		}
		sum += *r.PriceUSD
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

// ChangeExtremes finds the rows with the highest and lowest 24h change.
// The first occurrence wins a tie. Both are nil when no row has a change value.
func ChangeExtremes(rows []domain.SnapshotRow) (highest, lowest *domain.ChangeEntry) {
	for i, r := range rows {
		if r.Change24hPct == nil || math.IsNaN(*r.Change24hPct) {
			continue
		}
		v := *r.Change24hPct
		if highest == nil || v > highest.Change24hPct {
			highest = &domain.ChangeEntry{Index: i, Name: r.Name, Change24hPct: v}
		}
		if lowest == nil || v < lowest.Change24hPct {
			lowest = &domain.ChangeEntry{Index: i, Name: r.Name, Change24hPct: v}
		}
	}
	return highest, lowest
}
