package snapshot

import "crypto-live-sheet/internal/domain"

// Build projects raw asset records onto the fixed snapshot columns.
// It never filters or reorders; a missing field stays absent in its row.
func Build(records []domain.AssetRecord) domain.Snapshot {
	columns := make([]string, len(domain.SnapshotColumns))
	copy(columns, domain.SnapshotColumns)

	rows := make([]domain.SnapshotRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, domain.SnapshotRow{
			Name:         r.Name,
			Symbol:       r.Symbol,
			PriceUSD:     copyFloat(r.CurrentPrice),
			MarketCap:    copyFloat(r.MarketCap),
			Volume24h:    copyFloat(r.TotalVolume),
			Change24hPct: copyFloat(r.Change24hPct),
		})
	}

	return domain.Snapshot{Columns: columns, Rows: rows}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
