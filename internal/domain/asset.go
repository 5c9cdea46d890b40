package domain

// AssetRecord is one entry of the CoinGecko /coins/markets response.
// Numeric fields are nil when the API omits them or sends null.
type AssetRecord struct {
	Name         string   `json:"name"`
	Symbol       string   `json:"symbol"`
	CurrentPrice *float64 `json:"current_price"`
	MarketCap    *float64 `json:"market_cap"`
	TotalVolume  *float64 `json:"total_volume"`
	Change24hPct *float64 `json:"price_change_percentage_24h"`
}

// Display names of the snapshot columns, in sheet order.
const (
	ColumnName      = "Name"
	ColumnSymbol    = "Symbol"
	ColumnPrice     = "Price (USD)"
	ColumnMarketCap = "Market Cap"
	ColumnVolume    = "24h Volume"
	ColumnChange    = "24h Change (%)"
)

// SnapshotColumns is the fixed column set of every Snapshot.
var SnapshotColumns = []string{
	ColumnName, ColumnSymbol, ColumnPrice,
	ColumnMarketCap, ColumnVolume, ColumnChange,
}

// SnapshotRow is one asset projected onto the snapshot columns.
type SnapshotRow struct {
	Name         string   `json:"name"`
	Symbol       string   `json:"symbol"`
	PriceUSD     *float64 `json:"price_usd"`
	MarketCap    *float64 `json:"market_cap"`
	Volume24h    *float64 `json:"volume_24h"`
	Change24hPct *float64 `json:"change_24h_pct"`
}

// Values returns the row cells in SnapshotColumns order. Absent numbers are untyped nil.
func (r SnapshotRow) Values() []any {
	return []any{
		r.Name,
		r.Symbol,
		optional(r.PriceUSD),
		optional(r.MarketCap),
		optional(r.Volume24h),
		optional(r.Change24hPct),
	}
}

// Snapshot is the tabular projection of one cycle's asset records.
// Rows keep the order the API returned them in.
type Snapshot struct {
	Columns []string      `json:"columns"`
	Rows    []SnapshotRow `json:"rows"`
}

func (s Snapshot) Len() int {
	return len(s.Rows)
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
