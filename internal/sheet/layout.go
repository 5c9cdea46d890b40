package sheet

import (
	"fmt"

	"crypto-live-sheet/internal/analytics"
	"crypto-live-sheet/internal/domain"
)

// Anchors of the live sheet.
const (
	Title     = "Live Cryptocurrency Data"
	TitleRow  = 1
	HeaderRow = 3
	// AnalysisGap is the distance from the snapshot row count to the analysis anchor row.
	AnalysisGap = 5
	// Columns is the width of every written block (A..F).
	Columns = 6
)

// Line is one sheet row to write, starting at column A.
type Line struct {
	Row   int
	Cells []any
	Bold  bool
}

// AnalysisAnchorRow is the row of the "Analysis" label for a snapshot of rowCount rows.
func AnalysisAnchorRow(rowCount int) int {
	return rowCount + AnalysisGap
}

// Layout returns every line of the sheet in top-down order.
func Layout(snap domain.Snapshot, result domain.AnalysisResult) []Line {
	lines := make([]Line, 0, snap.Len()+20)
	lines = append(lines, Line{Row: TitleRow, Cells: []any{Title}, Bold: true})

	header := make([]any, len(domain.SnapshotColumns))
	for i, c := range domain.SnapshotColumns {
		header[i] = c
	}
	lines = append(lines, Line{Row: HeaderRow, Cells: header, Bold: true})
	for i, row := range snap.Rows {
		lines = append(lines, Line{Row: HeaderRow + 1 + i, Cells: row.Values()})
	}

	a := AnalysisAnchorRow(snap.Len())
	lines = append(lines,
		Line{Row: a, Cells: []any{"Analysis"}, Bold: true},
		Line{Row: a + 1, Cells: []any{"Top 5 by Market Cap"}, Bold: true},
		Line{Row: a + 2, Cells: []any{domain.ColumnName, domain.ColumnMarketCap}, Bold: true},
	)
	for i, e := range result.TopByMarketCap {
		if i == analytics.TopN {
			break
		}
		lines = append(lines, Line{Row: a + 3 + i, Cells: []any{e.Name, e.MarketCap}})
	}

	lines = append(lines, Line{Row: a + 3 + analytics.TopN, Cells: []any{averageLabel(result)}})
	lines = append(lines, changeBlock(a+9, "Highest 24h Change", result.HighestChange)...)
	lines = append(lines, changeBlock(a+12, "Lowest 24h Change", result.LowestChange)...)
	return lines
}

func changeBlock(row int, label string, entry *domain.ChangeEntry) []Line {
	lines := []Line{
		{Row: row, Cells: []any{label}, Bold: true},
		{Row: row + 1, Cells: []any{domain.ColumnName, domain.ColumnChange}, Bold: true},
	}
	if entry != nil {
		lines = append(lines, Line{Row: row + 2, Cells: []any{entry.Name, entry.Change24hPct}})
	}
	return lines
}

func averageLabel(result domain.AnalysisResult) string {
	if !result.HasAveragePrice() {
		return "Average Price: n/a"
	}
	return fmt.Sprintf("Average Price: %.2f USD", result.AveragePrice)
}

// LastRow is the bottom row the layout occupies, written or reserved.
func LastRow(rowCount int) int {
	return AnalysisAnchorRow(rowCount) + 14
}
