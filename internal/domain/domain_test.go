package domain

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestSnapshotRowValuesKeepsAbsentCellsNil(t *testing.T) {
	price := 10.5
	row := SnapshotRow{Name: "Bitcoin", Symbol: "btc", PriceUSD: &price}

	values := row.Values()
	if len(values) != len(SnapshotColumns) {
		t.Fatalf("expected %d values, got %d", len(SnapshotColumns), len(values))
	}
	if values[2] != 10.5 {
		t.Fatalf("expected price 10.5, got %v", values[2])
	}
	for i := 3; i < len(values); i++ {
		if values[i] != nil {
			t.Fatalf("expected nil at column %d, got %#v", i, values[i])
		}
	}
}

func TestAnalysisResultJSONEncodesUndefinedMeanAsNull(t *testing.T) {
	data, err := json.Marshal(AnalysisResult{AveragePrice: math.NaN()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"average_price":null`) {
		t.Fatalf("expected null average price, got %s", data)
	}

	var decoded AnalysisResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.HasAveragePrice() {
		t.Fatalf("expected undefined mean after decode, got %v", decoded.AveragePrice)
	}
}

func TestAnalysisResultJSONKeepsDefinedMean(t *testing.T) {
	in := AnalysisResult{
		AveragePrice:  200,
		HighestChange: &ChangeEntry{Index: 0, Name: "A", Change24hPct: 5},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out AnalysisResult
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AveragePrice != 200 || out.HighestChange == nil || out.HighestChange.Name != "A" {
		t.Fatalf("unexpected decoded analysis: %+v", out)
	}
	if out.LowestChange != nil {
		t.Fatalf("expected no lowest change, got %+v", out.LowestChange)
	}
}
