package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"crypto-live-sheet/internal/domain"
	"crypto-live-sheet/internal/provider"
	"crypto-live-sheet/internal/sheet"

	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func f(v float64) *float64 { return &v }

func syntheticRecords() []domain.AssetRecord {
	return []domain.AssetRecord{
		{Name: "Ethereum", Symbol: "eth", CurrentPrice: f(200), MarketCap: f(2000), TotalVolume: f(20), Change24hPct: f(-4)},
		{Name: "Bitcoin", Symbol: "btc", CurrentPrice: f(100), MarketCap: f(3000), TotalVolume: f(30), Change24hPct: f(1)},
		{Name: "Solana", Symbol: "sol", CurrentPrice: f(300), MarketCap: f(1000), TotalVolume: f(10), Change24hPct: f(6)},
	}
}

func TestMarketService_RefreshMarketEndToEnd(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), sheet.DefaultPath)
	doc := sheet.NewDocument(testTracer, path)
	defer doc.Close()

	svc := NewMarketService(testTracer, &mockProvider{records: syntheticRecords()}, doc, nil, time.Minute)
	if err := svc.RefreshMarket(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := svc.LatestReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Snapshot.Len() != 3 || report.Snapshot.Rows[1].Name != "Bitcoin" || *report.Snapshot.Rows[1].PriceUSD != 100 {
		t.Fatalf("unexpected snapshot: %+v", report.Snapshot)
	}
	top := report.Analysis.TopByMarketCap
	if len(top) != 3 || top[0].Name != "Bitcoin" || top[1].Name != "Ethereum" || top[2].Name != "Solana" {
		t.Fatalf("unexpected top view: %+v", top)
	}
	if report.Analysis.AveragePrice != 200 {
		t.Fatalf("expected mean 200, got %v", report.Analysis.AveragePrice)
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer file.Close()
	name := file.GetSheetList()[0]

	expect := map[string]string{
		"A1": sheet.Title,
		"A3": domain.ColumnName,
		"A4": "Ethereum",
		"A5": "Bitcoin",
		"C6": "300",
		"A8": "Analysis",
	}
	for cell, want := range expect {
		got, _ := file.GetCellValue(name, cell)
		if got != want {
			t.Fatalf("%s: expected %q, got %q", cell, want, got)
		}
	}
}

func TestMarketService_RefreshMarketSkipsOnAPIError(t *testing.T) {
	t.Parallel()

	apiErr := &provider.APIError{StatusCode: 500, Body: "boom"}
	pub := &mockPublisher{}
	redis := newFakeRedis()
	svc := NewMarketService(testTracer, &mockProvider{err: apiErr}, pub, redis, time.Minute)

	err := svc.RefreshMarket(context.Background())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	var gotAPIErr *provider.APIError
	if !errors.As(err, &gotAPIErr) || gotAPIErr.StatusCode != 500 {
		t.Fatalf("expected wrapped API error, got %v", err)
	}
	if pub.calls != 0 {
		t.Fatalf("publisher should not be called, got %d calls", pub.calls)
	}
	if len(redis.data) != 0 {
		t.Fatal("nothing should be cached after a failed fetch")
	}
}

func TestMarketService_RefreshMarketSkipsEmpty(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{}
	svc := NewMarketService(testTracer, &mockProvider{}, pub, nil, time.Minute)

	if err := svc.RefreshMarket(context.Background()); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if pub.calls != 0 {
		t.Fatalf("publisher should not be called, got %d calls", pub.calls)
	}
}

func TestMarketService_RefreshMarketPublishError(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{err: sheet.ErrDocumentUnavailable}
	svc := NewMarketService(testTracer, &mockProvider{records: syntheticRecords()}, pub, nil, time.Minute)

	err := svc.RefreshMarket(context.Background())
	if !errors.Is(err, sheet.ErrDocumentUnavailable) {
		t.Fatalf("expected ErrDocumentUnavailable, got %v", err)
	}
	if _, err := svc.LatestReport(context.Background()); !errors.Is(err, ErrNoReport) {
		t.Fatalf("failed publish should not produce a report, got %v", err)
	}
}

func TestMarketService_RefreshMarketCachesReport(t *testing.T) {
	t.Parallel()

	redis := newFakeRedis()
	pub := &mockPublisher{}
	svc := NewMarketService(testTracer, &mockProvider{records: syntheticRecords()}, pub, redis, time.Minute)
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	if err := svc.RefreshMarket(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.calls != 1 || pub.last.Len() != 3 {
		t.Fatalf("expected one publish of 3 rows, got %d calls", pub.calls)
	}
	if redis.lastTTL != time.Minute {
		t.Fatalf("expected cache ttl of 1m, got %v", redis.lastTTL)
	}

	var cached domain.MarketReport
	if err := json.Unmarshal(redis.data[latestReportKey], &cached); err != nil {
		t.Fatalf("cached report is not valid json: %v", err)
	}
	if cached.Snapshot.Len() != 3 || !cached.UpdatedAt.Equal(svc.now()) {
		t.Fatalf("unexpected cached report: %+v", cached)
	}
}

func TestMarketService_LatestReportFromCache(t *testing.T) {
	t.Parallel()

	redis := newFakeRedis()
	report := domain.MarketReport{
		Snapshot: domain.Snapshot{Columns: domain.SnapshotColumns, Rows: []domain.SnapshotRow{{Name: "Bitcoin"}}},
		Analysis: domain.AnalysisResult{AveragePrice: 42},
	}
	data, _ := json.Marshal(report)
	redis.data[latestReportKey] = data

	svc := NewMarketService(testTracer, &mockProvider{}, &mockPublisher{}, redis, time.Minute)
	got, err := svc.LatestReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Snapshot.Rows[0].Name != "Bitcoin" || got.Analysis.AveragePrice != 42 {
		t.Fatalf("unexpected report: %+v", got)
	}
}

func TestMarketService_LatestReportNone(t *testing.T) {
	t.Parallel()

	svc := NewMarketService(testTracer, &mockProvider{}, &mockPublisher{}, newFakeRedis(), time.Minute)
	if _, err := svc.LatestReport(context.Background()); !errors.Is(err, ErrNoReport) {
		t.Fatalf("expected ErrNoReport, got %v", err)
	}
}

type mockProvider struct {
	records []domain.AssetRecord
	err     error
	calls   int
}

func (m *mockProvider) FetchMarkets(ctx context.Context) ([]domain.AssetRecord, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

type mockPublisher struct {
	calls int
	last  domain.Snapshot
	err   error
}

func (m *mockPublisher) Publish(ctx context.Context, snap domain.Snapshot, result domain.AnalysisResult) error {
	m.calls++
	m.last = snap
	return m.err
}

type fakeRedis struct {
	data    map[string][]byte
	lastTTL time.Duration
	setErr  error
	getErr  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.lastTTL = expiration
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		bytes, _ := json.Marshal(v)
		f.data[key] = bytes
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}
