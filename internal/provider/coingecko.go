package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"crypto-live-sheet/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// Fixed market selection: top 50 coins by market cap, priced in USD.
const (
	VsCurrency = "usd"
	Order      = "market_cap_desc"
	PerPage    = 50
	Page       = 1
)

// APIError is returned when CoinGecko answers with a non-200 status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coingecko API error %d: %s", e.StatusCode, e.Body)
}

// CoinGeckoProvider fetches the markets listing from the CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *rate.Limiter
}

// NewCoinGeckoProvider creates a provider with the given transport timeout.
// Rate limited to 10 requests per minute with a burst of 10.
func NewCoinGeckoProvider(tracer trace.Tracer, timeout time.Duration) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Every(6*time.Second), 10),
	}
}

// FetchMarkets issues one /coins/markets request and returns the records in API order.
func (p *CoinGeckoProvider) FetchMarkets(ctx context.Context) ([]domain.AssetRecord, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-markets")
	defer span.End()

	body, err := p.doRequest(ctx, p.marketsURL())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch markets")
		return nil, fmt.Errorf("fetch markets: %w", err)
	}

	records, err := parseMarkets(body)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("records", len(records)))
	return records, nil
}

func (p *CoinGeckoProvider) marketsURL() string {
	q := url.Values{}
	q.Set("vs_currency", VsCurrency)
	q.Set("order", Order)
	q.Set("per_page", strconv.Itoa(PerPage))
	q.Set("page", strconv.Itoa(Page))
	q.Set("sparkline", "false")
	return p.baseURL + "/coins/markets?" + q.Encode()
}

// parseMarkets decodes the listing. Each element is decoded on its own so one
// malformed entry degrades to a row of absent fields instead of failing the batch.
func parseMarkets(body []byte) ([]domain.AssetRecord, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse markets: %w", err)
	}

	records := make([]domain.AssetRecord, 0, len(raw))
	for _, item := range raw {
		var rec domain.AssetRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			rec = decodeLoose(item)
		}
		records = append(records, rec)
	}
	return records, nil
}

// decodeLoose keeps whichever fields still have the expected type.
func decodeLoose(item json.RawMessage) domain.AssetRecord {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return domain.AssetRecord{}
	}

	var rec domain.AssetRecord
	_ = json.Unmarshal(fields["name"], &rec.Name)
	_ = json.Unmarshal(fields["symbol"], &rec.Symbol)
	rec.CurrentPrice = looseFloat(fields["current_price"])
	rec.MarketCap = looseFloat(fields["market_cap"])
	rec.TotalVolume = looseFloat(fields["total_volume"])
	rec.Change24hPct = looseFloat(fields["price_change_percentage_24h"])
	return rec
}

func looseFloat(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return io.ReadAll(resp.Body)
}
