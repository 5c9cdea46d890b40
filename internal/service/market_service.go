package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"crypto-live-sheet/internal/analytics"
	"crypto-live-sheet/internal/domain"
	"crypto-live-sheet/internal/snapshot"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const latestReportKey = "market:latest"

var (
	// ErrNoData means the cycle fetched nothing and skipped build, analyze and publish.
	ErrNoData = errors.New("no market data fetched")
	// ErrNoReport means no cycle has been published yet.
	ErrNoReport = errors.New("no market report available")
)

type MarketProvider interface {
	FetchMarkets(ctx context.Context) ([]domain.AssetRecord, error)
}

type SheetPublisher interface {
	Publish(ctx context.Context, snap domain.Snapshot, result domain.AnalysisResult) error
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// MarketService runs one fetch, build, analyze and publish cycle and keeps the
// last published report.
type MarketService struct {
	tracer    trace.Tracer
	provider  MarketProvider
	publisher SheetPublisher
	redis     RedisClient
	cacheTTL  time.Duration
	now       func() time.Time

	mu     sync.RWMutex
	latest *domain.MarketReport
}

func NewMarketService(
	tracer trace.Tracer,
	provider MarketProvider,
	publisher SheetPublisher,
	redisClient RedisClient,
	cacheTTL time.Duration,
) *MarketService {
	return &MarketService{
		tracer:    tracer,
		provider:  provider,
		publisher: publisher,
		redis:     redisClient,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

// RefreshMarket fetches the markets listing and publishes it to the sheet.
// A failed or empty fetch returns ErrNoData without touching the sheet.
func (s *MarketService) RefreshMarket(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "market-service.refresh-market")
	defer span.End()

	records, err := s.provider.FetchMarkets(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoData, err)
	}
	if len(records) == 0 {
		return ErrNoData
	}
	span.SetAttributes(attribute.Int("records", len(records)))

	snap := snapshot.Build(records)
	result := analytics.Analyze(snap)

	if err := s.publisher.Publish(ctx, snap, result); err != nil {
		return fmt.Errorf("publish market sheet: %w", err)
	}

	report := &domain.MarketReport{
		UpdatedAt: s.now().UTC(),
		Snapshot:  snap,
		Analysis:  result,
	}
	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()

	if s.redis != nil {
		if err := s.setReportCache(ctx, report); err != nil {
			log.Printf("redis cache write error: %v", err)
		}
	}

	log.Printf("Refreshed market sheet for %d assets", snap.Len())
	return nil
}

// LatestReport returns the last published report, falling back to the Redis
// copy written by a previous process.
func (s *MarketService) LatestReport(ctx context.Context) (*domain.MarketReport, error) {
	_, span := s.tracer.Start(ctx, "market-service.latest-report")
	defer span.End()

	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return latest, nil
	}

	if s.redis != nil {
		cached, err := s.getReportCache(ctx)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil {
			return cached, nil
		}
	}
	return nil, ErrNoReport
}

func (s *MarketService) setReportCache(ctx context.Context, report *domain.MarketReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, latestReportKey, data, s.cacheTTL).Err()
}

func (s *MarketService) getReportCache(ctx context.Context) (*domain.MarketReport, error) {
	data, err := s.redis.Get(ctx, latestReportKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report domain.MarketReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
