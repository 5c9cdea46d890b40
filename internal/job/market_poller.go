package job

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"crypto-live-sheet/internal/service"

	"go.opentelemetry.io/otel/trace"
)

type MarketRefresher interface {
	RefreshMarket(ctx context.Context) error
}

// MarketPoller runs market refresh cycles one after another with a fixed pause between them.
type MarketPoller struct {
	tracer       trace.Tracer
	refresher    MarketRefresher
	pollInterval time.Duration
	wait         func(ctx context.Context, d time.Duration) bool
}

func NewMarketPoller(tracer trace.Tracer, refresher MarketRefresher, pollIntervalSecs int) *MarketPoller {
	if pollIntervalSecs <= 0 {
		pollIntervalSecs = 60
	}
	return &MarketPoller{
		tracer:       tracer,
		refresher:    refresher,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
		wait:         sleepCtx,
	}
}

// Start runs a cycle immediately, then one per interval. Blocks until ctx is cancelled.
// The pause starts after a cycle finishes, so cycles never overlap.
func (p *MarketPoller) Start(ctx context.Context) {
	log.Printf("Market poller starting, interval %s", p.pollInterval)
	for {
		p.runOnce(ctx)
		if !p.wait(ctx, p.pollInterval) {
			log.Println("Market poller stopped")
			return
		}
	}
}

func (p *MarketPoller) runOnce(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "market-poller.run-once")
	defer span.End()

	err := p.safeRefresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNoData):
		log.Printf("No data fetched (%v). Retrying in %s...", err, p.pollInterval)
	default:
		span.RecordError(err)
		log.Printf("Market cycle error: %v", err)
	}
}

// safeRefresh turns a panic inside the cycle into an error so one bad
// response cannot stop the poller.
func (p *MarketPoller) safeRefresh(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("market cycle panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("market cycle panic: %v", r)
		}
	}()
	return p.refresher.RefreshMarket(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
