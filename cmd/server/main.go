package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-live-sheet/internal/cache"
	"crypto-live-sheet/internal/config"
	"crypto-live-sheet/internal/handler"
	"crypto-live-sheet/internal/job"
	"crypto-live-sheet/internal/provider"
	"crypto-live-sheet/internal/service"
	"crypto-live-sheet/internal/sheet"
	"crypto-live-sheet/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc              = godotenv.Load
	loadConfigFunc           = config.Load
	initRedisFunc            = cache.InitRedis
	initTracerFunc           = tracing.InitTracer
	newCoinGeckoProviderFunc = func(tracer trace.Tracer, timeout time.Duration) service.MarketProvider {
		return provider.NewCoinGeckoProvider(tracer, timeout)
	}
	newDocumentFunc        = sheet.NewDocument
	runPollerFunc          = func(p *job.MarketPoller, ctx context.Context) { p.Start(ctx) }
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	if err := loadEnvFunc(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	initRedisFunc(ctx, cfg.RedisURL)
	defer cache.Close()
	var redisClient service.RedisClient
	if cache.Client != nil {
		redisClient = cache.Client
	}

	// The workbook handle is owned here for the whole process. A failure now is
	// retried by every cycle until the document can be opened.
	doc := newDocumentFunc(tracer, cfg.WorkbookPath)
	log.Printf("Publishing market sheet to %s", doc.Path())
	if err := doc.Acquire(ctx); err != nil {
		log.Printf("workbook not available yet, will retry each cycle: %v", err)
	}
	defer func() {
		if err := doc.Close(); err != nil {
			log.Printf("error closing workbook: %v", err)
		}
	}()

	interval := time.Duration(cfg.CoinGeckoPollSecs) * time.Second
	cgProvider := newCoinGeckoProviderFunc(tracer, time.Duration(cfg.CoinGeckoTimeoutSecs)*time.Second)
	marketService := service.NewMarketService(tracer, cgProvider, doc, redisClient, 3*interval)

	poller := job.NewMarketPoller(tracer, marketService, cfg.CoinGeckoPollSecs)
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		runPollerFunc(poller, ctx)
	}()

	var srv *http.Server
	if cfg.HTTPEnabled {
		r := newRouterFunc()
		r.Use(otelgin.Middleware(tracing.ServiceName))
		handler.New(tracer, marketService, cfg.HTTPAPIKey).RegisterRoutes(r)

		srv = &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: r,
		}
		go func() {
			if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
				log.Printf("status server stopped: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
			log.Printf("status server forced to shutdown: %v", err)
		}
	}

	// Let an in-flight cycle finish its save before the workbook is closed.
	<-pollerDone
	log.Println("Exiting")
}
