package handler

import (
	"context"

	"crypto-live-sheet/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type MarketReader interface {
	LatestReport(ctx context.Context) (*domain.MarketReport, error)
}

type Handler struct {
	tracer trace.Tracer
	market MarketReader
	apiKey string
}

func New(tracer trace.Tracer, market MarketReader, apiKey string) *Handler {
	return &Handler{
		tracer: tracer,
		market: market,
		apiKey: apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(h.apiKey))
	api.GET("/market", h.GetMarket)
	api.GET("/market/snapshot", h.GetSnapshot)
	api.GET("/market/analysis", h.GetAnalysis)
}
