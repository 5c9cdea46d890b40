package handler

import (
	"errors"
	"net/http"

	"crypto-live-sheet/internal/domain"
	"crypto-live-sheet/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetMarket returns the last published snapshot together with its analysis.
func (h *Handler) GetMarket(c *gin.Context) {
	report, ok := h.latest(c, "handler.get-market")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) GetSnapshot(c *gin.Context) {
	report, ok := h.latest(c, "handler.get-snapshot")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"updated_at": report.UpdatedAt,
		"snapshot":   report.Snapshot,
	})
}

func (h *Handler) GetAnalysis(c *gin.Context) {
	report, ok := h.latest(c, "handler.get-analysis")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"updated_at": report.UpdatedAt,
		"analysis":   report.Analysis,
	})
}

func (h *Handler) latest(c *gin.Context, spanName string) (*domain.MarketReport, bool) {
	ctx, span := h.tracer.Start(c.Request.Context(), spanName)
	defer span.End()

	report, err := h.market.LatestReport(ctx)
	if errors.Is(err, service.ErrNoReport) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no market data published yet"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	span.SetAttributes(attribute.Int("rows", report.Snapshot.Len()))
	return report, true
}
