// Package handler exposes prices, candles and charts over HTTP.
package handler

import (
	"context"
	"net/http"

	"cryptoview/internal/domain"
	"cryptoview/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// Market is implemented by service.MarketService.
type Market interface {
	GetCurrentPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error)
	GetCurrentPrices(ctx context.Context) ([]*domain.PriceSnapshot, error)
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)
}

// Charts is implemented by service.ChartService.
type Charts interface {
	Build(ctx context.Context, req service.ChartRequest) (*service.ChartView, error)
	SVG(ctx context.Context, req service.ChartRequest) ([]byte, error)
	Touch(ctx context.Context, req service.ChartRequest, x float64) (*service.TouchResult, error)
}

type Handler struct {
	tracer  trace.Tracer
	market  Market
	charts  Charts
	metrics http.Handler
}

// New returns a Handler. metrics may be nil to leave /metrics unrouted.
func New(tracer trace.Tracer, market Market, charts Charts, metrics http.Handler) *Handler {
	return &Handler{
		tracer:  tracer,
		market:  market,
		charts:  charts,
		metrics: metrics,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}

	api := r.Group("/api")
	api.GET("/prices", h.GetAllPrices)
	api.GET("/prices/:symbol", h.GetPrice)
	api.GET("/candles/:symbol", h.GetCandles)
	api.GET("/charts/:symbol", h.GetChart)
	api.GET("/charts/:symbol/svg", h.GetChartSVG)
	api.GET("/charts/:symbol/touch", h.TouchChart)
}
