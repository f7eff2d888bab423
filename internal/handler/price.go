package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"cryptoview/internal/domain"
	"cryptoview/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetPrice returns the latest quote for one symbol.
//
// @Summary      Get current price for a crypto asset
// @Tags         prices
// @Produce      json
// @Param        symbol  path  string  true  "Asset symbol (e.g., BTC, ETH)"
// @Success      200  {object}  domain.PriceSnapshot
// @Failure      400  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]string
// @Router       /api/prices/{symbol} [get]
func (h *Handler) GetPrice(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-price")
	defer span.End()

	symbol, ok := requireSymbol(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("symbol", symbol))

	snapshot, err := h.market.GetCurrentPrice(ctx, symbol)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetAllPrices returns quotes for every supported symbol. A provider
// failure still returns whatever was cached.
//
// @Summary      Get current prices for all supported assets
// @Tags         prices
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]string
// @Router       /api/prices [get]
func (h *Handler) GetAllPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-all-prices")
	defer span.End()

	snapshots, err := h.market.GetCurrentPrices(ctx)
	if err != nil && len(snapshots) == 0 {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"prices": snapshots})
}

// GetCandles returns stored candles, oldest first.
//
// @Summary      Get stored OHLCV candles
// @Tags         prices
// @Produce      json
// @Param        symbol    path   string  true   "Asset symbol (e.g., BTC, ETH)"
// @Param        interval  query  string  false  "Candle interval (5m, 15m, 1h, 4h, 1d)"  default(1h)
// @Param        limit     query  int     false  "Number of candles (default 200, max 1000)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/candles/{symbol} [get]
func (h *Handler) GetCandles(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-candles")
	defer span.End()

	symbol, ok := requireSymbol(c)
	if !ok {
		return
	}
	interval, ok := requireInterval(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("symbol", symbol), attribute.String("interval", interval))

	candles, err := h.market.GetCandles(ctx, symbol, interval, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":   symbol,
		"interval": interval,
		"candles":  candles,
	})
}

func requireSymbol(c *gin.Context) (string, bool) {
	symbol, ok := domain.NormalizeSymbol(c.Param("symbol"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported symbol: " + c.Param("symbol"),
			"supported_symbols": domain.SupportedSymbols,
		})
	}
	return symbol, ok
}

func requireInterval(c *gin.Context) (string, bool) {
	interval := c.DefaultQuery("interval", domain.Interval1h)
	if _, ok := domain.IntervalDuration(interval); !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "unsupported interval: " + interval,
			"supported_intervals": domain.SupportedIntervals,
		})
		return "", false
	}
	return interval, true
}

// queryInt reads an optional integer parameter; absent means zero.
func queryInt(c *gin.Context, key string) (int, bool) {
	v := c.Query(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + ": " + v})
		return 0, false
	}
	return n, true
}

func queryFloat(c *gin.Context, key string) (float64, bool) {
	v := c.Query(key)
	if v == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + ": " + v})
		return 0, false
	}
	return f, true
}

// writeError maps service errors to status codes.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, service.ErrUnsupportedSymbol):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "supported_symbols": domain.SupportedSymbols})
	case errors.Is(err, service.ErrUnsupportedInterval):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "supported_intervals": domain.SupportedIntervals})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
