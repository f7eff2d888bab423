package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cryptoview/internal/chart"
	"cryptoview/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

var supportedKinds = []chart.Kind{chart.KindLine, chart.KindCandle}

// GetChart returns chart geometry as JSON.
//
// @Summary      Get chart geometry
// @Description  Returns points, paths, candle shapes and overlays ready to draw
// @Tags         charts
// @Produce      json
// @Param        symbol    path   string   true   "Asset symbol (e.g., BTC, ETH)"
// @Param        kind      query  string   false  "Chart kind (line, candle)"  default(line)
// @Param        interval  query  string   false  "Candle interval (5m, 15m, 1h, 4h, 1d)"  default(1h)
// @Param        limit     query  int      false  "Candles to load (default 200, max 1000)"
// @Param        width     query  number   false  "Viewport width in pixels"
// @Param        height    query  number   false  "Viewport height in pixels"
// @Param        points    query  int      false  "Maximum points after downsampling"
// @Param        overlays  query  string   false  "Comma separated overlays (ema, bollinger)"
// @Param        animate   query  boolean  false  "Emit the stroke reveal animation"
// @Success      200  {object}  service.ChartView
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/charts/{symbol} [get]
func (h *Handler) GetChart(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-chart")
	defer span.End()

	req, ok := chartRequest(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("symbol", req.Symbol), attribute.String("kind", string(req.Kind)))

	view, err := h.charts.Build(ctx, req)
	if err != nil {
		writeChartError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetChartSVG renders the chart as an SVG document.
//
// @Summary      Render chart as SVG
// @Tags         charts
// @Produce      image/svg+xml
// @Param        symbol    path   string   true   "Asset symbol (e.g., BTC, ETH)"
// @Param        kind      query  string   false  "Chart kind (line, candle)"  default(line)
// @Param        interval  query  string   false  "Candle interval (5m, 15m, 1h, 4h, 1d)"  default(1h)
// @Param        limit     query  int      false  "Candles to load (default 200, max 1000)"
// @Param        width     query  number   false  "Viewport width in pixels"
// @Param        height    query  number   false  "Viewport height in pixels"
// @Param        points    query  int      false  "Maximum points after downsampling"
// @Param        overlays  query  string   false  "Comma separated overlays (ema, bollinger)"
// @Param        animate   query  boolean  false  "Emit the stroke reveal animation"
// @Success      200  {string}  string
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/charts/{symbol}/svg [get]
func (h *Handler) GetChartSVG(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-chart-svg")
	defer span.End()

	req, ok := chartRequest(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("symbol", req.Symbol), attribute.String("kind", string(req.Kind)))

	doc, err := h.charts.SVG(ctx, req)
	if err != nil {
		writeChartError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", doc)
}

// TouchChart resolves ?x= to the datum under it. A miss is a 200 with
// hit=false.
//
// @Summary      Resolve a pointer position
// @Description  Maps a pixel x on the chart to the sample or candle under it
// @Tags         charts
// @Produce      json
// @Param        symbol    path   string   true   "Asset symbol (e.g., BTC, ETH)"
// @Param        kind      query  string   false  "Chart kind (line, candle)"  default(line)
// @Param        interval  query  string   false  "Candle interval (5m, 15m, 1h, 4h, 1d)"  default(1h)
// @Param        limit     query  int      false  "Candles to load (default 200, max 1000)"
// @Param        width     query  number   false  "Viewport width in pixels"
// @Param        height    query  number   false  "Viewport height in pixels"
// @Param        points    query  int      false  "Maximum points after downsampling"
// @Param        overlays  query  string   false  "Comma separated overlays (ema, bollinger)"
// @Param        animate   query  boolean  false  "Emit the stroke reveal animation"
// @Param        x         query  number   true   "Pointer x in pixels"
// @Success      200  {object}  service.TouchResult
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/charts/{symbol}/touch [get]
func (h *Handler) TouchChart(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.touch-chart")
	defer span.End()

	req, ok := chartRequest(c)
	if !ok {
		return
	}
	if c.Query("x") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing x"})
		return
	}
	x, ok := queryFloat(c, "x")
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("symbol", req.Symbol), attribute.Float64("x", x))

	res, err := h.charts.Touch(ctx, req, x)
	if err != nil {
		writeChartError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func chartRequest(c *gin.Context) (service.ChartRequest, bool) {
	var req service.ChartRequest
	var ok bool
	if req.Symbol, ok = requireSymbol(c); !ok {
		return req, false
	}
	if req.Interval, ok = requireInterval(c); !ok {
		return req, false
	}
	if req.Kind, ok = chart.ParseKind(c.Query("kind")); !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           "unsupported kind: " + c.Query("kind"),
			"supported_kinds": supportedKinds,
		})
		return req, false
	}
	if req.Limit, ok = queryInt(c, "limit"); !ok {
		return req, false
	}
	if req.Points, ok = queryInt(c, "points"); !ok {
		return req, false
	}
	if req.Width, ok = queryFloat(c, "width"); !ok {
		return req, false
	}
	if req.Height, ok = queryFloat(c, "height"); !ok {
		return req, false
	}
	for _, o := range strings.Split(c.Query("overlays"), ",") {
		switch strings.TrimSpace(strings.ToLower(o)) {
		case "ema":
			req.EMA = true
		case "bollinger", "bb":
			req.Bollinger = true
		}
	}
	if v := c.Query("animate"); v != "" {
		animate, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid animate: " + v})
			return req, false
		}
		req.Animate = animate
	}
	return req, true
}

func writeChartError(c *gin.Context, err error) {
	if errors.Is(err, chart.ErrInvalidConfig) {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	writeError(c, err)
}
