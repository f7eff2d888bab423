// Package tui is the terminal chart client served over SSH. It hosts a
// chart.Chart inside a bubbletea program: mouse events drive the pointer
// methods, tooltip dismissal and reveal frames arrive as messages.
package tui

import (
	"context"
	"time"

	"cryptoview/internal/chart"
	"cryptoview/internal/chart/reveal"
	"cryptoview/internal/chart/series"
	"cryptoview/internal/chart/tooltip"
	"cryptoview/internal/chart/touch"
	"cryptoview/internal/domain"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	headerRows  = 1
	footerRows  = 2
	loadTimeout = 10 * time.Second
	candleLimit = 200
)

var chartMargins = touch.Margins{Top: 2, Right: 1, Bottom: 1, Left: 1}

// ChartSource loads candles, oldest first.
type ChartSource interface {
	Series(ctx context.Context, symbol, interval string, limit int) ([]series.Candle, error)
}

// PriceSource returns the latest quote for a symbol.
type PriceSource interface {
	GetCurrentPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error)
}

// Services is what one session reads from. Prices may be nil.
type Services struct {
	Charts   ChartSource
	Prices   PriceSource
	Config   chart.Config
	Refresh  time.Duration
	Username string
}

type dataMsg struct {
	seq     int
	candles []series.Candle
	price   *domain.PriceSnapshot
	err     error
}

type frameMsg time.Time

// expireMsg dismisses the tooltip of the chart that scheduled it. Charts
// replaced by a rebuild count generations from zero again.
type expireMsg struct {
	chart *chart.Chart
	gen   uint64
}

type refreshMsg struct{ seq int }

// AppModel is the bubbletea model of one session.
type AppModel struct {
	svc     Services
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	symbols     []string
	symIdx      int
	intervalIdx int
	kind        chart.Kind
	overlays    bool

	chart         *chart.Chart
	candles       []series.Candle
	price         *domain.PriceSnapshot
	revealPending bool
	loading       bool
	seq           int
	err           error

	width, height int
	now           func() time.Time
}

func NewAppModel(svc Services) *AppModel {
	if err := svc.Config.Validate(); err != nil || svc.Config == (chart.Config{}) {
		svc.Config = chart.DefaultConfig()
	}
	m := &AppModel{
		svc:         svc,
		keys:        defaultKeys(),
		help:        help.New(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(labelStyle)),
		symbols:     domain.SupportedSymbols,
		intervalIdx: 2,
		kind:        chart.KindLine,
		loading:     true,
		now:         time.Now,
	}
	m.rebuild()
	return m
}

// SetSize fits the chart to a terminal of w by h cells.
func (m *AppModel) SetSize(w, h int) {
	m.width, m.height = w, h
	m.help.Width = w
	pw, ph := m.canvasSize()
	_ = m.chart.Resize(float64(pw*dotsX), float64(ph*dotsY))
}

func (m *AppModel) canvasSize() (cols, rows int) {
	return max(m.width, 0), max(m.height-headerRows-footerRows, 1)
}

func (m *AppModel) symbol() string   { return m.symbols[m.symIdx] }
func (m *AppModel) interval() string { return domain.SupportedIntervals[m.intervalIdx] }

func (m *AppModel) chartConfig() chart.Config {
	cfg := m.svc.Config
	cols, rows := m.canvasSize()
	cfg.Width, cfg.Height = float64(cols*dotsX), float64(rows*dotsY)
	cfg.Margins = chartMargins
	cfg.Overlays.EMA = m.overlays
	cfg.Overlays.Bollinger = m.overlays
	return cfg
}

// rebuild replaces the chart after a kind or overlay change and replays
// its reveal.
func (m *AppModel) rebuild() tea.Cmd {
	c, err := chart.New(m.kind, m.chartConfig(), tooltip.WithoutScheduler())
	if err != nil {
		m.err = err
		return nil
	}
	if m.chart != nil {
		m.chart.Close()
	}
	m.chart = c
	c.SetCandles(m.candles)
	if len(m.candles) == 0 {
		m.revealPending = true
		return nil
	}
	c.Replay(m.now())
	return m.nextFrame()
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m *AppModel) load() tea.Cmd {
	symbol, interval, seq := m.symbol(), m.interval(), m.seq
	charts, prices := m.svc.Charts, m.svc.Prices
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		candles, err := charts.Series(ctx, symbol, interval, candleLimit)
		msg := dataMsg{seq: seq, candles: candles, err: err}
		if prices != nil {
			msg.price, _ = prices.GetCurrentPrice(ctx, symbol)
		}
		return msg
	}
}

// reload starts loading the current symbol and interval. Results of
// earlier loads are dropped.
func (m *AppModel) reload() tea.Cmd {
	m.seq++
	m.loading = true
	m.price = nil
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m *AppModel) nextFrame() tea.Cmd {
	if !m.chart.Reveal().Running() {
		return nil
	}
	return tea.Tick(reveal.FrameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case dataMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		var cmds []tea.Cmd
		if m.svc.Refresh > 0 {
			seq := m.seq
			cmds = append(cmds, tea.Tick(m.svc.Refresh, func(time.Time) tea.Msg { return refreshMsg{seq: seq} }))
		}
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Batch(cmds...)
		}
		m.err = nil
		m.candles = msg.candles
		if msg.price != nil {
			m.price = msg.price
		}
		m.chart.SetCandles(m.candles)
		if m.revealPending && !m.chart.Empty() {
			m.revealPending = false
			m.chart.Reveal().Start(m.now())
			cmds = append(cmds, m.nextFrame())
		}
		return m, tea.Batch(cmds...)

	case refreshMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m, m.load()

	case frameMsg:
		if _, done := m.chart.Reveal().Tick(time.Time(msg)); done {
			return m, nil
		}
		return m, m.nextFrame()

	case expireMsg:
		if msg.chart == m.chart {
			m.chart.ExpireTooltip(msg.gen)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *AppModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.chart.Close()
		return tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.symIdx = (m.symIdx + 1) % len(m.symbols)
		return m.reload()
	case key.Matches(msg, m.keys.Prev):
		m.symIdx = (m.symIdx + len(m.symbols) - 1) % len(m.symbols)
		return m.reload()
	case key.Matches(msg, m.keys.Interval):
		m.intervalIdx = (m.intervalIdx + 1) % len(domain.SupportedIntervals)
		return m.reload()
	case key.Matches(msg, m.keys.Kind):
		if m.kind == chart.KindLine {
			m.kind = chart.KindCandle
		} else {
			m.kind = chart.KindLine
		}
		return m.rebuild()
	case key.Matches(msg, m.keys.Overlays):
		m.overlays = !m.overlays
		return m.rebuild()
	case key.Matches(msg, m.keys.Replay):
		m.chart.Replay(m.now())
		return m.nextFrame()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

// handleMouse maps a cell to the chart pixel at its center.
func (m *AppModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	_, rows := m.canvasSize()
	row := msg.Y - headerRows
	px := float64(msg.X*dotsX) + dotsX/2
	py := float64(row*dotsY) + dotsY/2

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && row >= 0 && row < rows {
			m.chart.PointerDown(px, py)
		}
	case tea.MouseActionMotion:
		m.chart.PointerMove(px, py)
	case tea.MouseActionRelease:
		if gen := m.chart.PointerUp(); gen != 0 {
			c := m.chart
			return tea.Tick(c.DismissDelay(), func(time.Time) tea.Msg { return expireMsg{chart: c, gen: gen} })
		}
	}
	return nil
}

func (m *AppModel) View() string {
	if m.width == 0 {
		return m.spinner.View() + " starting..."
	}
	cols, rows := m.canvasSize()
	cv := newCanvas(cols, rows)
	m.draw(cv)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		cv.render(),
		m.footer(),
		m.help.View(m.keys),
	)
}
