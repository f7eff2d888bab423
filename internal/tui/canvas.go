package tui

import (
	"math"
	"strings"

	"cryptoview/internal/chart/geometry"

	"github.com/charmbracelet/lipgloss"
)

// Each terminal cell holds a 2x4 braille dot matrix, so one chart pixel is
// one dot.
const (
	dotsX = 2
	dotsY = 4
)

var brailleBits = [dotsX][dotsY]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// canvas rasterizes chart geometry into braille cells.
type canvas struct {
	cols, rows int
	dots       []uint8
	colors     []string
}

func newCanvas(cols, rows int) *canvas {
	cols, rows = max(cols, 0), max(rows, 0)
	return &canvas{
		cols:   cols,
		rows:   rows,
		dots:   make([]uint8, cols*rows),
		colors: make([]string, cols*rows),
	}
}

// pixelSize is the chart viewport the canvas can show.
func (c *canvas) pixelSize() (float64, float64) {
	return float64(c.cols * dotsX), float64(c.rows * dotsY)
}

func (c *canvas) set(x, y int, color string) {
	if x < 0 || y < 0 || x >= c.cols*dotsX || y >= c.rows*dotsY {
		return
	}
	i := (y/dotsY)*c.cols + x/dotsX
	c.dots[i] |= brailleBits[x%dotsX][y%dotsY]
	if color != "" {
		c.colors[i] = color
	}
}

func (c *canvas) plot(p geometry.Point, color string) {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return
	}
	c.set(int(math.Floor(p.X)), int(math.Floor(p.Y)), color)
}

func (c *canvas) line(a, b geometry.Point, color string) {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := math.Ceil(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 || math.IsNaN(steps) || math.IsInf(steps, 0) {
		c.plot(a, color)
		return
	}
	for i := 0.0; i <= steps; i++ {
		t := i / steps
		c.plot(geometry.Point{X: a.X + dx*t, Y: a.Y + dy*t}, color)
	}
}

func (c *canvas) polyline(points []geometry.Point, color string) {
	if len(points) == 1 {
		c.plot(points[0], color)
	}
	for i := 1; i < len(points); i++ {
		c.line(points[i-1], points[i], color)
	}
}

// partial draws the first length pixels of the polyline.
func (c *canvas) partial(points []geometry.Point, length float64, color string) {
	if length <= 0 || len(points) == 0 {
		return
	}
	end, seg := geometry.PointAt(points, length)
	for i := 1; i <= seg; i++ {
		c.line(points[i-1], points[i], color)
	}
	if len(points) > 1 {
		c.line(points[seg], end, color)
	}
}

// fill paints every dot the rectangle touches, at least one.
func (c *canvas) fill(r geometry.Rect, color string) {
	x0, y0 := int(math.Floor(r.X)), int(math.Floor(r.Y))
	x1 := max(int(math.Ceil(r.X+r.Width)), x0+1)
	y1 := max(int(math.Ceil(r.Y+r.Height)), y0+1)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			c.set(x, y, color)
		}
	}
}

// cell returns the rune at column col, row row.
func (c *canvas) cell(col, row int) rune {
	d := c.dots[row*c.cols+col]
	if d == 0 {
		return ' '
	}
	return rune(0x2800 + int(d))
}

// render joins the cells into lines, coloring runs of equal color.
func (c *canvas) render() string {
	var b strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		var run strings.Builder
		runColor := ""
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runColor == "" {
				b.WriteString(run.String())
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(runColor)).Render(run.String()))
			}
			run.Reset()
		}
		for col := 0; col < c.cols; col++ {
			color := c.colors[row*c.cols+col]
			if c.dots[row*c.cols+col] == 0 {
				color = ""
			}
			if color != runColor {
				flush()
				runColor = color
			}
			run.WriteRune(c.cell(col, row))
		}
		flush()
	}
	return b.String()
}
