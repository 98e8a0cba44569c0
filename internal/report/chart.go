package report

import (
	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/canvas/graph"
	"github.com/NimbleMarkets/ntcharts/linechart"
	"github.com/charmbracelet/lipgloss"
)

const (
	chartWidth  = 42
	chartHeight = 12
)

var (
	axisStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Bold(true)
	lineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238"))
)

// RenderChart draws one metric's per-epoch values as a braille line
// chart and returns the framed terminal string.
func RenderChart(title string, values []float64) string {
	minY, maxY := bounds(values)
	maxX := float64(len(values) - 1)
	if maxX < 1 {
		maxX = 1
	}

	chart := linechart.New(chartWidth, chartHeight, 0, maxX, minY, maxY,
		linechart.WithXYSteps(4, 2))
	chart.AxisStyle = axisStyle
	chart.LabelStyle = labelStyle

	chart.Clear()
	chart.DrawXYAxisAndLabel()
	drawBrailleLine(&chart, values)

	return borderStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(" "+title),
		chart.View(),
	))
}

// RenderCharts lays several charts out in one horizontal row.
func RenderCharts(charts ...string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, charts...)
}

// drawBrailleLine plots values on the chart's braille grid, one point
// per epoch, joined by line segments.
func drawBrailleLine(chart *linechart.Model, values []float64) {
	if len(values) < 2 {
		return
	}
	xScale := float64(chart.GraphWidth()) / (chart.ViewMaxX() - chart.ViewMinX())
	yScale := float64(chart.GraphHeight()) / (chart.ViewMaxY() - chart.ViewMinY())

	bGrid := graph.NewBrailleGrid(
		chart.GraphWidth(), chart.GraphHeight(),
		0, float64(chart.GraphWidth()),
		0, float64(chart.GraphHeight()),
	)

	points := make([]canvas.Float64Point, 0, len(values))
	for i, v := range values {
		x := (float64(i) - chart.ViewMinX()) * xScale
		y := (v - chart.ViewMinY()) * yScale
		points = append(points, canvas.Float64Point{X: x, Y: y})
	}

	for i := 0; i < len(points)-1; i++ {
		gp1 := bGrid.GridPoint(points[i])
		gp2 := bGrid.GridPoint(points[i+1])
		for _, p := range graph.GetLinePoints(gp1, gp2) {
			bGrid.Set(p)
		}
	}

	startX := 0
	if chart.YStep() > 0 {
		startX = chart.Origin().X + 1
	}
	graph.DrawBraillePatterns(&chart.Canvas,
		canvas.Point{X: startX, Y: 0},
		bGrid.BraillePatterns(),
		lineStyle)
}

// bounds pads the value range slightly so flat series stay visible.
func bounds(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 1
	}
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		return min - 0.5, max + 0.5
	}
	pad := (max - min) * 0.05
	return min - pad, max + pad
}
