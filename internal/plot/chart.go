package plot

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Default chart size in character cells.
const (
	DefaultWidth  = 72
	DefaultHeight = 16
)

// Chart draws a series as a scatter of characters with a labelled y axis
// and time labels under the x axis.
type Chart struct {
	Title  string
	YLabel string
	Width  int
	Height int

	// Secondary, when set, adds a second label per row computed from the
	// primary value, e.g. current from power.
	Secondary      func(float64) float64
	SecondaryLabel string
}

// Render writes the chart of ys against xs (minutes) to w.
func (c Chart) Render(w io.Writer, xs, ys []float64) error {
	_, err := io.WriteString(w, c.String(xs, ys))
	return err
}

// String returns the rendered chart.
func (c Chart) String(xs, ys []float64) string {
	width, height := c.Width, c.Height
	if width < 2 {
		width = DefaultWidth
	}
	if height < 2 {
		height = DefaultHeight
	}

	var b strings.Builder
	if c.Title != "" {
		fmt.Fprintf(&b, "%s\n", c.Title)
	}
	n := len(ys)
	if len(xs) < n {
		n = len(xs)
	}
	if n == 0 {
		b.WriteString("(no samples)\n")
		return b.String()
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, y := range ys[:n] {
		minY = math.Min(minY, y)
		maxY = math.Max(maxY, y)
	}
	if maxY == minY {
		maxY = minY + 1
	}
	minX, maxX := xs[0], xs[n-1]
	if maxX <= minX {
		maxX = minX + 1
	}

	grid := make([][]byte, height)
	for i := range grid {
		grid[i] = []byte(strings.Repeat(" ", width))
	}
	for i := 0; i < n; i++ {
		x := int((xs[i] - minX) / (maxX - minX) * float64(width-1))
		y := int(float64(height-1) * (1 - (ys[i]-minY)/(maxY-minY)))
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		if grid[y][x] == ' ' {
			grid[y][x] = '*'
		} else {
			grid[y][x] = '#'
		}
	}

	if c.YLabel != "" {
		label := c.YLabel
		if c.Secondary != nil && c.SecondaryLabel != "" {
			label += " / " + c.SecondaryLabel
		}
		fmt.Fprintf(&b, "%s\n", label)
	}
	for i, row := range grid {
		v := minY + float64(height-1-i)/float64(height-1)*(maxY-minY)
		if c.Secondary != nil {
			fmt.Fprintf(&b, "%9.2f %9.1f |%s|\n", v, c.Secondary(v), row)
		} else {
			fmt.Fprintf(&b, "%9.2f |%s|\n", v, row)
		}
	}

	pad := 10
	if c.Secondary != nil {
		pad = 20
	}
	fmt.Fprintf(&b, "%s+%s+\n", strings.Repeat(" ", pad), strings.Repeat("-", width))

	start := fmt.Sprintf("%.1f", minX)
	end := fmt.Sprintf("%.1f min", maxX)
	gap := width + 2 - len(start) - len(end)
	if gap < 1 {
		gap = 1
	}
	fmt.Fprintf(&b, "%s%s%s%s\n", strings.Repeat(" ", pad), start, strings.Repeat(" ", gap), end)
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
