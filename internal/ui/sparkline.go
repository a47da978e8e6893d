package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline draws a metric's whole history in at most width cells.
// Longer histories are sampled at evenly spaced points so the first and last
// values are always shown. NaN values render as a blank cell.
//
// The line is green when the last value is below the first, which for loss
// style metrics means improvement, and cyan otherwise.
func RenderSparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	data = sample(data, width)

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}

	var sb strings.Builder
	sb.Grow(len(data) * 3)

	numLevels := len(sparklineBlockRunes)
	valueRange := maxVal - minVal
	for _, v := range data {
		if math.IsNaN(v) {
			sb.WriteByte(' ')
			continue
		}
		level := numLevels / 2
		if valueRange > 0 {
			level = int((v - minVal) / valueRange * float64(numLevels-1))
			level = max(0, min(level, numLevels-1))
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}

	return lipgloss.NewStyle().Foreground(trendColor(data)).Render(sb.String())
}

// sample picks width evenly spaced points of data, including both ends.
func sample(data []float64, width int) []float64 {
	if len(data) <= width {
		return data
	}
	if width == 1 {
		return data[len(data)-1:]
	}
	out := make([]float64, width)
	step := float64(len(data)-1) / float64(width-1)
	for i := range out {
		out[i] = data[int(math.Round(float64(i)*step))]
	}
	return out
}

func trendColor(data []float64) lipgloss.Color {
	first, last := math.NaN(), math.NaN()
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(first) {
			first = v
		}
		last = v
	}
	if last < first {
		return ColorSuccess
	}
	return ColorInfo
}
