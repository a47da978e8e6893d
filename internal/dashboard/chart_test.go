package dashboard

import (
	"math"
	"strings"
	"testing"

	"github.com/acarl005/stripansi"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MandiZhao/lowvr/internal/compare"
)

func init() {
	// Force TrueColor output in tests so we can verify ANSI color codes
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func isBraille(r rune) bool {
	return r >= brailleBase && r <= brailleBase+0xFF
}

func TestPlot_DotXAndIndexAt(t *testing.T) {
	p := Plot{Width: 10, Points: 11}

	assert.Equal(t, 0, p.DotX(0))
	assert.Equal(t, 19, p.DotX(10))
	assert.Equal(t, 9, p.Column(10))

	assert.Equal(t, 0, p.IndexAt(0))
	assert.Equal(t, 10, p.IndexAt(9))
	assert.Equal(t, 10, p.IndexAt(50), "columns past the end clamp")

	single := Plot{Width: 10, Points: 1}
	assert.Equal(t, 0, single.DotX(0))
	assert.Equal(t, 0, single.IndexAt(7))
}

func TestPlot_IndexAtRoundTrips(t *testing.T) {
	p := Plot{Width: 40, Points: 25}
	for i := 0; i < p.Points; i++ {
		assert.Equal(t, i, p.IndexAt(p.Column(i)), "point %d", i)
	}
}

func TestPlot_RenderDiagonal(t *testing.T) {
	p := Plot{Width: 4, Height: 2, Points: 2, Min: 0, Max: 1}
	rows := p.Render([]Line{{Color: RunColor(0), Values: compare.Floats(0, 1)}}, nil)
	require.Len(t, rows, 2)

	top := []rune(stripansi.Strip(rows[0]))
	bottom := []rune(stripansi.Strip(rows[1]))
	require.Len(t, top, 4)
	require.Len(t, bottom, 4)

	// Rising line: lower half on the left, upper half on the right.
	assert.Equal(t, ' ', top[0])
	assert.Equal(t, ' ', top[1])
	assert.True(t, isBraille(top[2]))
	assert.True(t, isBraille(top[3]))
	assert.True(t, isBraille(bottom[0]))
	assert.True(t, isBraille(bottom[1]))
	assert.Equal(t, ' ', bottom[2])
	assert.Equal(t, ' ', bottom[3])

	// Cyan run color
	assert.Contains(t, rows[0], "38;2;0;255;255")
}

func TestPlot_RenderNullsAreGaps(t *testing.T) {
	values := compare.Series{compare.Num(1), compare.Null, compare.Num(1)}
	p := Plot{Width: 3, Height: 1, Points: 3, Min: 0, Max: 2}
	rows := p.Render([]Line{{Color: RunColor(0), Values: values}}, nil)
	require.Len(t, rows, 1)

	cells := []rune(stripansi.Strip(rows[0]))
	require.Len(t, cells, 3)
	assert.True(t, isBraille(cells[0]))
	assert.Equal(t, ' ', cells[1], "null must not be bridged")
	assert.True(t, isBraille(cells[2]))
}

func TestPlot_RenderMarkers(t *testing.T) {
	p := Plot{Width: 3, Height: 2, Points: 3, Min: 0, Max: 1}
	rows := p.Render(nil, []Marker{
		{Index: 1, Color: ColorHover},
		{Index: 7, Color: ColorHover}, // out of range, ignored
	})
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, " "+GlyphMarker+" ", stripansi.Strip(row))
	}
}

func TestPlot_LaterLineOwnsCell(t *testing.T) {
	p := Plot{Width: 2, Height: 1, Points: 2, Min: 0, Max: 1}
	flat := compare.Floats(0.5, 0.5)
	rows := p.Render([]Line{
		{Color: lipgloss.Color("#FF0000"), Values: flat},
		{Color: lipgloss.Color("#00FF00"), Values: flat},
	}, nil)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0], "38;2;0;255;0")
	assert.NotContains(t, rows[0], "38;2;255;0;0")
}

func TestPlot_RenderEmpty(t *testing.T) {
	assert.Nil(t, Plot{Width: 0, Height: 3}.Render(nil, nil))
	rows := Plot{Width: 5, Height: 2, Points: 0}.Render(nil, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, strings.Repeat(" ", 5), rows[0])
}

func TestValueRange(t *testing.T) {
	tests := []struct {
		name   string
		r      compare.Range
		lo, hi float64
	}{
		{"invalid", compare.Range{}, 0, 1},
		{"normal", compare.Range{Min: -2, Max: 3, Valid: true}, -2, 3},
		{"flat", compare.Range{Min: 5, Max: 5, Valid: true}, 4.5, 5.5},
		{"flat zero", compare.Range{Min: 0, Max: 0, Valid: true}, -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := ValueRange(tt.r)
			assert.InDelta(t, tt.lo, lo, 1e-9)
			assert.InDelta(t, tt.hi, hi, 1e-9)
		})
	}
}

func TestFormatTick(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{2, "2"},
		{0.5, "0.5"},
		{-0.25, "-0.25"},
		{1234.5678, "1234.568"},
		{0.99996, "1"},
		{-0.12349, "-0.123"},
		{0.0016, "0.002"},
		{-0.0004, "0"},
		{25000, "25k"},
		{1.5e6, "1.5M"},
		{math.NaN(), "-"},
		{math.Inf(1), "-"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTick(tt.in))
		})
	}
}

func TestFormatX(t *testing.T) {
	assert.Equal(t, "120", FormatX(compare.NumX(120)))
	assert.Equal(t, "warmup", FormatX(compare.TextX("warmup")))
}
