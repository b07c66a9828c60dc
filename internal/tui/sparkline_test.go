package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColor = lipgloss.Color("#ffffff")

func TestRenderSparkline_Empty(t *testing.T) {
	assert.Equal(t, strings.Repeat(" ", 10), stripANSI(RenderSparkline(nil, 10, 100, testColor)))
	assert.Equal(t, "", RenderSparkline([]float64{1}, 0, 100, testColor))
}

func TestRenderSparkline_PercentCeiling(t *testing.T) {
	got := []rune(stripANSI(RenderSparkline([]float64{0, 50, 100}, 3, 100, testColor)))
	require.Len(t, got, 3)
	assert.Equal(t, '▁', got[0])
	assert.Equal(t, '▄', got[1])
	assert.Equal(t, '█', got[2])
}

func TestRenderSparkline_LowValuesStayLowAgainstCeiling(t *testing.T) {
	got := stripANSI(RenderSparkline([]float64{2, 3, 4}, 3, 100, testColor))
	assert.Equal(t, "▁▁▁", got)
}

func TestRenderSparkline_AutoScale(t *testing.T) {
	got := []rune(stripANSI(RenderSparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 8, 0, testColor)))
	require.Len(t, got, 8)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], got[i-1])
	}
	assert.Equal(t, '█', got[7])
}

func TestRenderSparkline_TruncatesAndPads(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i)
	}
	got := []rune(stripANSI(RenderSparkline(values, 10, 0, testColor)))
	require.Len(t, got, 10)
	assert.Equal(t, '█', got[9])

	padded := stripANSI(RenderSparkline([]float64{100}, 4, 100, testColor))
	assert.Equal(t, "   █", padded)
}

func TestRenderSparkline_ClampsAboveCeiling(t *testing.T) {
	assert.Equal(t, "█", stripANSI(RenderSparkline([]float64{250}, 1, 100, testColor)))
}

func TestRenderHistoryRow(t *testing.T) {
	app := newTestApp()
	assert.Empty(t, renderHistoryRow(app), "nothing before the first sample")

	app.width = 90
	app.Update(fixtureMsg())
	out := stripANSI(renderHistoryRow(app))
	assert.Contains(t, out, "Resource History")
	assert.Contains(t, out, "CPU")
	assert.Contains(t, out, "42%")
	assert.Contains(t, out, "Swap")
	assert.Contains(t, out, "3%")
}
