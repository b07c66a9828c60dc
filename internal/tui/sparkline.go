package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline draws values as a block sparkline exactly width cells
// wide. Values are scaled against ceiling; a ceiling <= 0 scales against the
// largest value instead. Only the last width values are drawn and shorter
// series are left-padded with spaces.
func RenderSparkline(values []float64, width int, ceiling float64, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat(" ", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	top := ceiling
	if top <= 0 {
		top = slices.Max(values)
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", width-len(values)))
	for _, v := range values {
		idx := 0
		if top > 0 {
			idx = int(v / top * 7)
		}
		idx = max(0, min(idx, 7))
		sb.WriteRune(sparkBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Render(sb.String())
}
