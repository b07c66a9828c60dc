package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/spm-go/internal/format"
)

// renderHistoryCard renders a bordered card with a title, the latest value
// and a sparkline of the recent samples.
func renderHistoryCard(title string, values []float64, cardWidth int, color lipgloss.Color) string {
	cardWidth = max(cardWidth, 8)
	innerWidth := max(cardWidth-6, 1)

	value := "-"
	if len(values) > 0 {
		value = format.FormatUsage(values[len(values)-1])
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorGray).
		Padding(0, 1).
		Width(cardWidth - 4)

	return card.Render(lipgloss.JoinVertical(lipgloss.Left,
		StyleDim.Render(title),
		lipgloss.NewStyle().Bold(true).Foreground(color).Render(value),
		RenderSparkline(values, innerWidth, 100, color),
	))
}

// renderHistoryRow renders CPU, RAM and swap history cards side by side, or
// nothing before the first sample.
func renderHistoryRow(app *App) string {
	if app.history == nil || app.history.Len() == 0 {
		return ""
	}
	width := app.width
	if width <= 0 {
		width = 80
	}
	// Each card renders cardWidth-2 wide.
	cardWidth := (width + 6) / 3
	if cardWidth < 12 {
		return ""
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top,
		renderHistoryCard("CPU", app.history.Values("cpu"), cardWidth, colorGreen),
		renderHistoryCard("RAM", app.history.Values("mem"), cardWidth, colorCyan),
		renderHistoryCard("Swap", app.history.Values("swap"), cardWidth, colorPurple),
	)
	return lipgloss.JoinVertical(lipgloss.Left, StyleDim.MaxWidth(width).Render("Resource History"), row)
}
