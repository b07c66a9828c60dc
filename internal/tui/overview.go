package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/spm-go/internal/engine"
	"github.com/dm/spm-go/internal/model"
)

// renderOverview renders one card per headline row of the report. Wide
// terminals get a single row of six cards; below 80 columns they stack in
// rows of two.
func renderOverview(app *App) string {
	if app.current == nil {
		return ""
	}
	width := app.width
	if width <= 0 {
		width = 80
	}
	narrow := width < 80

	var cardWidth int
	if narrow {
		cardWidth = max((width-4)/2, 10)
	} else {
		cardWidth = max((width-12)/6, 10)
	}
	barWidth := max(cardWidth-4, 4)

	snap := app.current
	role := engine.ClassifyRole(snap.Roles.Items, snap.Mode.Or(""))

	cards := []string{
		textCard(role.String(), "Role", colorBlue, cardWidth),
		rowCard(app.report, model.CategoryServer, "Version", "Version", cardWidth, -1),
		rowCard(app.report, model.CategoryServer, "Uptime", "Uptime", cardWidth, -1),
		usageCard(app.report, "CPU Usage", "CPU", snap.Resources.CPUUsage, cardWidth, barWidth),
		usageCard(app.report, "RAM Usage", "RAM", snap.Resources.MemUsage, cardWidth, barWidth),
		rowCard(app.report, model.CategoryResources, "Disk Usage", "Disk", cardWidth, 1),
	}

	if narrow {
		var rows []string
		for i := 0; i < len(cards); i += 2 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:min(i+2, len(cards))]...))
		}
		return lipgloss.JoinVertical(lipgloss.Left, rows...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func textCard(value, label string, fg lipgloss.Color, width int) string {
	return StyleOverviewCard.
		Foreground(fg).
		Width(width).
		Render(truncate(value, width-2) + "\n" + label)
}

// rowCard shows the value of a report row colored by its health. With
// maxParts > 0 only the first maxParts entries of a comma list are shown.
func rowCard(r model.Report, category, name, label string, width, maxParts int) string {
	row, ok := r.Find(category, name)
	if !ok {
		return textCard("-", label, colorGray, width)
	}
	value := row.Value
	if maxParts > 0 {
		if parts := strings.Split(value, ", "); len(parts) > maxParts {
			value = strings.Join(parts[:maxParts], ", ") + " …"
		}
	}
	return textCard(value, label, healthColor(row.Health), width)
}

func usageCard(r model.Report, name, label string, usage model.Opt[float64], width, barWidth int) string {
	row, ok := r.Find(model.CategoryResources, name)
	if !ok {
		return textCard("-", label, colorGray, width)
	}
	bar := strings.Repeat("░", barWidth)
	if v, known := usage.Get(); known {
		bar = renderMiniBar(v, barWidth)
	}
	return StyleOverviewCard.
		Foreground(healthColor(row.Health)).
		Width(width).
		Render(row.Value + "\n" + bar + "\n" + label)
}

// renderMiniBar draws percent as a bar of filled and empty blocks.
func renderMiniBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	percent = max(0, min(percent, 100))
	filled := min(int(percent/100.0*float64(width)), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, n int) string {
	if n <= 0 || lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 || len(r) <= n {
		return string(r[:min(n, len(r))])
	}
	return string(r[:n-1]) + "…"
}
