package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the top bar.
//
//	left:   server name and management address
//	center: worst report health, or DISCONNECTED with the last error
//	right:  last poll time and interval, or a retry hint when offline
func renderHeader(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	var left, center, right string
	baseURL := ""
	if app.client != nil {
		baseURL = app.client.BaseURL()
	}

	if app.current == nil {
		left = "Connecting to " + baseURL + "..."
	} else {
		left = app.current.ServerName.Or(app.current.Address())
	}

	if app.connState == stateDisconnected && app.lastError != nil {
		center = StyleError.Render("● DISCONNECTED  " + truncate(app.lastError.Error(), 40))
		right = StyleError.Render("Press r to retry")
	} else if app.current != nil {
		worst := app.report.Worst()
		center = HealthStyle(worst).Render("● " + strings.ToUpper(worst.String()))

		last := "-"
		if !app.lastUpdated.IsZero() {
			last = app.lastUpdated.Format("15:04:05")
		}
		right = StyleDim.Render(fmt.Sprintf("Last: %s  Poll: %s", last, formatDuration(app.pollInterval)))
	}

	innerWidth := width - 2
	spacing := max(innerWidth-lipgloss.Width(left)-lipgloss.Width(center)-lipgloss.Width(right), 0)
	leftSpacing := spacing / 2

	row := left +
		strings.Repeat(" ", leftSpacing) +
		center +
		strings.Repeat(" ", spacing-leftSpacing) +
		right
	return StyleHeader.Width(width).Render(row)
}

// formatDuration formats a poll interval compactly, e.g. "10s" or "2m".
func formatDuration(d time.Duration) string {
	if d >= time.Minute {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

