package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Restarter is implemented by clients that can restart splunkd.
type Restarter interface {
	Restart(ctx context.Context) error
}

// restartCmd requests a restart in a goroutine.
func restartCmd(r Restarter) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return RestartResultMsg{Err: r.Restart(ctx)}
	}
}

// renderRestartConfirm renders the restart confirmation between the header
// and the footer, padded to the available height.
func renderRestartConfirm(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}
	height := app.height
	if height <= 0 {
		height = 24
	}

	titleText := "Restart splunkd"
	hint := StyleDim.Render("[y: confirm  n/esc: cancel]")
	gap := max(width-2-lipgloss.Width(titleText)-lipgloss.Width(hint), 1)
	titleBar := StyleHeader.Width(width).MaxWidth(width).Render(titleText + strings.Repeat(" ", gap) + hint)

	target := ""
	if app.client != nil {
		target = app.client.BaseURL()
	}
	if app.current != nil {
		target = app.current.ServerName.Or(target)
	}

	lines := []string{
		"",
		"  " + StyleRed.Bold(true).Render("splunkd will stop serving searches and inputs while it restarts."),
		"",
		fmt.Sprintf("  Instance: %s", sanitize(target)),
		"",
		"  " + StyleYellow.Render("Press y to confirm, n or esc to cancel."),
	}

	availH := height - lipgloss.Height(renderHeader(app)) - lipgloss.Height(titleBar) - lipgloss.Height(renderFooter(app))
	if availH < 1 {
		availH = 1
	}
	if len(lines) > availH {
		// Keep the prompt visible.
		lines = lines[len(lines)-availH:]
	}
	for len(lines) < availH {
		lines = append(lines, "")
	}
	return titleBar + "\n" + strings.Join(lines, "\n")
}
