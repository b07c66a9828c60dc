package tui

func renderFooter(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}
	text := "? for help"
	switch {
	case app.status != "":
		text = app.status
	case app.showHelp:
		text = helpText
	}
	return StyleDim.Width(width).Render(text)
}
