package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/spm-go/internal/model"
)

// Palette.
var (
	colorGreen  = lipgloss.Color("#10b981")
	colorYellow = lipgloss.Color("#f59e0b")
	colorRed    = lipgloss.Color("#ef4444")
	colorGray   = lipgloss.Color("#6b7280")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorCyan   = lipgloss.Color("#06b6d4")
	colorPurple = lipgloss.Color("#8b5cf6")
	colorWhite  = lipgloss.Color("#f8fafc")
	colorDark   = lipgloss.Color("#1e293b")
	colorAlt    = lipgloss.Color("#0f172a")
)

// Health styles for report rows and the header indicator.
var (
	StyleHealthOK      = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	StyleHealthCaution = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	StyleHealthWarning = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	StyleHealthUnknown = lipgloss.NewStyle().Foreground(colorPurple)
	StyleHealthNA      = lipgloss.NewStyle().Foreground(colorGray)
)

// StyleHeader is the full-width header bar.
var StyleHeader = lipgloss.NewStyle().
	Background(colorDark).
	Foreground(colorWhite).
	Padding(0, 1)

// StyleOverviewCard is a card of the instance overview bar.
var StyleOverviewCard = lipgloss.NewStyle().
	Background(colorAlt).
	Foreground(colorWhite).
	Padding(0, 1).
	Margin(0).
	Align(lipgloss.Center)

var (
	StyleError  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	StyleDim    = lipgloss.NewStyle().Foreground(colorGray)
	StyleYellow = lipgloss.NewStyle().Foreground(colorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(colorRed)
	StyleGreen  = lipgloss.NewStyle().Foreground(colorGreen)
)

// HealthStyle returns the style used to render h.
func HealthStyle(h model.Health) lipgloss.Style {
	switch h {
	case model.HealthOK:
		return StyleHealthOK
	case model.HealthCaution:
		return StyleHealthCaution
	case model.HealthWarning:
		return StyleHealthWarning
	case model.HealthUnknown:
		return StyleHealthUnknown
	default:
		return StyleHealthNA
	}
}

// healthColor is the foreground color of h, used for card text and bars.
func healthColor(h model.Health) lipgloss.Color {
	switch h {
	case model.HealthOK:
		return colorGreen
	case model.HealthCaution:
		return colorYellow
	case model.HealthWarning:
		return colorRed
	case model.HealthUnknown:
		return colorPurple
	default:
		return colorWhite
	}
}

// StatusStyle returns the style of a discovery status.
func StatusStyle(s model.DiscoveryStatus) lipgloss.Style {
	switch s {
	case model.StatusOK:
		return StyleGreen
	case model.StatusAuthFailed, model.StatusConnectFailed, model.StatusPollFailed:
		return StyleRed
	case model.StatusSkipped:
		return StyleYellow
	default:
		return StyleDim
	}
}
