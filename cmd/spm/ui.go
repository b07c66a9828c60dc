package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dm/spm-go/internal/client"
	"github.com/dm/spm-go/internal/config"
	"github.com/dm/spm-go/internal/engine"
	"github.com/dm/spm-go/internal/model"
	"github.com/dm/spm-go/internal/tui"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// formatError renders err with a hint for the failures users hit most.
func formatError(err error) string {
	out := errorStyle.Render("Error: "+err.Error()) + "\n"
	if hint := errorHint(err); hint != "" {
		out += "  " + hintStyle.Render("Hint: "+hint) + "\n"
	}
	return out
}

func errorHint(err error) string {
	switch {
	case client.IsAuthError(err):
		return "check --username/--password or --token"
	case client.IsConnectionError(err):
		return "is splunkd listening on the management port? try --insecure for self-signed certificates"
	case errors.Is(err, engine.ErrInsufficientData):
		return "poll more instances (discover --instances) to map a deployment"
	case errors.Is(err, config.ErrInvalidConfig):
		return "run 'spm config init' for a commented starting point"
	case errors.Is(err, errNoTerminal):
		return "stdin is not a terminal, so the password cannot be prompted"
	}
	return ""
}

func success(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render(msg))
}

func warn(w io.Writer, msg string) {
	fmt.Fprintln(w, warnStyle.Render("Warning: "+msg))
}

// printReport writes r as a bordered table with one colored health column.
func printReport(w io.Writer, r model.Report) {
	fmt.Fprintln(w, boldStyle.Render("Health report for "+r.Instance))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))).
		Headers("CATEGORY", "CHECK", "HEALTH", "VALUE").
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			if col == 2 && row >= 0 && row < len(r.Rows) {
				return tui.HealthStyle(r.Rows[row].Health).Padding(0, 1)
			}
			return s
		})
	for _, row := range r.Rows {
		t.Row(row.Category, row.Name, healthText(row.Health), strings.ReplaceAll(row.Value, "\n", " "))
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, summaryLine(r))
}

// printSection renders one detail table. Unknown tables print a warning
// instead of an empty grid.
func printSection(w io.Writer, instance string, t model.Table) {
	fmt.Fprintln(w, boldStyle.Render(t.Title+" for "+instance))
	if !t.Known {
		warn(w, t.Title+" not available on this instance")
		return
	}
	if len(t.Rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}

	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = strings.ToUpper(c)
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			return s
		})
	for _, r := range t.Rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = strings.ReplaceAll(c, "\n", " ")
		}
		tbl.Row(cells...)
	}
	fmt.Fprintln(w, tbl.Render())
	fmt.Fprintf(w, "%d rows\n", len(t.Rows))
}

func healthText(h model.Health) string {
	if h == model.HealthNA {
		return ""
	}
	return h.String()
}

// summaryLine counts the evaluated rows by health.
func summaryLine(r model.Report) string {
	parts := make([]string, 0, 4)
	for _, h := range []model.Health{model.HealthWarning, model.HealthCaution, model.HealthUnknown, model.HealthOK} {
		if n := r.Count(h); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, h))
		}
	}
	if len(parts) == 0 {
		return "no evaluated checks"
	}
	return strings.Join(parts, ", ")
}

// printEvent writes one discovery progress line.
func printEvent(w io.Writer, ev model.ProgressEvent) {
	status := tui.StatusStyle(ev.Status).Render(ev.Status.String())
	line := fmt.Sprintf("[%d/%d] %s %s", ev.Index+1, ev.Total, ev.Candidate.Key(), status)
	if ev.Report != nil {
		line += "  worst: " + ev.Report.Worst().String()
	}
	if ev.Err != nil && ev.Status != model.StatusOK {
		line += "  " + hintStyle.Render(ev.Err.Error())
	}
	fmt.Fprintln(w, line)
}
