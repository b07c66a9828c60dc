package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/dm/spm-go/internal/model"
)

// ReportTable is a sortable, paginated, filterable view of a health report.
type ReportTable struct {
	tableModel
	allRows     []model.Row
	displayRows []model.Row
}

// NewReportTable returns a ReportTable in report order.
func NewReportTable() ReportTable {
	return ReportTable{
		tableModel: newTableModel([]columnDef{
			{Title: "Category", Width: 12},
			{Title: "Name", Width: 26},
			{Title: "Health", Width: 9},
			{Title: "Value", Width: 40},
		}, 20),
	}
}

// SetRows replaces the rows, keeping the current filter and sort.
func (m *ReportTable) SetRows(rows []model.Row) {
	m.allRows = rows
	m.apply()
}

func (m *ReportTable) apply() {
	m.displayRows = sortReportRows(filterReportRows(m.allRows, m.search), m.sortCol, m.sortDesc)
	m.clampPage(len(m.displayRows))
}

// Update delegates to tableModel and re-applies filter and sort when they
// change.
func (m ReportTable) Update(msg tea.Msg) (ReportTable, tea.Cmd) {
	prevSort, prevDesc, prevSearch := m.sortCol, m.sortDesc, m.search

	base, cmd := m.tableModel.Update(msg)
	m.tableModel = base

	if m.sortCol != prevSort || m.sortDesc != prevDesc || m.search != prevSearch {
		m.apply()
	} else {
		m.clampPage(len(m.displayRows))
	}
	return m, cmd
}

// Searching reports whether the filter input has focus.
func (m ReportTable) Searching() bool {
	return m.searching
}

// View renders the title line and the current page.
func (m ReportTable) View(width int) string {
	pc := pageCount(len(m.displayRows), m.pageSize)
	title := m.renderTitle(m.page+1, pc)

	start, end := pageBounds(len(m.displayRows), m.page, m.pageSize)
	if start == end {
		return lipgloss.JoinVertical(lipgloss.Left, title, StyleDim.Render("  (no rows)"))
	}

	headers := make([]string, len(m.columns))
	for i, c := range m.columns {
		headers[i] = c.Title
		if i == m.sortCol {
			if m.sortDesc {
				headers[i] += "↓"
			} else {
				headers[i] += "↑"
			}
		}
	}

	page := m.displayRows[start:end]
	sortCol := m.sortCol
	t := ltable.New().
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				if col == sortCol {
					return lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
				}
				return lipgloss.NewStyle().Bold(true).Foreground(colorGray)
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row%2 == 0 {
				base = base.Background(colorAlt)
			}
			switch col {
			case 0:
				return base.Foreground(colorCyan)
			case 2:
				if row >= 0 && row < len(page) {
					return base.Inherit(HealthStyle(page[row].Health))
				}
			}
			return base.Foreground(colorWhite)
		}).
		BorderStyle(lipgloss.NewStyle().Foreground(colorGray)).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderColumn(false)
	if width > 0 {
		t = t.Width(width)
	}

	for _, r := range page {
		t = t.Row(r.Category, r.Name, healthLabel(r.Health), sanitize(r.Value))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, t.String())
}

func (m ReportTable) renderTitle(page, pages int) string {
	pageInfo := fmt.Sprintf("Page %d/%d", page, pages)
	var right string
	switch {
	case m.searching:
		right = "Filter: " + m.input.View()
	case m.search != "":
		right = fmt.Sprintf("filter=%q  %s", m.search, pageInfo)
	default:
		right = fmt.Sprintf("[/: filter]  [1-4: sort]  [←→: page]  %s", pageInfo)
	}
	return StyleDim.Render("Health Report  " + right)
}

// healthLabel renders NA as a blank cell.
func healthLabel(h model.Health) string {
	if h == model.HealthNA {
		return ""
	}
	return h.String()
}

// sanitize flattens multi-line values and strips control characters that
// would break the table layout.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
