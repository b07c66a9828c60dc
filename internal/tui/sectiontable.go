package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/dm/spm-go/internal/model"
)

// SectionTable is a sortable, paginated, filterable view of one detail
// table of the snapshot.
type SectionTable struct {
	tableModel
	name        string
	title       string
	known       bool
	allRows     [][]string
	displayRows [][]string
}

// NewSectionTable returns a SectionTable showing t in source order.
func NewSectionTable(t model.Table) SectionTable {
	m := SectionTable{}
	m.SetTable(t)
	return m
}

// SetTable replaces the contents. Sort, filter and page survive a refresh of
// the same section.
func (m *SectionTable) SetTable(t model.Table) {
	if t.Name != m.name || len(t.Columns) != len(m.columns) {
		cols := make([]columnDef, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = columnDef{Title: c}
		}
		m.tableModel = newTableModel(cols, 20)
	}
	m.name = t.Name
	m.title = t.Title
	m.known = t.Known
	m.allRows = t.Rows
	m.apply()
}

func (m *SectionTable) apply() {
	m.displayRows = sortSectionRows(filterSectionRows(m.allRows, m.search), m.sortCol, m.sortDesc)
	m.clampPage(len(m.displayRows))
}

// Update delegates to tableModel and re-applies filter and sort when they
// change.
func (m SectionTable) Update(msg tea.Msg) (SectionTable, tea.Cmd) {
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
func (m SectionTable) Searching() bool {
	return m.searching
}

// View renders the title line and the current page.
func (m SectionTable) View(width int) string {
	pc := pageCount(len(m.displayRows), m.pageSize)
	title := m.renderTitle(m.page+1, pc)

	if !m.known {
		return lipgloss.JoinVertical(lipgloss.Left, title, StyleDim.Render("  (not available)"))
	}
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
			if col == 0 {
				return base.Foreground(colorCyan)
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

	for _, r := range m.displayRows[start:end] {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = sanitize(c)
		}
		t = t.Row(cells...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, t.String())
}

func (m SectionTable) renderTitle(page, pages int) string {
	pageInfo := fmt.Sprintf("Page %d/%d", page, pages)
	var right string
	switch {
	case m.searching:
		right = "Filter: " + m.input.View()
	case m.search != "":
		right = fmt.Sprintf("filter=%q  %s", m.search, pageInfo)
	default:
		right = fmt.Sprintf("[tab: view]  [/: filter]  [1-%d: sort]  %s", min(len(m.columns), 9), pageInfo)
	}
	return StyleDim.Render(fmt.Sprintf("%s (%d)  %s", m.title, len(m.allRows), right))
}
