package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type columnDef struct {
	Title string
	Width int
}

// tableModel holds the sort, page and filter state shared by the report
// table and the discovery result table.
type tableModel struct {
	columns   []columnDef
	sortCol   int // -1 keeps source order
	sortDesc  bool
	page      int
	pageSize  int
	search    string
	searching bool
	input     textinput.Model
}

func newTableModel(cols []columnDef, pageSize int) tableModel {
	ti := textinput.New()
	ti.Placeholder = "filter..."
	ti.CharLimit = 80
	if pageSize <= 0 {
		pageSize = 20
	}
	return tableModel{
		columns:  cols,
		sortCol:  -1,
		pageSize: pageSize,
		input:    ti,
	}
}

// Update handles filter input, paging and the digit sort keys. Selecting the
// active sort column again flips the direction; a third press restores the
// source order.
func (t tableModel) Update(msg tea.Msg) (tableModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}

	if t.searching {
		switch {
		case key.Matches(km, keys.Escape):
			t.searching = false
			t.input.Blur()
			if t.input.Value() == "" {
				t.search = ""
			}
			return t, nil
		case km.String() == "enter":
			t.search = t.input.Value()
			t.searching = false
			t.input.Blur()
			t.page = 0
			return t, nil
		default:
			var cmd tea.Cmd
			t.input, cmd = t.input.Update(km)
			return t, cmd
		}
	}

	switch {
	case key.Matches(km, keys.Search):
		t.searching = true
		t.input.SetValue(t.search)
		t.input.Focus()
		return t, textinput.Blink
	case key.Matches(km, keys.Escape):
		t.search = ""
		t.input.SetValue("")
		t.page = 0
	case key.Matches(km, keys.PrevPage):
		if t.page > 0 {
			t.page--
		}
	case key.Matches(km, keys.NextPage):
		t.page++
	default:
		col := digitToCol(km.String())
		if col < 0 || col >= len(t.columns) {
			return t, nil
		}
		switch {
		case col != t.sortCol:
			t.sortCol = col
			t.sortDesc = false
		case !t.sortDesc:
			t.sortDesc = true
		default:
			t.sortCol = -1
			t.sortDesc = false
		}
		t.page = 0
	}
	return t, nil
}

// digitToCol converts "1"-"9" to a 0-indexed column, -1 otherwise.
func digitToCol(s string) int {
	if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		return int(s[0] - '1')
	}
	return -1
}

// pageCount is at least 1.
func pageCount(totalRows, pageSize int) int {
	if totalRows == 0 || pageSize <= 0 {
		return 1
	}
	return (totalRows + pageSize - 1) / pageSize
}

// pageBounds returns the [start, end) row range of page.
func pageBounds(totalRows, page, pageSize int) (int, int) {
	if pageSize <= 0 {
		return 0, totalRows
	}
	start := page * pageSize
	if start >= totalRows {
		start = 0
	}
	end := start + pageSize
	if end > totalRows {
		end = totalRows
	}
	return start, end
}

func (t *tableModel) clampPage(totalRows int) {
	pc := pageCount(totalRows, t.pageSize)
	if t.page >= pc {
		t.page = pc - 1
	}
	if t.page < 0 {
		t.page = 0
	}
}
