package tui

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dm/spm-go/internal/model"
)

// sortReportRows returns a sorted copy of rows. Columns: 0=Category,
// 1=Name, 2=Health (by severity), 3=Value. col -1 keeps report order. Ties
// keep report order.
func sortReportRows(rows []model.Row, col int, desc bool) []model.Row {
	out := make([]model.Row, len(rows))
	copy(out, rows)
	if col < 0 {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		var cmp int
		switch col {
		case 0:
			cmp = strings.Compare(a.Category, b.Category)
		case 1:
			cmp = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case 2:
			cmp = healthOrder(a.Health) - healthOrder(b.Health)
		case 3:
			cmp = strings.Compare(a.Value, b.Value)
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return out
}

// healthOrder ranks NA lowest and Unknown above Warning so unknown rows sort
// with the problems.
func healthOrder(h model.Health) int {
	switch h {
	case model.HealthNA:
		return 0
	case model.HealthOK:
		return 1
	case model.HealthCaution:
		return 2
	case model.HealthWarning:
		return 3
	default:
		return 4
	}
}

// filterReportRows keeps rows whose category, name or value contains search,
// case-insensitively.
func filterReportRows(rows []model.Row, search string) []model.Row {
	if search == "" {
		return rows
	}
	lower := strings.ToLower(search)
	out := rows[:0:0]
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Category), lower) ||
			strings.Contains(strings.ToLower(r.Name), lower) ||
			strings.Contains(strings.ToLower(r.Value), lower) {
			out = append(out, r)
		}
	}
	return out
}

// sortSectionRows returns a sorted copy of rows by column col. Cells that
// both read as numbers ("1,200", "75.0%", "3.0 MB") compare numerically,
// anything else compares as text.
func sortSectionRows(rows [][]string, col int, desc bool) [][]string {
	out := make([][]string, len(rows))
	copy(out, rows)
	if col < 0 {
		return out
	}

	cell := func(r []string) string {
		if col < len(r) {
			return r[col]
		}
		return ""
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := cell(out[i]), cell(out[j])
		var cmp int
		an, aok := cellNumber(a)
		bn, bok := cellNumber(b)
		switch {
		case aok && bok && an < bn:
			cmp = -1
		case aok && bok && an > bn:
			cmp = 1
		case aok && bok:
			cmp = 0
		default:
			cmp = strings.Compare(strings.ToLower(a), strings.ToLower(b))
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return out
}

var byteUnits = map[string]float64{
	"B":  1,
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
	"TB": 1 << 40,
}

// cellNumber parses a formatted number with optional thousands separators,
// a trailing "%" or a byte unit.
func cellNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	mult := 1.0
	if num, unit, ok := strings.Cut(s, " "); ok {
		m, known := byteUnits[unit]
		if !known {
			return 0, false
		}
		s, mult = num, m
	}
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}

// filterSectionRows keeps rows with any cell containing search,
// case-insensitively.
func filterSectionRows(rows [][]string, search string) [][]string {
	if search == "" {
		return rows
	}
	lower := strings.ToLower(search)
	out := rows[:0:0]
	for _, r := range rows {
		for _, c := range r {
			if strings.Contains(strings.ToLower(c), lower) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
