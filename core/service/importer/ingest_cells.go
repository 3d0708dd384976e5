// Package importer parses tutor workbooks (transfer notes and support
// tracking sheets) and reconciles their rows against the roster.
package importer

import (
	"regexp"
	"strings"
)

// grid wraps a sheet's raw string cells with 1-based access, matching the
// row/column coordinates the layout constants are written in. Reads past
// the edge return "" so header scans never bound-check.
type grid struct {
	name string
	rows [][]string
}

func (g *grid) cell(r, c int) string {
	if r < 1 || r > len(g.rows) {
		return ""
	}
	row := g.rows[r-1]
	if c < 1 || c > len(row) {
		return ""
	}
	return strings.TrimSpace(row[c-1])
}

func (g *grid) rowCount() int {
	return len(g.rows)
}

// cellBool interprets the checkmark vocabulary tutors actually use.
func cellBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "sí", "si", "x", "yes":
		return true
	}
	return false
}

var dateRe = regexp.MustCompile(`(\d{1,2})[\/\-](\d{1,2})[\/\-](\d{2,4})`)

// cellDate extracts a dd/mm/yyyy-ish date anywhere in the cell and
// returns it as ISO. Two-digit years are assumed to be 20xx.
func cellDate(v string) *string {
	m := dateRe.FindStringSubmatch(v)
	if m == nil {
		return nil
	}
	year := m[3]
	if len(year) == 2 {
		year = "20" + year
	}
	iso := year + "-" + pad2(m[2]) + "-" + pad2(m[1])
	return &iso
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func optStr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func boolPtr(b bool) *bool {
	return &b
}
