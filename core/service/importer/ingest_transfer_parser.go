package importer

import (
	"strings"

	"ingest_server/core/domain"
)

// Transfer sheet layout bounds. The name header sits somewhere in the
// top-left corner; everything else is located relative to it.
const (
	transferHeaderScanRows = 15
	transferHeaderScanCols = 5

	// Column the "exemple" template marker sits in when the name column
	// is at its expected position.
	transferExampleCol = 11
)

// parseTransferSheet extracts one row per student from a transfer-notes
// sheet. Returns nil rows and a reason when the header cannot be located.
func parseTransferSheet(g *grid, file string) ([]domain.ImportRow, *domain.SheetIssue) {
	headerRow, nomCol := 0, 0
	for r := 1; r <= transferHeaderScanRows && headerRow == 0; r++ {
		for c := 1; c <= transferHeaderScanCols; c++ {
			if strings.ToUpper(g.cell(r, c)) == "NOM" {
				headerRow, nomCol = r, c
				break
			}
		}
	}
	if headerRow == 0 {
		return nil, &domain.SheetIssue{Sheet: g.name, Reason: "no NOM header found"}
	}
	// Offset vs. the expected layout where NOM sits in column B.
	nomColOffset := nomCol - 2

	cols := map[string]int{}
	rowWidth := len(g.rows[headerRow-1])
	for c := 1; c <= rowWidth; c++ {
		h := strings.ToUpper(g.cell(headerRow, c))
		if h == "" {
			continue
		}
		switch {
		case h == "NOM":
			cols["nom"] = c
		case strings.Contains(h, "GRAELLA NESE"):
			cols["graella_nese"] = c
		case strings.Contains(h, "CURS") && strings.Contains(h, "REPETI"):
			cols["curs_repeticio"] = c
		case strings.Contains(h, "DADES FAMILIARS"):
			cols["dades_familiars"] = c
		case strings.Contains(h, "ACADÈMIC") || h == "ACADEMIC":
			cols["academic"] = c
		case strings.Contains(h, "COMPORTAMENT"):
			cols["comportament"] = c
		case strings.Contains(h, "ACORDS"):
			cols["acords_tutoria"] = c
		case h == "ESTAT":
			cols["estat"] = c
		case strings.Contains(h, "OBSERVAC"):
			cols["observacions"] = c
		}
	}

	nameCol := cols["nom"]
	if nameCol == 0 {
		nameCol = 2
	}

	var rows []domain.ImportRow
	for r := headerRow + 1; r <= g.rowCount(); r++ {
		name := g.cell(r, nameCol)
		if name == "" {
			continue
		}
		// Template sheets ship with one filled-in example row, marked in
		// a side column that shifts with the layout.
		if exCol := transferExampleCol + nomColOffset; exCol > 0 {
			if strings.Contains(strings.ToLower(g.cell(r, exCol)), "exemple") {
				continue
			}
		}

		rec := &domain.YearlyRecord{
			GraellaNese:    boolPtr(false),
			CursRepeticio:  optCell(g, r, cols, "curs_repeticio"),
			DadesFamiliars: optCell(g, r, cols, "dades_familiars"),
			Academic:       optCell(g, r, cols, "academic"),
			Comportament:   optCell(g, r, cols, "comportament"),
			AcordsTutoria:  optCell(g, r, cols, "acords_tutoria"),
			Observacions:   optCell(g, r, cols, "observacions"),
			SourceSheet:    g.name,
			SourceFile:     file,
		}
		if c := cols["graella_nese"]; c > 0 {
			rec.GraellaNese = boolPtr(cellBool(g.cell(r, c)))
		}
		if raw := optCell(g, r, cols, "estat"); raw != nil {
			rec.Estat = normalizeEstat(*raw)
		}

		rows = append(rows, domain.ImportRow{Name: name, Sheet: g.name, Transfer: rec})
	}
	return rows, nil
}

func optCell(g *grid, r int, cols map[string]int, key string) *string {
	c := cols[key]
	if c == 0 {
		return nil
	}
	return optStr(g.cell(r, c))
}

func normalizeEstat(raw string) *string {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(v, "resolt"):
		s := domain.EstatResolt
		return &s
	case strings.Contains(v, "pendent"):
		s := domain.EstatPendent
		return &s
	}
	return nil
}
