package importer

import (
	"strings"

	"ingest_server/core/domain"
)

const (
	supportHeaderScanRows = 10
	supportHeaderScanCols = 5

	// How far right to look for POE/MESI/EAP sub-headers when the merged
	// "REUNIÓ AMB" header did not resolve them.
	supportReunioScanCols = 30
)

// parseSupportSheet extracts one row per student from a support tracking
// sheet. These sheets use a two-row header: a merged top row with the
// field groups and a sub-row naming the meeting bodies.
func parseSupportSheet(g *grid, etapa, file string) ([]domain.ImportRow, *domain.SheetIssue) {
	headerRow := 0
	for r := 1; r <= supportHeaderScanRows && headerRow == 0; r++ {
		for c := 1; c <= supportHeaderScanCols; c++ {
			v := strings.ToUpper(g.cell(r, c))
			if strings.Contains(v, "ALUMNE") || v == "NOM" {
				headerRow = r
				break
			}
		}
	}
	if headerRow == 0 {
		return nil, &domain.SheetIssue{Sheet: g.name, Reason: "no ALUMNE/NOM header found"}
	}
	subRow := headerRow + 1

	cols := map[string]int{}
	rowWidth := len(g.rows[headerRow-1])
	for c := 1; c <= rowWidth; c++ {
		h := strings.ToUpper(g.cell(headerRow, c))
		if h == "" {
			continue
		}
		if strings.Contains(h, "ALUMNE") || h == "NOM" {
			cols["nom"] = c
		}
		if strings.Contains(h, "DATA") && strings.Contains(h, "INCORPORA") {
			cols["data_incorporacio"] = c
		}
		if strings.Contains(h, "ESCOLARITZA") {
			cols["escolaritzacio_previa"] = c
		}
		if strings.Contains(h, "REUNIÓ") || strings.Contains(h, "REUNIO") {
			sub := strings.ToUpper(g.cell(subRow, c))
			switch {
			case strings.Contains(sub, "POE"):
				cols["reunio_poe"] = c
			case strings.Contains(sub, "MESI"):
				cols["reunio_mesi"] = c
			case strings.Contains(sub, "EAP"):
				cols["reunio_eap"] = c
			case strings.Contains(h, "POE"):
				cols["reunio_poe"] = c
			case strings.Contains(h, "MESI"):
				cols["reunio_mesi"] = c
			case strings.Contains(h, "EAP"):
				cols["reunio_eap"] = c
			}
		}
		if strings.Contains(h, "INFORME EAP") {
			cols["informe_eap"] = c
		}
		if strings.Contains(h, "CAD") {
			cols["cad"] = c
		}
		if strings.Contains(h, "INFORME DIAGNÒSTIC") || strings.Contains(h, "INFORME DIAGNOSTIC") {
			cols["informe_diagnostic"] = c
		}
		if strings.Contains(h, "CURS") && strings.Contains(h, "RETENCI") {
			cols["curs_retencio"] = c
		}
		if strings.Contains(h, "NISE") {
			cols["nise"] = c
		}
		if strings.Contains(h, "SSD") {
			cols["ssd"] = c
		}
		if strings.Contains(h, "MESURA NESE") {
			cols["mesura_nese"] = c
		}
		if strings.Contains(h, "MATÈRIES") || strings.Contains(h, "MATERIES") ||
			strings.Contains(h, "ÀMBITS") || strings.Contains(h, "AMBITS") {
			cols["materies_pi"] = c
		}
		if strings.Contains(h, "EIXOS") {
			cols["eixos_pi"] = c
		}
		if strings.Contains(h, "NAC") && strings.Contains(h, "PI") {
			cols["nac_pi"] = c
		}
		if strings.Contains(h, "NAC") && strings.Contains(h, "FINAL") {
			cols["nac_final"] = c
		}
		if strings.Contains(h, "SERVEIS EXTERNS") {
			cols["serveis_externs"] = c
		}
		if strings.Contains(h, "BECA") {
			cols["beca_mec"] = c
		}
		if strings.Contains(h, "OBSERVAC") {
			cols["observacions_curs"] = c
		}
		if strings.Contains(h, "DADES RELLEVANTS") || strings.Contains(h, "HISTÒRIC") || strings.Contains(h, "HISTORIC") {
			cols["dades_rellevants_historic"] = c
		}
	}

	// Meeting columns usually live only in the sub-row, under a merged
	// group header that spans them.
	if cols["reunio_poe"] == 0 || cols["reunio_mesi"] == 0 || cols["reunio_eap"] == 0 {
		for c := 1; c <= supportReunioScanCols; c++ {
			switch strings.ToUpper(g.cell(subRow, c)) {
			case "POE":
				cols["reunio_poe"] = c
			case "MESI":
				cols["reunio_mesi"] = c
			case "EAP":
				cols["reunio_eap"] = c
			}
		}
	}

	nameCol := cols["nom"]
	if nameCol == 0 {
		nameCol = 2
	}

	var rows []domain.ImportRow
	for r := headerRow + 2; r <= g.rowCount(); r++ {
		name := g.cell(r, nameCol)
		if name == "" {
			continue
		}

		rec := &domain.SupportRecord{
			EscolaritzacioPrevia:    optCell(g, r, cols, "escolaritzacio_previa"),
			CAD:                     optCell(g, r, cols, "cad"),
			InformeDiagnostic:       optCell(g, r, cols, "informe_diagnostic"),
			CursRetencio:            optCell(g, r, cols, "curs_retencio"),
			ReunioPOE:               boolPtr(false),
			ReunioEAP:               boolPtr(false),
			SSD:                     boolPtr(false),
			MateriesPI:              optCell(g, r, cols, "materies_pi"),
			EixosPI:                 optCell(g, r, cols, "eixos_pi"),
			NacPI:                   optCell(g, r, cols, "nac_pi"),
			NacFinal:                optCell(g, r, cols, "nac_final"),
			ServeisExterns:          optCell(g, r, cols, "serveis_externs"),
			ObservacionsCurs:        optCell(g, r, cols, "observacions_curs"),
			DadesRellevantsHistoric: optCell(g, r, cols, "dades_rellevants_historic"),
			SourceSheet:             g.name,
			SourceFile:              file,
		}
		if c := cols["data_incorporacio"]; c > 0 {
			rec.DataIncorporacio = cellDate(g.cell(r, c))
		}
		if c := cols["reunio_poe"]; c > 0 {
			rec.ReunioPOE = boolPtr(cellBool(g.cell(r, c)))
		}
		if c := cols["reunio_eap"]; c > 0 {
			rec.ReunioEAP = boolPtr(cellBool(g.cell(r, c)))
		}
		if c := cols["ssd"]; c > 0 {
			rec.SSD = boolPtr(cellBool(g.cell(r, c)))
		}
		// Secondary sheets have no MESI column; the field is genuinely
		// not applicable there rather than false.
		if c := cols["reunio_mesi"]; c > 0 {
			rec.ReunioMESI = boolPtr(cellBool(g.cell(r, c)))
		} else if etapa != domain.EtapaESO {
			rec.ReunioMESI = boolPtr(false)
		}

		if raw := optCell(g, r, cols, "informe_eap"); raw != nil {
			rec.InformeEAP = normalizeInformeEAP(*raw)
		}
		if raw := optCell(g, r, cols, "mesura_nese"); raw != nil {
			rec.MesuraNese = normalizeMesura(*raw)
		}
		if raw := optCell(g, r, cols, "nise"); raw != nil {
			rec.Nise = normalizeNise(*raw)
		}
		if raw := optCell(g, r, cols, "beca_mec"); raw != nil {
			rec.BecaMec = normalizeBeca(*raw)
		}

		rows = append(rows, domain.ImportRow{Name: name, Sheet: g.name, Support: rec})
	}
	return rows, nil
}

func normalizeInformeEAP(raw string) *string {
	v := strings.ToLower(raw)
	switch {
	case strings.Contains(v, "sense") || strings.Contains(v, "no"):
		return strPtr(domain.InformeEAPSense)
	case strings.Contains(v, "nee") || strings.Contains(v, "annex 1 i 2") || strings.Contains(v, "annex1i2"):
		return strPtr(domain.InformeEAPNeeAnnex1i2)
	case strings.Contains(v, "nese") || strings.Contains(v, "annex 1") || strings.Contains(v, "annex1"):
		return strPtr(domain.InformeEAPNeseAnnex1)
	}
	return &raw
}

func normalizeMesura(raw string) *string {
	v := strings.ToLower(raw)
	switch {
	case strings.Contains(v, "pi curricular"):
		return strPtr(domain.MesuraPICurricular)
	case strings.Contains(v, "pi no curricular") || strings.Contains(v, "pi no-curricular"):
		return strPtr(domain.MesuraPINoCurricular)
	case strings.Contains(v, "pi nouvingut"):
		return strPtr(domain.MesuraPINouvingut)
	case strings.Contains(v, "dua") || strings.Contains(v, "misu"):
		return strPtr(domain.MesuraDUAMisu)
	case strings.Contains(v, "no mesures") || strings.Contains(v, "sense"):
		return strPtr(domain.MesuraNoMesures)
	case strings.Contains(v, "pi"):
		return strPtr(domain.MesuraPI)
	}
	return &raw
}

func normalizeNise(raw string) *string {
	v := strings.ToLower(raw)
	switch {
	case strings.Contains(v, "nise") && !strings.Contains(v, "sls") && !strings.Contains(v, "no"):
		return strPtr(domain.NiseNise)
	case strings.Contains(v, "sls"):
		return strPtr(domain.NiseSLS)
	case strings.Contains(v, "no"):
		return strPtr(domain.NiseNo)
	}
	return &raw
}

func normalizeBeca(raw string) *string {
	v := strings.ToLower(raw)
	switch {
	case strings.Contains(v, "sol·licit") || strings.Contains(v, "solicit") || strings.Contains(v, "curs actual"):
		return strPtr(domain.BecaSollicitadaCursActual)
	case strings.Contains(v, "candidat") || strings.Contains(v, "proper"):
		return strPtr(domain.BecaCandidatProperCurs)
	case strings.Contains(v, "no"):
		return strPtr(domain.BecaNoCandidatMec)
	}
	return &raw
}

func strPtr(s string) *string {
	return &s
}
