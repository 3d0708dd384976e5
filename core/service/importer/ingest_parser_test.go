package importer

import (
	"testing"

	"ingest_server/core/domain"
)

func TestCellBool(t *testing.T) {
	truthy := []string{"true", "Sí", "si", "X", "x", "YES"}
	for _, v := range truthy {
		if !cellBool(v) {
			t.Errorf("cellBool(%q) = false, want true", v)
		}
	}
	falsy := []string{"", "no", "0", "pendent", "-"}
	for _, v := range falsy {
		if cellBool(v) {
			t.Errorf("cellBool(%q) = true, want false", v)
		}
	}
}

func TestCellDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"12/09/2023", "2023-09-12"},
		{"1/2/23", "2023-02-01"},
		{"3-10-2024", "2024-10-03"},
		{"incorporat el 5/11/2022", "2022-11-05"},
	}
	for _, tt := range tests {
		got := cellDate(tt.input)
		if got == nil || *got != tt.want {
			t.Errorf("cellDate(%q) = %v, want %q", tt.input, got, tt.want)
		}
	}
	if cellDate("cap data") != nil {
		t.Error("cellDate on non-date should return nil")
	}
}

func transferGrid(name string, rows [][]string) *grid {
	return &grid{name: name, rows: rows}
}

func TestParseTransferSheet(t *testing.T) {
	g := transferGrid("P3", [][]string{
		{"", "", ""},
		{"", "NOM", "GRAELLA NESE", "CURS REPETIT", "DADES FAMILIARS", "ACADÈMIC", "COMPORTAMENT", "ACORDS TUTORIA", "ESTAT", "OBSERVACIONS"},
		{"", "Maria Garcia", "x", "", "família nombrosa", "va bé", "", "seguiment mensual", "RESOLT", ""},
		{"", "Anna Puig", "", "P4", "", "", "mogut", "", "cas pendent", "revisar"},
		{"", "", "", "", "", "", "", "", "", ""},
	})

	rows, issue := parseTransferSheet(g, "INF.xlsx")
	if issue != nil {
		t.Fatalf("unexpected issue: %v", issue)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	first := rows[0].Transfer
	if rows[0].Name != "Maria Garcia" || first == nil {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if first.GraellaNese == nil || !*first.GraellaNese {
		t.Error("graella_nese 'x' should parse true")
	}
	if first.Estat == nil || *first.Estat != domain.EstatResolt {
		t.Errorf("estat = %v, want resolt", first.Estat)
	}
	if first.DadesFamiliars == nil || *first.DadesFamiliars != "família nombrosa" {
		t.Errorf("dades_familiars = %v", first.DadesFamiliars)
	}
	if first.CursRepeticio != nil {
		t.Error("empty curs_repeticio should be nil")
	}

	second := rows[1].Transfer
	if second.Estat == nil || *second.Estat != domain.EstatPendent {
		t.Errorf("estat = %v, want pendent", second.Estat)
	}
	if second.GraellaNese == nil || *second.GraellaNese {
		t.Error("empty graella_nese should parse false")
	}
}

func TestParseTransferSheetShiftedLayout(t *testing.T) {
	// NOM in column A instead of B shifts the example-marker column too.
	g := transferGrid("P4", [][]string{
		{"NOM", "ACADÈMIC", "ESTAT", "", "", "", "", "", "", "exemple"},
		{"Alumne Exemple", "text de mostra", "resolt", "", "", "", "", "", "", "Exemple de fila"},
		{"Pol Vidal", "li costa la lectura", "pendent"},
	})

	rows, issue := parseTransferSheet(g, "INF.xlsx")
	if issue != nil {
		t.Fatalf("unexpected issue: %v", issue)
	}
	if len(rows) != 1 || rows[0].Name != "Pol Vidal" {
		t.Fatalf("example row not skipped: %+v", rows)
	}
}

func TestParseTransferSheetNoHeader(t *testing.T) {
	g := transferGrid("Full1", [][]string{
		{"res", "a veure"},
		{"", ""},
	})
	rows, issue := parseTransferSheet(g, "f.xlsx")
	if rows != nil || issue == nil {
		t.Fatalf("want nil rows and an issue, got %v / %v", rows, issue)
	}
}

func TestParseSupportSheet(t *testing.T) {
	g := transferGrid("NESE ESO", [][]string{
		{"", "ALUMNE", "DATA INCORPORACIÓ", "REUNIÓ AMB", "", "INFORME EAP", "NISE", "SSD", "MESURA NESE", "BECA MEC"},
		{"", "", "", "POE", "EAP", "", "", "", "", ""},
		{"", "Maria Garcia", "12/09/23", "x", "", "NESE annex 1", "no inscrit", "sí", "PI no curricular", "Sol·licitada curs actual"},
		{"", "Anna Puig", "", "", "x", "sense informe", "SLS", "", "DUA", "candidat proper curs"},
	})

	rows, issue := parseSupportSheet(g, domain.EtapaESO, "ESO.xlsx")
	if issue != nil {
		t.Fatalf("unexpected issue: %v", issue)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	first := rows[0].Support
	if first.DataIncorporacio == nil || *first.DataIncorporacio != "2023-09-12" {
		t.Errorf("data_incorporacio = %v", first.DataIncorporacio)
	}
	if first.ReunioPOE == nil || !*first.ReunioPOE {
		t.Error("reunio_poe should be true")
	}
	if first.ReunioEAP == nil || *first.ReunioEAP {
		t.Error("reunio_eap should be false")
	}
	// ESO sheets carry no MESI column.
	if first.ReunioMESI != nil {
		t.Errorf("reunio_mesi = %v, want nil for eso", first.ReunioMESI)
	}
	if first.InformeEAP == nil || *first.InformeEAP != domain.InformeEAPNeseAnnex1 {
		t.Errorf("informe_eap = %v", first.InformeEAP)
	}
	if first.Nise == nil || *first.Nise != domain.NiseNo {
		t.Errorf("nise = %v, want no", first.Nise)
	}
	if first.SSD == nil || !*first.SSD {
		t.Error("ssd should be true")
	}
	if first.MesuraNese == nil || *first.MesuraNese != domain.MesuraPINoCurricular {
		t.Errorf("mesura_nese = %v", first.MesuraNese)
	}
	if first.BecaMec == nil || *first.BecaMec != domain.BecaSollicitadaCursActual {
		t.Errorf("beca_mec = %v", first.BecaMec)
	}

	second := rows[1].Support
	if second.InformeEAP == nil || *second.InformeEAP != domain.InformeEAPSense {
		t.Errorf("informe_eap = %v", second.InformeEAP)
	}
	if second.Nise == nil || *second.Nise != domain.NiseSLS {
		t.Errorf("nise = %v", second.Nise)
	}
	if second.MesuraNese == nil || *second.MesuraNese != domain.MesuraDUAMisu {
		t.Errorf("mesura_nese = %v", second.MesuraNese)
	}
	if second.BecaMec == nil || *second.BecaMec != domain.BecaCandidatProperCurs {
		t.Errorf("beca_mec = %v", second.BecaMec)
	}
}

func TestParseSupportSheetMesiDefaultPrimaria(t *testing.T) {
	g := transferGrid("NESE PRI", [][]string{
		{"", "ALUMNE", "INFORME EAP"},
		{"", "", ""},
		{"", "Pol Vidal", "NEE annex 1 i 2"},
	})
	rows, issue := parseSupportSheet(g, domain.EtapaPrimaria, "PRI.xlsx")
	if issue != nil || len(rows) != 1 {
		t.Fatalf("rows=%v issue=%v", rows, issue)
	}
	rec := rows[0].Support
	if rec.ReunioMESI == nil || *rec.ReunioMESI {
		t.Errorf("reunio_mesi = %v, want false for primaria", rec.ReunioMESI)
	}
	if rec.InformeEAP == nil || *rec.InformeEAP != domain.InformeEAPNeeAnnex1i2 {
		t.Errorf("informe_eap = %v", rec.InformeEAP)
	}
}

func TestNormalizeMesuraOrder(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"PI curricular", domain.MesuraPICurricular},
		{"PI no curricular", domain.MesuraPINoCurricular},
		{"PI no-curricular", domain.MesuraPINoCurricular},
		{"PI nouvingut", domain.MesuraPINouvingut},
		{"MISU", domain.MesuraDUAMisu},
		{"sense mesures", domain.MesuraNoMesures},
		{"té un PI", domain.MesuraPI},
	}
	for _, tt := range tests {
		got := normalizeMesura(tt.input)
		if got == nil || *got != tt.want {
			t.Errorf("normalizeMesura(%q) = %v, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeNise(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"NISE", domain.NiseNise},
		{"SLS", domain.NiseSLS},
		{"no", domain.NiseNo},
		{"NISE no actiu", domain.NiseNo},
	}
	for _, tt := range tests {
		got := normalizeNise(tt.input)
		if got == nil || *got != tt.want {
			t.Errorf("normalizeNise(%q) = %v, want %q", tt.input, got, tt.want)
		}
	}
}
