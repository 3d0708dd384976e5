package matching

import "testing"

func TestCleanName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"asterisk removed", "* MARIA GARCIA", "MARIA GARCIA"},
		{"embedded asterisk", "MARIA* GARCIA", "MARIA GARCIA"},
		{"initial dot removed", "J. MARTINEZ", "J MARTINEZ"},
		{"multi word dots kept only on initials", "M. CARMEN R. SOLER", "M CARMEN R SOLER"},
		{"whitespace collapsed", "  ANNA   PUIG  ", "ANNA PUIG"},
		{"plain passthrough", "Pol Vidal", "Pol Vidal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanName(tt.input); got != tt.want {
				t.Errorf("CleanName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeCommaFormat(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Garcia Soler, Maria", "Maria Garcia Soler"},
		{"Puig, Anna", "Anna Puig"},
		{"Anna Puig", "Anna Puig"},
		{"Puig,", "Puig"},
	}
	for _, tt := range tests {
		if got := NormalizeCommaFormat(tt.input); got != tt.want {
			t.Errorf("NormalizeCommaFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Núria Gràcia", "NURIA GRACIA"},
		{"josé-maría lópez", "JOSEMARIA LOPEZ"},
		{"  Pol   Vidal  ", "POL VIDAL"},
		{"Çelik Özgür", "CELIK OZGUR"},
		{"Maria123", "MARIA"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTokenizeForMatching(t *testing.T) {
	got := TokenizeForMatching("MARIA C GARCIA")
	if len(got) != 2 || got[0] != "MARIA" || got[1] != "GARCIA" {
		t.Errorf("single-letter token not dropped: %v", got)
	}
	if TokenizeForMatching("") != nil {
		t.Error("empty input should yield nil")
	}
}

func TestIsGarbage(t *testing.T) {
	garbage := []string{
		"* alumnes nous",
		"Si cal, afegir files",
		"RENOVAR el PI",
		"Model de PI 2024",
	}
	for _, s := range garbage {
		if !IsGarbage(s) {
			t.Errorf("IsGarbage(%q) = false, want true", s)
		}
	}
	ok := []string{"MARIA GARCIA", "Puig, Anna", "Walid"}
	for _, s := range ok {
		if IsGarbage(s) {
			t.Errorf("IsGarbage(%q) = true, want false", s)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"ABC", "", 3},
		{"GUERRERO", "GUERREO", 1},
		{"MARIA", "MARTA", 1},
		{"ANNA", "ANNA", 0},
		{"KIM", "POL", 3},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
