package matching

import (
	"testing"

	"github.com/google/uuid"

	"ingest_server/core/domain"
)

func student(first, last string) *domain.Student {
	return &domain.Student{
		ID:        uuid.New(),
		FirstName: first,
		LastName:  last,
		IsActive:  true,
	}
}

func testRoster() []*domain.Student {
	return []*domain.Student{
		student("Maria", "Garcia Soler"),
		student("Anna", "Puig Vidal"),
		student("Walid", "Ibn Omar Sendi"),
		student("Eiden", "Guerrero Caldas"),
		student("Enzo Aaron", "Guerrero Alfonso"),
		student("Kimberly Andrea", "Romero Leon"),
		student("Abdel Basset", "Ahdor"),
		student("Núria", "Gràcia Pons"),
		student("Pol", "Vidal Mas"),
		student("Pol", "Serra Riu"),
	}
}

func mustMatch(t *testing.T, m *Matcher, raw, wantFirst, wantLast string) {
	t.Helper()
	s, ok := m.Match(raw)
	if !ok {
		t.Fatalf("Match(%q) found nothing, want %s %s", raw, wantFirst, wantLast)
	}
	if s.FirstName != wantFirst || s.LastName != wantLast {
		t.Fatalf("Match(%q) = %s %s, want %s %s", raw, s.FirstName, s.LastName, wantFirst, wantLast)
	}
}

func mustNotMatch(t *testing.T, m *Matcher, raw string) {
	t.Helper()
	if s, ok := m.Match(raw); ok {
		t.Fatalf("Match(%q) = %s %s, want no match", raw, s.FirstName, s.LastName)
	}
}

func TestMatchExact(t *testing.T) {
	m := NewMatcher(testRoster())

	mustMatch(t, m, "Maria Garcia Soler", "Maria", "Garcia Soler")
	mustMatch(t, m, "Garcia Soler Maria", "Maria", "Garcia Soler")
	mustMatch(t, m, "Garcia Soler, Maria", "Maria", "Garcia Soler")
	mustMatch(t, m, "  maria   garcia soler ", "Maria", "Garcia Soler")
}

func TestMatchAccentsAndCase(t *testing.T) {
	m := NewMatcher(testRoster())

	mustMatch(t, m, "NURIA GRACIA PONS", "Núria", "Gràcia Pons")
	mustMatch(t, m, "núria gràcia pons", "Núria", "Gràcia Pons")
}

func TestMatchManualOverride(t *testing.T) {
	m := NewMatcher(testRoster())

	// Pinned names resolve even when fuzzy layers would fail or mislead.
	mustMatch(t, m, "Walid", "Walid", "Ibn Omar Sendi")
	mustMatch(t, m, "Kimberly Romero", "Kimberly Andrea", "Romero Leon")
	mustMatch(t, m, "Romero A. Kimberly", "Kimberly Andrea", "Romero Leon")
	mustMatch(t, m, "Ahdor, Abdel", "Abdel Basset", "Ahdor")
}

func TestMatchGlobalFuzzy(t *testing.T) {
	m := NewMatcher(testRoster())

	// One dropped letter in a surname.
	mustMatch(t, m, "Eiden Guerreo Caldas", "Eiden", "Guerrero Caldas")
	// Two edits, still under the global bound.
	mustMatch(t, m, "Maria Garcia Solar", "Maria", "Garcia Soler")
}

func TestMatchTokenSubset(t *testing.T) {
	m := NewMatcher(testRoster())

	// Partial name, unique token cover.
	mustMatch(t, m, "Anna Puig", "Anna", "Puig Vidal")
	// Reversed token order.
	mustMatch(t, m, "Puig Anna", "Anna", "Puig Vidal")
	// Single-letter middle initial is ignored for matching.
	mustMatch(t, m, "Anna P. Puig", "Anna", "Puig Vidal")
}

func TestMatchTokenSubsetTieBreak(t *testing.T) {
	m := NewMatcher(testRoster())

	// "Guerrero" alone covers two students; the fuller query decides.
	mustMatch(t, m, "Enzo Guerrero", "Enzo Aaron", "Guerrero Alfonso")
	mustMatch(t, m, "Eiden Guerrero", "Eiden", "Guerrero Caldas")
}

func TestMatchTokenSubsetAmbiguousFallsThrough(t *testing.T) {
	m := NewMatcher([]*domain.Student{
		student("Pol", "Vidal Mas"),
		student("Pol", "Vidal Riu"),
	})

	// Both students cover the query tokens at the same edit distance;
	// the layer must refuse rather than pick one arbitrarily.
	mustNotMatch(t, m, "Pol Vidal")
}

func TestMatchTokenSubsetTieBreakUsesReversedForm(t *testing.T) {
	m := NewMatcher([]*domain.Student{
		student("Anna", "Puig Vidal"),
		student("Puig Vidal", "Anna Mas"),
	})

	// A surname-first query sits closest to the LAST FIRST form of the
	// right student; measuring only FIRST LAST would pick the other one.
	mustMatch(t, m, "Puig Vidal Puig Anna", "Anna", "Puig Vidal")
}

func TestMatchFuzzyTokens(t *testing.T) {
	m := NewMatcher(testRoster())

	// Typo inside one token, second token anchors the match.
	mustMatch(t, m, "Ana Puig", "Anna", "Puig Vidal")
}

func TestMatchSingleFirstName(t *testing.T) {
	m := NewMatcher(testRoster())

	// Unique first name resolves on its own.
	mustMatch(t, m, "Eiden", "Eiden", "Guerrero Caldas")
	// Two students named Pol: a bare first name stays unresolved.
	mustNotMatch(t, m, "Pol")
}

func TestMatchNoMatch(t *testing.T) {
	m := NewMatcher(testRoster())

	mustNotMatch(t, m, "Completely Unknown Person")
	mustNotMatch(t, m, "")
	mustNotMatch(t, m, "***")
}
