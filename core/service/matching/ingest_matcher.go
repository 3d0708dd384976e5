package matching

import (
	"strings"

	"ingest_server/core/domain"
)

// maxGlobalDistance bounds whole-name edit distance for a direct fuzzy hit.
const maxGlobalDistance = 3

// manualNameMap pins historically problematic sheet names to the full
// roster name they mean. Keys and values are normalized forms. These are
// names the automatic cascade gets wrong or cannot resolve (nicknames,
// transposed surnames, chronic typos).
var manualNameMap = map[string]string{
	"ZAIF":                "SAIF DIN BERAADI MARCHAN",
	"AYA":                 "AYA AHDOR OULAD CHAIB",
	"WALID":               "WALID IBN OMAR SENDI",
	"ASHLYJHOANA DUARTE":  "ASHLY JHOANA DUARTE HERNANDEZ",
	"DUARTE ASHLYJHOANA":  "ASHLY JHOANA DUARTE HERNANDEZ",
	"LIAM JOSUE DELGADO":  "LIAM JOSE DELGADO NEIRA",
	"EIDEN GUERREO":       "EIDEN GUERRERO CALDAS",
	"ENZO AARON GUERREO":  "ENZO AARON GUERRERO ALFONSO",
	"BENSLAIMAN IBRAHIM":  "IBRAHIM BEN SLAIMAN JEBARI",
	"IBRAHIM BENSLAIMAN":  "IBRAHIM BEN SLAIMAN JEBARI",
	"ISMAEL BENSLAIMAN":   "ISMAEL BEN SLAIMAN JEBARI",
	"ISMAEL BENSALIMAN":   "ISMAEL BEN SLAIMAN JEBARI",
	"ROMERO A KIMBERLY":   "KIMBERLY ANDREA ROMERO LEON",
	"KIMBERLY ROMERO":     "KIMBERLY ANDREA ROMERO LEON",
	"AHDOR ABDEL":         "ABDEL BASSET AHDOR",
	"ABDEL AHDOR":         "ABDEL BASSET AHDOR",
}

type entry struct {
	student           *domain.Student
	normalized        string // "FIRST LAST"
	normalizedReverse string // "LAST FIRST"
	normalizedFirst   string
	tokens            []string
	tokenSet          map[string]bool
}

// Matcher resolves raw sheet names against a fixed roster snapshot. Build
// one per import; the index is immutable after construction.
type Matcher struct {
	entries []*entry
}

// NewMatcher indexes the given roster for matching.
func NewMatcher(students []*domain.Student) *Matcher {
	m := &Matcher{entries: make([]*entry, 0, len(students))}
	for _, s := range students {
		norm := Normalize(s.FirstName + " " + s.LastName)
		e := &entry{
			student:           s,
			normalized:        norm,
			normalizedReverse: Normalize(s.LastName + " " + s.FirstName),
			normalizedFirst:   Normalize(s.FirstName),
			tokens:            TokenizeForMatching(norm),
		}
		e.tokenSet = make(map[string]bool, len(e.tokens))
		for _, t := range e.tokens {
			e.tokenSet[t] = true
		}
		m.entries = append(m.entries, e)
	}
	return m
}

// Match resolves a raw sheet name to a roster student. The cascade runs
// from strictest to loosest; the first layer that produces a result wins.
func (m *Matcher) Match(rawName string) (*domain.Student, bool) {
	clean := CleanName(rawName)
	if clean == "" {
		return nil, false
	}

	swapped := NormalizeCommaFormat(clean)
	norm := Normalize(swapped)
	normPreSwap := Normalize(clean)
	if norm == "" {
		return nil, false
	}

	if s := m.manualOverride(norm, normPreSwap); s != nil {
		return s, true
	}
	if s := m.exact(norm); s != nil {
		return s, true
	}
	if s := m.globalFuzzy(norm); s != nil {
		return s, true
	}

	queryTokens := TokenizeForMatching(norm)
	if s := m.tokenSubset(norm, queryTokens, false); s != nil {
		return s, true
	}
	if s := m.tokenSubset(norm, queryTokens, true); s != nil {
		return s, true
	}
	if s := m.singleFirstName(norm); s != nil {
		return s, true
	}

	return nil, false
}

// manualOverride checks the pinned map under both the comma-swapped and
// the as-written normalized forms.
func (m *Matcher) manualOverride(norm, normPreSwap string) *domain.Student {
	target, ok := manualNameMap[norm]
	if !ok {
		target, ok = manualNameMap[normPreSwap]
	}
	if !ok {
		return nil
	}
	normTarget := Normalize(target)
	for _, e := range m.entries {
		if e.normalizedReverse == normTarget || e.normalized == normTarget {
			return e.student
		}
	}
	return nil
}

func (m *Matcher) exact(norm string) *domain.Student {
	for _, e := range m.entries {
		if e.normalized == norm || e.normalizedReverse == norm {
			return e.student
		}
	}
	return nil
}

// globalFuzzy accepts the roster entry with the smallest whole-name edit
// distance, when that distance is small enough to be a typo.
func (m *Matcher) globalFuzzy(norm string) *domain.Student {
	var best *entry
	bestDist := maxGlobalDistance + 1
	for _, e := range m.entries {
		d := Levenshtein(norm, e.normalized)
		if rd := Levenshtein(norm, e.normalizedReverse); rd < d {
			d = rd
		}
		if d < bestDist {
			bestDist = d
			best = e
		}
	}
	if best != nil && bestDist <= maxGlobalDistance {
		return best.student
	}
	return nil
}

// tokenSubset matches when every query token appears among an entry's
// tokens. In fuzzy mode a token also counts when it is one edit away and
// at least three letters long, and at least two query tokens are required
// to keep loose single-token hits out.
func (m *Matcher) tokenSubset(norm string, queryTokens []string, fuzzy bool) *domain.Student {
	if len(queryTokens) == 0 {
		return nil
	}
	if fuzzy && len(queryTokens) < 2 {
		return nil
	}

	var candidates []*entry
	for _, e := range m.entries {
		if coversAll(e, queryTokens, fuzzy) {
			candidates = append(candidates, e)
		}
	}

	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0].student
	}

	// Ambiguous: prefer the candidate closest to the full query string,
	// in either name order. A tie means the query genuinely cannot tell
	// the candidates apart, so fall through to the next layer.
	var best *entry
	bestDist := -1
	tied := false
	for _, e := range candidates {
		d := Levenshtein(norm, e.normalized)
		if rd := Levenshtein(norm, e.normalizedReverse); rd < d {
			d = rd
		}
		switch {
		case bestDist < 0 || d < bestDist:
			bestDist = d
			best = e
			tied = false
		case d == bestDist:
			tied = true
		}
	}
	if tied {
		return nil
	}
	return best.student
}

func coversAll(e *entry, queryTokens []string, fuzzy bool) bool {
	for _, qt := range queryTokens {
		if e.tokenSet[qt] {
			continue
		}
		if !fuzzy {
			return false
		}
		matched := false
		for _, et := range e.tokens {
			if len(qt) >= 3 && Levenshtein(qt, et) <= 1 {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// singleFirstName resolves a bare first name only when exactly one active
// student carries it.
func (m *Matcher) singleFirstName(norm string) *domain.Student {
	if strings.Contains(norm, " ") {
		return nil
	}
	var found *entry
	for _, e := range m.entries {
		if e.normalizedFirst == norm {
			if found != nil {
				return nil
			}
			found = e
		}
	}
	if found == nil {
		return nil
	}
	return found.student
}
