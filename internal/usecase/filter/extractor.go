// Package filter turns free-text questions into structured retrieval filters.
package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/filter"
	"github.com/kailas-cloud/portfolio-rag/internal/vocabulary"
)

type countryRule struct {
	canonical string
	phrases   vocabulary.PhraseSet
}

type criticalityRule struct {
	tier    filter.Criticality
	phrases vocabulary.PhraseSet
}

type statusRule struct {
	status  filter.Status
	phrases vocabulary.PhraseSet
}

type deployRule struct {
	deploy  filter.Deploy
	phrases vocabulary.PhraseSet
}

// Extractor applies the vocabulary cascades in a fixed order.
// It is read-only after construction and safe for concurrent use.
type Extractor struct {
	leads        vocabulary.PhraseSet
	maxNameWords int
	numeric      vocabulary.PhraseSet
	table        vocabulary.PhraseSet
	diagram      vocabulary.PhraseSet
	comparison   vocabulary.PhraseSet
	countries    []countryRule
	criticality  []criticalityRule
	active       vocabulary.PhraseSet
	statuses     []statusRule
	drp          vocabulary.PhraseSet
	strategic    vocabulary.PhraseSet
	deploys      []deployRule
}

// NewExtractor compiles the vocabulary tables.
func NewExtractor(v vocabulary.Vocabulary) *Extractor {
	e := &Extractor{
		leads:        vocabulary.NewPhraseSet(v.ExactNameLeads),
		maxNameWords: v.ExactNameMaxWords,
		numeric:      vocabulary.NewPhraseSet(v.NumericWords),
		table:        vocabulary.NewPhraseSet(v.TableWords),
		diagram:      vocabulary.NewPhraseSet(v.DiagramWords),
		comparison:   vocabulary.NewPhraseSet(v.ComparisonWords),
		active:       vocabulary.NewPhraseSet(v.ActivePhrases),
		drp:          vocabulary.NewPhraseSet(v.DRPPhrases),
		strategic:    vocabulary.NewPhraseSet(v.StrategicPhrases),
	}
	if e.maxNameWords < 1 {
		e.maxNameWords = 5
	}
	for _, c := range v.Countries {
		phrases := append([]string{c.Canonical}, c.Aliases...)
		e.countries = append(e.countries, countryRule{canonical: c.Canonical, phrases: vocabulary.NewPhraseSet(phrases)})
	}
	for _, r := range v.Criticality {
		e.criticality = append(e.criticality, criticalityRule{tier: r.Tier, phrases: vocabulary.NewPhraseSet(r.Phrases)})
	}
	for _, r := range v.Statuses {
		e.statuses = append(e.statuses, statusRule{status: r.Status, phrases: vocabulary.NewPhraseSet(r.Phrases)})
	}
	for _, r := range v.Deploys {
		e.deploys = append(e.deploys, deployRule{deploy: r.Deploy, phrases: vocabulary.NewPhraseSet(r.Phrases)})
	}
	return e
}

// Extract parses the question. Each category yields at most one canonical value;
// within a category the first matching rule wins.
func (e *Extractor) Extract(question string) filter.Set {
	tokens := vocabulary.Tokens(question)
	var s filter.Set

	s.ExactName = e.exactName(question)
	s.IsNumerical = e.numeric.Match(tokens)
	s.Visual = filter.VisualIntent{
		WantsTable:      e.table.Match(tokens),
		WantsDiagram:    e.diagram.Match(tokens),
		WantsComparison: e.comparison.Match(tokens),
	}

	for _, c := range e.countries {
		if c.phrases.Match(tokens) {
			s.Country = c.canonical
			break
		}
	}
	// "muy crítica" contains "crítica": the cascade order is what keeps VeryHigh from being shadowed.
	for _, r := range e.criticality {
		if r.phrases.Match(tokens) {
			s.Criticality = r.tier
			break
		}
	}
	if e.active.Match(tokens) {
		s.IsActive = true
	} else {
		for _, r := range e.statuses {
			if r.phrases.Match(tokens) {
				s.Status = r.status
				break
			}
		}
	}
	s.HasDRP = e.drp.Match(tokens)
	s.IsStrategic = e.strategic.Match(tokens)
	for _, r := range e.deploys {
		if r.phrases.Match(tokens) {
			s.Deploy = r.deploy
			break
		}
	}
	return s
}

const namePunctuation = "¿?¡!.,;:\"'()[]{}"

var articles = map[string]bool{
	"el": true, "la": true, "los": true, "las": true, "un": true, "una": true,
	"the": true, "a": true, "an": true,
}

// nameBreaks end an exact-name capture: "qué es SAP en Colombia" names "SAP".
// "de" and "y" stay out: they occur inside names ("Portal de Clientes").
var nameBreaks = map[string]bool{
	"en": true, "para": true, "con": true, "por": true, "desde": true,
	"in": true, "for": true, "with": true, "from": true,
}

// exactName finds "<lead> <name>" and returns the case-normalized name.
// Works on raw words so the original casing of acronyms survives.
func (e *Extractor) exactName(question string) string {
	raw := strings.Fields(question)
	folded := make([]string, len(raw))
	for i, w := range raw {
		folded[i] = vocabulary.Fold(strings.Trim(w, namePunctuation))
	}

	start, ok := e.leads.Find(folded)
	if !ok {
		return ""
	}
	for start < len(raw) && articles[folded[start]] {
		start++
	}

	var name []string
	for i := start; i < len(raw) && len(name) < e.maxNameWords; i++ {
		if len(name) > 0 && (nameBreaks[folded[i]] || e.isCountry(folded[i:])) {
			break
		}
		w := strings.Trim(raw[i], namePunctuation)
		if w != "" {
			name = append(name, normalizeWord(w))
		}
		if strings.ContainsAny(raw[i], "?.!") {
			break
		}
	}
	return strings.Join(name, " ")
}

func (e *Extractor) isCountry(words []string) bool {
	for _, c := range e.countries {
		if c.phrases.MatchPrefix(words) {
			return true
		}
	}
	return false
}

// normalizeWord upper-cases acronyms (all caps or up to 3 runes) and title-cases the rest.
func normalizeWord(w string) string {
	if utf8.RuneCountInString(w) <= 3 || isAllCaps(w) {
		return strings.ToUpper(w)
	}
	r := []rune(strings.ToLower(w))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func isAllCaps(w string) bool {
	hasLetter := false
	for _, r := range w {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}
