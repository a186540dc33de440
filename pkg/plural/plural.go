// Package plural resolves singular/plural markers such as "la(s)" or
// "cuestión(es)" in rendered text once the number of items is known.
package plural

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Marker is a literal pattern and its two replacements.
type Marker struct {
	Pattern  string `json:"pattern"  jsonschema:"title=Pattern"  validate:"required" yaml:"pattern"`
	Singular string `json:"singular" jsonschema:"title=Singular"                     yaml:"singular"`
	Plural   string `json:"plural"   jsonschema:"title=Plural"                       yaml:"plural"`
}

// DefaultMarkers are the markers used by [Pluralize]. Capitalized variants
// are derived automatically.
var DefaultMarkers = []Marker{
	{Pattern: "la(s)", Singular: "la", Plural: "las"},
	{Pattern: "descrita(s)", Singular: "descrita", Plural: "descritas"},
	{Pattern: "indicada(s)", Singular: "indicada", Plural: "indicadas"},
	{Pattern: "cuestión(es)", Singular: "cuestión", Plural: "cuestiones"},
	{Pattern: "incorrección(es)", Singular: "incorrección", Plural: "incorrecciones"},
	{Pattern: "limitación(es)", Singular: "limitación", Plural: "limitaciones"},
	{Pattern: "material(es)", Singular: "material", Plural: "materiales"},
	{Pattern: "una/varias", Singular: "una", Plural: "varias"},
}

var defaultTransformer = New(DefaultMarkers...)

// Pluralize rewrites the [DefaultMarkers] in text for n items.
func Pluralize(text string, n int) string {
	return defaultTransformer.Pluralize(text, n)
}

// Transformer rewrites a fixed set of markers. It is safe for concurrent use.
type Transformer struct {
	re      *regexp.Regexp
	markers map[string]Marker
}

// New creates a [Transformer] for markers and their capitalized variants.
// Patterns must not overlap one another.
func New(markers ...Marker) *Transformer {
	upper := cases.Upper(language.Spanish)

	t := &Transformer{markers: make(map[string]Marker, 2*len(markers))}

	for _, m := range markers {
		m = Marker{
			Pattern:  norm.NFC.String(m.Pattern),
			Singular: norm.NFC.String(m.Singular),
			Plural:   norm.NFC.String(m.Plural),
		}
		t.add(m)
		t.add(Marker{
			Pattern:  capitalize(upper, m.Pattern),
			Singular: capitalize(upper, m.Singular),
			Plural:   capitalize(upper, m.Plural),
		})
	}

	patterns := make([]string, 0, len(t.markers))
	for p := range t.markers {
		patterns = append(patterns, p)
	}

	// Longest first, so that the leftmost match is also the longest.
	sort.Slice(patterns, func(i, j int) bool {
		if len(patterns[i]) != len(patterns[j]) {
			return len(patterns[i]) > len(patterns[j])
		}

		return patterns[i] < patterns[j]
	})

	quoted := make([]string, len(patterns))
	for i, p := range patterns {
		quoted[i] = regexp.QuoteMeta(p)
	}

	if len(quoted) > 0 {
		t.re = regexp.MustCompile(strings.Join(quoted, "|"))
	}

	return t
}

// add registers m under its composed and decomposed spellings. An existing
// pattern is kept.
func (t *Transformer) add(m Marker) {
	for _, pattern := range []string{m.Pattern, norm.NFD.String(m.Pattern)} {
		if _, ok := t.markers[pattern]; !ok {
			t.markers[pattern] = m
		}
	}
}

// Contains reports whether text holds at least one marker.
func (t *Transformer) Contains(text string) bool {
	if t.re == nil {
		return false
	}

	for _, loc := range t.re.FindAllStringIndex(text, -1) {
		if bounded(text, loc[0], loc[1]) {
			return true
		}
	}

	return false
}

// Pluralize replaces every marker in text with its singular form when n <= 1
// and its plural form otherwise. Markers only match at word boundaries, in
// either composed or decomposed form, and are replaced by composed text. The
// rest of text is kept byte for byte.
func (t *Transformer) Pluralize(text string, n int) string {
	if t.re == nil {
		return text
	}

	locs := t.re.FindAllStringIndex(text, -1)

	var sb strings.Builder

	last := 0

	for _, loc := range locs {
		if !bounded(text, loc[0], loc[1]) {
			continue
		}

		m := t.markers[text[loc[0]:loc[1]]]

		sb.WriteString(text[last:loc[0]])

		if n > 1 {
			sb.WriteString(m.Plural)
		} else {
			sb.WriteString(m.Singular)
		}

		last = loc[1]
	}

	if last == 0 {
		return text
	}

	sb.WriteString(text[last:])

	return sb.String()
}

// bounded reports whether text[start:end] is not part of a longer word.
// A side of the match that is punctuation needs no boundary.
func bounded(text string, start, end int) bool {
	first, _ := utf8.DecodeRuneInString(text[start:])
	if isWord(first) && start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWord(r) {
			return false
		}
	}

	lastRune, _ := utf8.DecodeLastRuneInString(text[:end])
	if isWord(lastRune) && end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWord(r) {
			return false
		}
	}

	return true
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func capitalize(c cases.Caser, s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return c.String(string(r)) + s[size:]
}
