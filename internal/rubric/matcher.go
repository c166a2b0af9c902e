package rubric

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Matcher finds which categories of an ordered category list occur in a
// text. All phrases of all categories are compiled into one Aho-Corasick
// automaton, so a text is scanned once regardless of lexicon size.
//
// Matching is plain case-insensitive substring search: "class" matches inside
// "classical". A Matcher is read-only after construction and safe for
// concurrent use.
type Matcher struct {
	names   []string
	owners  map[string][]int // lowered phrase -> indexes into names
	machine *goahocorasick.Machine
	maxRune rune
}

// NewMatcher compiles categories into a Matcher. Blank phrases are ignored;
// a phrase shared by several categories credits all of them.
func NewMatcher(categories []Category) (*Matcher, error) {
	m := &Matcher{
		names:  lo.Map(categories, func(c Category, _ int) string { return c.Name }),
		owners: make(map[string][]int),
	}
	for i, c := range categories {
		for _, p := range c.Phrases {
			key := strings.ToLower(p)
			if strings.TrimSpace(key) == "" {
				continue
			}
			if !slices.Contains(m.owners[key], i) {
				m.owners[key] = append(m.owners[key], i)
			}
		}
	}
	if len(m.owners) == 0 {
		return m, nil
	}

	keys := slices.Sorted(maps.Keys(m.owners))
	patterns := make([][]rune, len(keys))
	for i, k := range keys {
		patterns[i] = []rune(k)
		m.maxRune = max(m.maxRune, slices.Max(patterns[i]))
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, fmt.Errorf("rubric: build matcher: %w", err)
	}
	m.machine = machine
	return m, nil
}

// Names returns the category names in declaration order.
func (m *Matcher) Names() []string {
	return slices.Clone(m.names)
}

// Matched returns the names of the categories with at least one phrase
// occurring in text, in declaration order. Each category appears at most once.
func (m *Matcher) Matched(text string) []string {
	out := []string{}
	if m.machine == nil || text == "" {
		return out
	}

	hit := make([]bool, len(m.names))
	for _, chunk := range m.chunks([]rune(strings.ToLower(text))) {
		for _, term := range m.machine.MultiPatternSearch(chunk, false) {
			for _, idx := range m.owners[string(term.Word)] {
				hit[idx] = true
			}
		}
	}
	for i, ok := range hit {
		if ok {
			out = append(out, m.names[i])
		}
	}
	return out
}

// chunks splits content around runes outside the automaton's alphabet. Such
// runes can never be part of a match.
func (m *Matcher) chunks(content []rune) [][]rune {
	var out [][]rune
	start := 0
	for i, r := range content {
		if r > m.maxRune {
			if i > start {
				out = append(out, content[start:i])
			}
			start = i + 1
		}
	}
	if start < len(content) {
		out = append(out, content[start:])
	}
	return out
}
