package rubric

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Criterion weights. Every scorer's band table tops out at its weight, so the
// weights are not configurable. They sum to 90: a perfect transcript scores
// 90 on the 0 to 100 scale.
const (
	WeightSalutation = 5
	WeightKeywords   = 20
	WeightFlow       = 5
	WeightRate       = 10
	WeightGrammar    = 15
	WeightVocabulary = 15
	WeightFiller     = 10
	WeightSentiment  = 10
)

// maxBonusPoints caps the flat credit earned from bonus categories.
const maxBonusPoints = 5

// Criterion labels in canonical report order.
const (
	CriterionSalutation = "Salutation"
	CriterionKeywords   = "Content & Keywords"
	CriterionFlow       = "Flow & Structure"
	CriterionRate       = "Speech Rate"
	CriterionGrammar    = "Grammar & Language"
	CriterionVocabulary = "Vocabulary Richness"
	CriterionFiller     = "Clarity (Filler Words)"
	CriterionSentiment  = "Engagement & Positivity"
)

// Criteria lists every criterion label with its weight in report order.
var Criteria = []CriterionWeight{
	{CriterionSalutation, WeightSalutation},
	{CriterionKeywords, WeightKeywords},
	{CriterionFlow, WeightFlow},
	{CriterionRate, WeightRate},
	{CriterionGrammar, WeightGrammar},
	{CriterionVocabulary, WeightVocabulary},
	{CriterionFiller, WeightFiller},
	{CriterionSentiment, WeightSentiment},
}

// Category is a named topic and the phrases that reveal it in a transcript.
// A category matches when any phrase occurs as a case-insensitive substring.
type Category struct {
	Name    string   `json:"name" yaml:"name"`
	Phrases []string `json:"phrases" yaml:"phrases"`
}

// Lexicon holds every phrase table the scorers consult. Category order is
// significant: matched categories are reported in declaration order.
type Lexicon struct {
	// MustHave are the topics a complete self-introduction is expected to cover.
	MustHave []Category `json:"must_have" yaml:"must_have"`

	// Bonus are optional topics that add flat credit on top of MustHave coverage.
	Bonus []Category `json:"bonus" yaml:"bonus"`

	// Fillers are matched as whole space-delimited words or phrases.
	Fillers []string `json:"fillers" yaml:"fillers"`

	// Salutation tiers, tested in this order against the opening.
	Enthusiastic []string `json:"enthusiastic" yaml:"enthusiastic"`
	Formal       []string `json:"formal" yaml:"formal"`
	Casual       []string `json:"casual" yaml:"casual"`

	// SelfIntroductions mark a speaker identifying themself early on.
	SelfIntroductions []string `json:"self_introductions" yaml:"self_introductions"`

	// Closings mark a proper sign-off in the final sentence.
	Closings []string `json:"closings" yaml:"closings"`
}

// DefaultLexicon returns the stock rubric tables.
func DefaultLexicon() Lexicon {
	return Lexicon{
		MustHave: []Category{
			{Name: "name", Phrases: []string{"name", "myself", "i am", "i'm", "call me"}},
			{Name: "age", Phrases: []string{"age", "years old", "year old"}},
			{Name: "school", Phrases: []string{"school", "studying", "student"}},
			{Name: "class", Phrases: []string{"class", "grade", "standard", "section"}},
			{Name: "family", Phrases: []string{"family", "father", "mother", "parents", "brother", "sister"}},
			{Name: "hobbies", Phrases: []string{"hobby", "hobbies", "enjoy", "like", "love", "interest", "favorite", "favourite", "play"}},
		},
		Bonus: []Category{
			{Name: "family_details", Phrases: []string{"kind", "caring", "loving", "supportive"}},
			{Name: "location", Phrases: []string{"from", "live in", "belong"}},
			{Name: "goals", Phrases: []string{"ambition", "goal", "dream", "want to", "aspire", "hope"}},
			{Name: "unique", Phrases: []string{"fun fact", "special", "unique", "interesting"}},
			{Name: "achievements", Phrases: []string{"achievement", "award", "won", "proud"}},
		},
		Fillers: []string{
			"um", "uh", "like", "you know", "so", "actually", "basically", "right",
			"i mean", "well", "kinda", "sort of", "okay", "hmm", "ah",
		},
		Enthusiastic:      []string{"i am excited", "feeling great", "pleased to introduce"},
		Formal:            []string{"good morning", "good afternoon", "good evening", "good day", "hello everyone", "greetings"},
		Casual:            []string{"hi", "hello", "hey"},
		SelfIntroductions: []string{"name", "myself", "i am"},
		Closings:          []string{"thank", "thanks", "listening", "attention"},
	}
}

// Merge returns a copy of l where every non-empty table of override replaces
// the corresponding table of l.
func (l Lexicon) Merge(override Lexicon) Lexicon {
	out := l.Clone()
	pick := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = slices.Clone(src)
		}
	}
	if len(override.MustHave) > 0 {
		out.MustHave = cloneCategories(override.MustHave)
	}
	if len(override.Bonus) > 0 {
		out.Bonus = cloneCategories(override.Bonus)
	}
	pick(&out.Fillers, override.Fillers)
	pick(&out.Enthusiastic, override.Enthusiastic)
	pick(&out.Formal, override.Formal)
	pick(&out.Casual, override.Casual)
	pick(&out.SelfIntroductions, override.SelfIntroductions)
	pick(&out.Closings, override.Closings)
	return out
}

// Clone returns a deep copy of l.
func (l Lexicon) Clone() Lexicon {
	return Lexicon{
		MustHave:          cloneCategories(l.MustHave),
		Bonus:             cloneCategories(l.Bonus),
		Fillers:           slices.Clone(l.Fillers),
		Enthusiastic:      slices.Clone(l.Enthusiastic),
		Formal:            slices.Clone(l.Formal),
		Casual:            slices.Clone(l.Casual),
		SelfIntroductions: slices.Clone(l.SelfIntroductions),
		Closings:          slices.Clone(l.Closings),
	}
}

// Validate reports every structural problem in l. MustHave must not be empty
// because keyword credit is divided across its categories.
func (l Lexicon) Validate() error {
	var errs []error
	if len(l.MustHave) == 0 {
		errs = append(errs, errors.New("must_have needs at least one category"))
	}
	errs = append(errs, validateCategories("must_have", l.MustHave)...)
	errs = append(errs, validateCategories("bonus", l.Bonus)...)

	tables := []struct {
		name    string
		phrases []string
	}{
		{"fillers", l.Fillers},
		{"enthusiastic", l.Enthusiastic},
		{"formal", l.Formal},
		{"casual", l.Casual},
		{"self_introductions", l.SelfIntroductions},
		{"closings", l.Closings},
	}
	for _, t := range tables {
		for i, p := range t.phrases {
			if strings.TrimSpace(p) == "" {
				errs = append(errs, fmt.Errorf("%s[%d] is blank", t.name, i))
			}
		}
	}
	return errors.Join(errs...)
}

func validateCategories(field string, cats []Category) []error {
	var errs []error
	seen := make(map[string]int, len(cats))
	for i, c := range cats {
		prefix := fmt.Sprintf("%s[%d]", field, i)
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else if prev, ok := seen[c.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q duplicates %s[%d]", prefix, c.Name, field, prev))
		} else {
			seen[c.Name] = i
		}
		if len(c.Phrases) == 0 {
			errs = append(errs, fmt.Errorf("%s.phrases must not be empty", prefix))
		}
		for j, p := range c.Phrases {
			if strings.TrimSpace(p) == "" {
				errs = append(errs, fmt.Errorf("%s.phrases[%d] is blank", prefix, j))
			}
		}
	}
	return errs
}

func cloneCategories(cats []Category) []Category {
	if cats == nil {
		return nil
	}
	return lo.Map(cats, func(c Category, _ int) Category {
		return Category{Name: c.Name, Phrases: slices.Clone(c.Phrases)}
	})
}

// containsAny reports whether lowered contains any of phrases. lowered must
// already be lowercase; phrases are lowered here.
func containsAny(lowered string, phrases []string) bool {
	return slices.ContainsFunc(phrases, func(p string) bool {
		return strings.Contains(lowered, strings.ToLower(p))
	})
}

// ContainsAny reports whether text contains any of phrases, ignoring case.
func ContainsAny(text string, phrases []string) bool {
	return containsAny(strings.ToLower(text), phrases)
}
