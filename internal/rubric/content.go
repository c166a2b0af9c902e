package rubric

import (
	"fmt"
	"strings"
)

// Salutation scores the greeting found in the first two '.'-segments of
// text. Enthusiastic and formal openings earn full marks, a casual hi/hello
// earns 4 and no greeting earns 2.
func Salutation(text string, lex *Lexicon) CriterionResult {
	segments := strings.Split(text, ".")
	opening := strings.ToLower(strings.Join(segments[:min(2, len(segments))], ". "))

	switch {
	case containsAny(opening, lex.Enthusiastic):
		return newResult(CriterionSalutation, WeightSalutation, 5, "Excellent salutation - enthusiastic")
	case containsAny(opening, lex.Formal):
		return newResult(CriterionSalutation, WeightSalutation, 5, "Proper greeting")
	case containsAny(opening, lex.Casual):
		return newResult(CriterionSalutation, WeightSalutation, 4, "Basic greeting")
	default:
		return newResult(CriterionSalutation, WeightSalutation, 2, "Started directly")
	}
}

// Keywords scores topic coverage. Each must-have category is worth an equal
// share of the criterion; each bonus category adds one flat point, up to
// five. Bonus points can fill a gap in must-have coverage but the total never
// exceeds the criterion weight.
func Keywords(text string, must, bonus *Matcher) CriterionResult {
	foundMust := must.Matched(text)
	foundBonus := bonus.Matched(text)

	perCategory := float64(WeightKeywords) / float64(max(1, len(must.names)))
	mustPoints := min(float64(len(foundMust))*perCategory, WeightKeywords)
	bonusPoints := float64(min(len(foundBonus), maxBonusPoints))
	total := min(mustPoints+bonusPoints, WeightKeywords)

	feedback := fmt.Sprintf("Found must-have: %s; good extras: %s", listOrNone(foundMust), listOrNone(foundBonus))
	return newResult(CriterionKeywords, WeightKeywords, total, feedback)
}

// Flow scores structure: an early self-introduction (2), at least four
// sentences of body (2) and a closing in the final sentence (1).
func Flow(text string, lex *Lexicon) CriterionResult {
	sentences := Sentences(text)

	nameEarly := false
	for _, s := range sentences[:min(2, len(sentences))] {
		if containsAny(strings.ToLower(s), lex.SelfIntroductions) {
			nameEarly = true
			break
		}
	}
	hasMiddle := len(sentences) >= 4
	hasClosing := len(sentences) > 0 && containsAny(strings.ToLower(sentences[len(sentences)-1]), lex.Closings)

	var (
		points float64
		labels []string
	)
	if nameEarly {
		points += 2
		labels = append(labels, "good opening")
	}
	if hasMiddle {
		points += 2
		labels = append(labels, "middle content")
	}
	if hasClosing {
		points++
		labels = append(labels, "closing")
	}

	feedback := "Basic flow"
	if len(labels) > 0 {
		feedback = strings.Join(labels, ", ")
	}
	return newResult(CriterionFlow, WeightFlow, points, feedback)
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
