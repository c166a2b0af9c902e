package rubric

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// Grammar heuristics. These are coarse proxies, not a parser: the lowercase
// "i" pattern also fires on ordinary text, and the band table is calibrated
// around that behaviour.
var (
	lowercaseIPattern     = regexp.MustCompile(`\s+i\s+[a-z]`)
	lowercaseStartPattern = regexp.MustCompile(`[.!?]\s+[a-z]`)
	fragmentSplitPattern  = regexp.MustCompile(`[.!?]+`)
)

// grammarPenalty is the tally added per heuristic hit.
const grammarPenalty = 0.5

// Grammar scores language quality by heuristic issues per 100 words: a
// lowercase standalone "i", a lowercase letter after sentence punctuation and
// single-word fragments each add half an issue.
func Grammar(text string) CriterionResult {
	issues := grammarPenalty * float64(len(lowercaseIPattern.FindAllStringIndex(text, -1)))
	issues += grammarPenalty * float64(len(lowercaseStartPattern.FindAllStringIndex(text, -1)))
	for _, fragment := range fragmentSplitPattern.Split(text, -1) {
		if len(strings.Fields(fragment)) == 1 {
			issues += grammarPenalty
		}
	}

	per100 := issues / float64(max(1, WordCount(text))) * 100
	switch {
	case per100 < 1:
		return newResult(CriterionGrammar, WeightGrammar, 15, "Very few grammar issues")
	case per100 < 2:
		return newResult(CriterionGrammar, WeightGrammar, 13, "Minor grammar issues")
	case per100 < 3:
		return newResult(CriterionGrammar, WeightGrammar, 11, "Some grammar issues")
	case per100 < 5:
		return newResult(CriterionGrammar, WeightGrammar, 9, "Multiple grammar issues")
	default:
		return newResult(CriterionGrammar, WeightGrammar, 7, "Needs grammar improvement")
	}
}

// Vocabulary scores lexical diversity by type-token ratio over purely
// alphabetic words. Tokens touching digits or non-ASCII letters ("8th",
// "café") are excluded; "don't" yields "don" and "t".
func Vocabulary(text string) CriterionResult {
	words := lo.Filter(wordRuns(strings.ToLower(text)), func(w string, _ int) bool {
		return isASCIILower(w)
	})
	if len(words) == 0 {
		return newResult(CriterionVocabulary, WeightVocabulary, 0, "No words")
	}

	unique := len(lo.Uniq(words))
	total := len(words)
	ttr := float64(unique) / float64(total)

	var (
		score float64
		label string
	)
	switch {
	case ttr >= 0.75:
		score, label = 15, "Excellent"
	case ttr >= 0.65:
		score, label = 13, "Very Good"
	case ttr >= 0.55:
		score, label = 11, "Good"
	case ttr >= 0.45:
		score, label = 9, "Fair"
	default:
		score, label = 7, "Basic"
	}
	return newResult(CriterionVocabulary, WeightVocabulary, score, fmt.Sprintf("%s - TTR %.2f (%d/%d)", label, ttr, unique, total))
}
