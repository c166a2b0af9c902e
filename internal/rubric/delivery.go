package rubric

import (
	"fmt"
	"math"
	"strings"
)

// SpeechRate scores pacing in words per minute. The ideal band is 100-150
// WPM; the bands around it are deliberately asymmetric. A non-positive (or
// NaN) duration means the duration is unknown and yields a neutral 8.
func SpeechRate(text string, durationSeconds float64) CriterionResult {
	if durationSeconds <= 0 || math.IsNaN(durationSeconds) {
		return newResult(CriterionRate, WeightRate, 8, "Duration not provided")
	}

	wpm := float64(WordCount(text)) / durationSeconds * 60
	switch {
	case wpm >= 100 && wpm <= 150:
		return newResult(CriterionRate, WeightRate, 10, fmt.Sprintf("Excellent speech rate: %.1f WPM", wpm))
	case (wpm >= 80 && wpm < 100) || (wpm > 150 && wpm <= 170):
		return newResult(CriterionRate, WeightRate, 8, fmt.Sprintf("Good speech rate: %.1f WPM", wpm))
	case (wpm >= 60 && wpm < 80) || (wpm > 170 && wpm <= 190):
		return newResult(CriterionRate, WeightRate, 6, fmt.Sprintf("Acceptable speech rate: %.1f WPM", wpm))
	default:
		return newResult(CriterionRate, WeightRate, 4, fmt.Sprintf("Speech rate: %.1f WPM (consider adjusting pace)", wpm))
	}
}

// Fillers scores clarity by the share of filler words. Fillers are counted
// as space-delimited whole words or phrases, so "um" never matches inside
// "umbrella" and fillers glued to punctuation are not counted. Text without
// any word characters yields a neutral 8.
func Fillers(text string, fillers []string) CriterionResult {
	lowered := strings.ToLower(text)
	total := len(wordRuns(lowered))
	if total == 0 {
		return newResult(CriterionFiller, WeightFiller, 8, "No words")
	}

	padded := " " + lowered + " "
	count := 0
	for _, f := range fillers {
		count += countPadded(padded, strings.ToLower(f))
	}

	rate := float64(count) / float64(total) * 100
	var (
		score float64
		label string
	)
	switch {
	case rate < 1:
		score, label = 10, "Excellent"
	case rate < 2:
		score, label = 9, "Very Good"
	case rate < 3:
		score, label = 8, "Good"
	case rate < 5:
		score, label = 6, "Fair"
	default:
		score, label = 4, "Needs improvement"
	}
	return newResult(CriterionFiller, WeightFiller, score, fmt.Sprintf("%s - filler %.1f%% (%d)", label, rate, count))
}

// countPadded counts occurrences of " "+phrase+" " in padded. Adjacent
// occurrences share their separating space, so "um um um" counts three times.
func countPadded(padded, phrase string) int {
	needle := " " + phrase + " "
	n := 0
	for i := 0; ; {
		j := strings.Index(padded[i:], needle)
		if j < 0 {
			return n
		}
		n++
		i += j + len(needle) - 1
	}
}
