// Package render writes scoring results for terminals and pipelines: an
// aligned table with grade colouring, JSON, or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/MrWong99/introscore/internal/batch"
	"github.com/MrWong99/introscore/internal/rubric"
	"github.com/MrWong99/introscore/internal/scoring"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists every supported format.
var Formats = []Format{FormatTable, FormatJSON, FormatYAML}

// ParseFormat parses s case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("render: unknown format %q (want table, json or yaml)", s)
}

// Renderer writes results in one format.
type Renderer struct {
	Format Format

	// Color enables ANSI grade colouring in table output.
	Color bool
}

// Result writes a single scoring result.
func (r Renderer) Result(w io.Writer, res *scoring.Result) error {
	switch r.Format {
	case FormatJSON:
		return writeJSON(w, res)
	case FormatYAML:
		return writeYAML(w, res)
	}

	fmt.Fprintf(w, "Overall Score: %s/100  %s\n", formatScore(res.OverallScore), r.grade(res.Grade))
	fmt.Fprintf(w, "Words: %d  Sentences: %d  Duration: %s  Language: %s\n\n",
		res.WordCount, res.SentenceCount, formatDuration(res.DurationSeconds), res.Language)

	t := newTable(w)
	t.SetHeader([]string{"Criterion", "Score", "Max", "Feedback"})
	t.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})
	for _, c := range res.Criteria {
		t.Append([]string{c.Criterion, formatScore(c.Score), strconv.Itoa(c.MaxScore), c.Feedback})
	}
	t.Render()
	return nil
}

// Batch writes the outcomes of a batch run followed by its summary.
func (r Renderer) Batch(w io.Writer, outcomes []batch.Outcome) error {
	summary := batch.Summarize(outcomes)
	switch r.Format {
	case FormatJSON:
		return writeJSON(w, map[string]any{"results": outcomes, "summary": summary})
	case FormatYAML:
		return writeYAML(w, map[string]any{"results": outcomes, "summary": summary})
	}

	t := newTable(w)
	t.SetHeader([]string{"Transcript", "Score", "Grade", "Words", "Note"})
	for _, o := range outcomes {
		if o.Err != nil {
			t.Append([]string{o.Name, "-", "-", "-", o.Err.Error()})
			continue
		}
		t.Append([]string{o.Name, formatScore(o.Result.OverallScore), r.grade(o.Result.Grade), strconv.Itoa(o.Result.WordCount), ""})
	}
	t.SetFooter([]string{
		fmt.Sprintf("%d scored, %d failed", summary.Count-summary.Failed, summary.Failed),
		"mean " + formatScore(summary.Mean),
		"", "", fmt.Sprintf("min %s / max %s", formatScore(summary.Min), formatScore(summary.Max)),
	})
	t.Render()
	return nil
}

// Lexicon writes the weights, grade bands and phrase tables of lex.
func (r Renderer) Lexicon(w io.Writer, lex rubric.Lexicon) error {
	view := rubric.Describe(lex)

	switch r.Format {
	case FormatJSON:
		return writeJSON(w, view)
	case FormatYAML:
		return writeYAML(w, view)
	}

	t := newTable(w)
	t.SetHeader([]string{"Criterion", "Weight"})
	for _, c := range view.Criteria {
		t.Append([]string{c.Name, strconv.Itoa(c.Weight)})
	}
	t.Render()
	fmt.Fprintln(w)

	t = newTable(w)
	t.SetHeader([]string{"Table", "Entry", "Phrases"})
	for _, c := range lex.MustHave {
		t.Append([]string{"must_have", c.Name, strings.Join(c.Phrases, ", ")})
	}
	for _, c := range lex.Bonus {
		t.Append([]string{"bonus", c.Name, strings.Join(c.Phrases, ", ")})
	}
	phrases := []struct {
		table string
		list  []string
	}{
		{"fillers", lex.Fillers},
		{"enthusiastic", lex.Enthusiastic},
		{"formal", lex.Formal},
		{"casual", lex.Casual},
		{"self_introductions", lex.SelfIntroductions},
		{"closings", lex.Closings},
	}
	for _, p := range phrases {
		t.Append([]string{p.table, "", strings.Join(p.list, ", ")})
	}
	t.Render()
	return nil
}

func (r Renderer) grade(g rubric.Grade) string {
	if !r.Color {
		return string(g)
	}
	var style color.Style
	switch g {
	case rubric.GradeExcellent:
		style = color.New(color.FgGreen, color.OpBold)
	case rubric.GradeGood:
		style = color.New(color.FgCyan, color.OpBold)
	case rubric.GradeFair:
		style = color.New(color.FgYellow)
	default:
		style = color.New(color.FgRed)
	}
	return style.Render(string(g))
}

func newTable(w io.Writer) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetBorder(false)
	t.SetCenterSeparator("")
	t.SetColumnSeparator("")
	t.SetRowSeparator("-")
	t.SetHeaderLine(true)
	return t
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "unknown"
	}
	return strconv.FormatFloat(seconds, 'f', -1, 64) + "s"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("render: encode json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("render: encode yaml: %w", err)
	}
	return enc.Close()
}
