// Package observability provides logging setup, Prometheus metrics and formatted
// output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-matcher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if utf8.RuneCountInString(line) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintKeywords outputs the extracted keyword set and which strategy produced it.
func (p *Printer) PrintKeywords(keywords types.KeywordSet, source string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Source:   %s\n", source)
	fmt.Fprintf(&sb, "Keywords: %d\n", len(keywords))
	if len(keywords) > 0 {
		sb.WriteString("\n")
		writeList(&sb, keywords, len(keywords))
	}
	p.printBox("JOB KEYWORDS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBreakdown outputs every similarity signal with its weight and contribution.
func (p *Printer) PrintBreakdown(b types.ScoreBreakdown) {
	if len(b.Signals) == 0 && b.Final == 0 {
		return
	}

	var sb strings.Builder
	for _, s := range b.Signals {
		marker := ""
		if s.Fallback {
			marker = " (neutral)"
		}
		fmt.Fprintf(&sb, "%-9s %.3f × %.2f = %5.2f%s\n", s.Name, s.Value, s.Weight, s.Value*s.Weight*100, marker)
	}
	fmt.Fprintf(&sb, "\nRaw:   %.2f\n", b.Raw)
	fmt.Fprintf(&sb, "Final: %.2f", b.Final)
	if b.Calibration != "" {
		fmt.Fprintf(&sb, " (%s)", b.Calibration)
	}

	p.printBox("SCORE BREAKDOWN", sb.String())
}

// PrintResult outputs the score, the keyword partition and the suggestion.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintResult(result *types.MatchResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Similarity score: %.2f%%\n\n", result.SimilarityScore)
	fmt.Fprintf(&sb, "Matched (%d):\n", len(result.MatchedKeywords))
	writeList(&sb, result.MatchedKeywords, maxItemsToShow)
	fmt.Fprintf(&sb, "\nMissing (%d):\n", len(result.MissingKeywords))
	writeList(&sb, result.MissingKeywords, maxItemsToShow)
	p.printBox("MATCH RESULT", strings.TrimSuffix(sb.String(), "\n"))

	// the suggestion is printed unboxed so long lines stay readable
	fmt.Fprintf(p.out, "\n%s\n", result.Suggestion)
}

func writeList(sb *strings.Builder, items []string, limit int) {
	if len(items) == 0 {
		sb.WriteString("  (none)\n")
		return
	}
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		fmt.Fprintf(sb, "  • %s\n", items[i])
	}
	if len(items) > limit {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-limit)
	}
}
