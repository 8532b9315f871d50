// Package observability provides logging, metrics and formatted CLI output.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/medcontent/internal/compliance"
	"github.com/jonathan/medcontent/internal/persuasion"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 8
)

// Printer handles formatted output for the CLI
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
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintReport outputs a compliance report: verdict, score and the matches per class.
func (p *Printer) PrintReport(report compliance.Report) {
	var sb strings.Builder

	verdict := "✅ COMPLIANT"
	if !report.IsCompliant {
		verdict = "❌ NOT COMPLIANT"
	}
	sb.WriteString(fmt.Sprintf("%s  (score %d, %d issues)\n", verdict, report.Score, report.TotalIssues))
	if report.AutoFixed {
		sb.WriteString(fmt.Sprintf("Auto-fixed: %d changes\n", len(report.Changes)))
	}

	writeMatches(&sb, "Violations", "⚠", report.Violations)
	writeMatches(&sb, "Warnings", "•", report.Warnings)
	writeMatches(&sb, "Skipped", "○", report.Skipped)

	p.printBox("MEDICAL ADVERTISING CHECK", strings.TrimSuffix(sb.String(), "\n"))
}

func writeMatches(sb *strings.Builder, heading, bullet string, matches []compliance.Match) {
	if len(matches) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n%s:\n", heading))
	count := min(len(matches), maxItemsToShow)
	for i := 0; i < count; i++ {
		m := matches[i]
		sb.WriteString(fmt.Sprintf("%s %s [%s] %q\n", bullet, m.Category, m.Severity, m.Text))
		switch {
		case m.Reason != "":
			sb.WriteString(fmt.Sprintf("  reason: %s\n", m.Reason))
		case m.Suggestion != "":
			sb.WriteString(fmt.Sprintf("  → %s\n", m.Suggestion))
		default:
			sb.WriteString("  → manual edit required\n")
		}
	}
	if len(matches) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(matches)-maxItemsToShow))
	}
}

// PrintChanges outputs the replacements made by auto-fix.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintChanges(changes []compliance.ChangeRecord) {
	if len(changes) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %s │\n", pad("✅ NOTHING TO FIX", boxWidth-4))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Applied %d changes:\n\n", len(changes)))
	for i, c := range changes {
		sb.WriteString(fmt.Sprintf("%d. [%s] @%d\n", i+1, c.Category, c.Position[0]))
		sb.WriteString(fmt.Sprintf("   %q\n", c.Original))
		sb.WriteString(fmt.Sprintf("   → %q\n", c.Replacement))
	}

	p.printBox("AUTO-FIX CHANGES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBreakdown outputs the persuasion sub-scores as bars.
func (p *Printer) PrintBreakdown(b persuasion.Breakdown) {
	rows := []struct {
		name  string
		value float64
	}{
		{"Storytelling", b.Storytelling},
		{"Data/evidence", b.DataEvidence},
		{"Emotion", b.Emotion},
		{"Authority", b.Authority},
		{"Social proof", b.SocialProof},
		{"CTA clarity", b.CTAClarity},
	}

	var sb strings.Builder
	for _, r := range rows {
		filled := int(r.value / 10)
		sb.WriteString(fmt.Sprintf("%-14s %s%s %5.1f\n", r.name,
			strings.Repeat("█", filled), strings.Repeat("░", 10-filled), r.value))
	}
	sb.WriteString(fmt.Sprintf("\nTotal: %.1f / 100", b.Total))

	p.printBox("PERSUASION SCORE", sb.String())
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}
