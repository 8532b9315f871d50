// Package repair rewrites non-compliant phrases into their suggested replacements.
//
// Fixes are deterministic: only violations and warnings that carry a suggestion are
// replaced, skipped matches are left alone, and every ChangeRecord is positioned against
// the text as it was before the fix.
package repair

import (
	"sort"
	"strings"

	"github.com/jonathan/medcontent/internal/compliance"
)

// Fixer applies rule suggestions to text.
type Fixer struct {
	scanner *compliance.Scanner
}

// NewFixer creates a fixer that finds candidates with scanner (default rules when nil).
func NewFixer(scanner *compliance.Scanner) *Fixer {
	if scanner == nil {
		scanner = compliance.NewScanner(nil)
	}
	return &Fixer{scanner: scanner}
}

// Fix replaces every fixable match in text and returns the new text together with the
// changes, ordered by ascending start offset in the original text.
func (f *Fixer) Fix(text string) (string, []compliance.ChangeRecord) {
	return f.FixReport(text, f.scanner.Scan(text))
}

// FixReport is Fix for a text that has already been scanned. report must come from
// scanning exactly text.
func (f *Fixer) FixReport(text string, report compliance.Report) (string, []compliance.ChangeRecord) {
	changes := selectChanges(report)
	if len(changes) == 0 {
		return text, []compliance.ChangeRecord{}
	}

	// Replace from the end so earlier offsets stay valid.
	out := text
	for i := len(changes) - 1; i >= 0; i-- {
		c := changes[i]
		out = out[:c.Position[0]] + c.Replacement + out[c.Position[1]:]
	}
	return out, changes
}

// selectChanges picks the non-overlapping fixable matches of report, ascending by start.
// On overlap the earlier match wins; at the same start the longer one does.
func selectChanges(report compliance.Report) []compliance.ChangeRecord {
	candidates := make([]compliance.Match, 0, len(report.Violations)+len(report.Warnings))
	for _, m := range report.Violations {
		if m.Suggestion != "" {
			candidates = append(candidates, m)
		}
	}
	for _, m := range report.Warnings {
		if m.Suggestion != "" {
			candidates = append(candidates, m)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Start() != candidates[j].Start() {
			return candidates[i].Start() < candidates[j].Start()
		}
		return candidates[i].End() > candidates[j].End()
	})

	changes := make([]compliance.ChangeRecord, 0, len(candidates))
	lastEnd := 0
	for _, m := range candidates {
		if m.Start() < lastEnd {
			continue
		}
		changes = append(changes, compliance.ChangeRecord{
			Category:    m.Category,
			Original:    m.Text,
			Replacement: m.Suggestion,
			Position:    m.Position,
		})
		lastEnd = m.End()
	}
	return changes
}

// ApplyChanges replays changes onto original, left to right. The changes must be sorted
// by start, must not overlap, and each Original must equal the text at its Position.
func ApplyChanges(original string, changes []compliance.ChangeRecord) (string, error) {
	var sb strings.Builder
	sb.Grow(len(original))
	pos := 0
	for i, c := range changes {
		start, end := c.Position[0], c.Position[1]
		switch {
		case start < 0 || end > len(original) || start > end:
			return "", &ApplyError{Message: "position out of range", Index: i}
		case start < pos:
			return "", &ApplyError{Message: "changes overlap or are not sorted", Index: i}
		case original[start:end] != c.Original:
			return "", &ApplyError{Message: "original text does not match position", Index: i}
		}
		sb.WriteString(original[pos:start])
		sb.WriteString(c.Replacement)
		pos = end
	}
	sb.WriteString(original[pos:])
	return sb.String(), nil
}
