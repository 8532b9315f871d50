package compliance

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Disclaimer is attached verbatim to every report.
const Disclaimer = "본 검토 결과는 휴리스틱 기반의 참고용 자동 분석이며 법률적 판단이 아닙니다. 점수 또한 참고용입니다. " +
	"(This review is advisory heuristic output, not a legal determination; scores are likewise advisory.)"

// Match is one occurrence of a rule in the scanned text.
// Position holds byte offsets [start,end) into the UTF-8 input.
type Match struct {
	Category   Category          `json:"category"`
	Text       string            `json:"text"`
	Position   [2]int            `json:"position"`
	Severity   Severity          `json:"severity"`
	Suggestion string            `json:"suggestion"`
	Context    string            `json:"context"`
	Reason     SuppressionReason `json:"reason,omitempty"`
}

// Start returns the byte offset where the match begins.
func (m Match) Start() int { return m.Position[0] }

// End returns the byte offset just past the match.
func (m Match) End() int { return m.Position[1] }

// ChangeRecord is one replacement applied by auto-fix, positioned against the original text.
type ChangeRecord struct {
	Category    Category `json:"category"`
	Original    string   `json:"original"`
	Replacement string   `json:"replacement"`
	Position    [2]int   `json:"position"`
}

// Report is the result of a scan. It is replaced wholesale whenever the text is re-checked.
type Report struct {
	IsCompliant bool           `json:"is_compliant"`
	Violations  []Match        `json:"violations"`
	Warnings    []Match        `json:"warnings"`
	Skipped     []Match        `json:"skipped"`
	TotalIssues int            `json:"total_issues"`
	Score       int            `json:"score"`
	AutoFixed   bool           `json:"auto_fixed"`
	Changes     []ChangeRecord `json:"changes,omitempty"`
	Disclaimer  string         `json:"disclaimer"`
}

// Scanner applies a RuleSet to text. It holds no mutable state and is safe for concurrent use.
type Scanner struct {
	rules *RuleSet
}

// NewScanner creates a scanner over rules, or over DefaultRules when rules is nil.
func NewScanner(rules *RuleSet) *Scanner {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Scanner{rules: rules}
}

// Scan classifies every rule occurrence in text.
func (s *Scanner) Scan(text string) Report {
	raw := s.rawMatches(text)

	// Rule matches and replacement texts are masked alike, so auto-fix does not move
	// the context boundaries of the matches it leaves in place.
	masks := s.rules.suggestionSpans(text)
	for _, m := range raw {
		masks = append(masks, span{start: m.Start(), end: m.End()})
	}
	masks = mergeSpans(masks)
	quotes := quotedSpans(text)

	report := Report{
		Violations: make([]Match, 0),
		Warnings:   make([]Match, 0),
		Skipped:    make([]Match, 0),
		Disclaimer: Disclaimer,
	}

	for _, m := range raw {
		switch {
		case quoted(m.Start(), m.End(), quotes):
			m.Reason = ReasonQuotation
			report.Skipped = append(report.Skipped, m)
		case negated(text, m.Start(), m.End(), masks):
			m.Reason = ReasonNegation
			report.Skipped = append(report.Skipped, m)
		case m.Severity.Blocking():
			report.Violations = append(report.Violations, m)
		default:
			report.Warnings = append(report.Warnings, m)
		}
	}

	report.TotalIssues = len(report.Violations) + len(report.Warnings)
	report.IsCompliant = len(report.Violations) == 0
	report.Score = Score(report)
	return report
}

// rawMatches returns every occurrence of every rule, ordered by position.
func (s *Scanner) rawMatches(text string) []Match {
	var out []Match
	for _, rule := range s.rules.rules {
		for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
			if loc[0] == loc[1] {
				continue
			}
			out = append(out, Match{
				Category:   rule.Category,
				Text:       text[loc[0]:loc[1]],
				Position:   [2]int{loc[0], loc[1]},
				Severity:   rule.Category.Severity(),
				Suggestion: rule.Suggestion,
				Context:    excerpt(text, loc[0], loc[1]),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start() != out[j].Start() {
			return out[i].Start() < out[j].Start()
		}
		if out[i].End() != out[j].End() {
			return out[i].End() > out[j].End()
		}
		return categoryOrder[out[i].Category] < categoryOrder[out[j].Category]
	})
	return out
}

// ScanBatch scans texts concurrently, at most limit at a time (unbounded when limit <= 0).
// Reports are returned in input order.
func (s *Scanner) ScanBatch(ctx context.Context, texts []string, limit int) ([]Report, error) {
	reports := make([]Report, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = s.Scan(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Score derives the 0-100 compliance score from a report.
func Score(r Report) int {
	v := len(r.Violations)
	w := len(r.Warnings)
	switch {
	case v == 0 && w == 0:
		return 100
	case v == 0:
		return max(80, 100-5*w)
	default:
		return max(0, 100-15*v-5*w)
	}
}
