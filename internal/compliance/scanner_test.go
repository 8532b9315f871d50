package compliance

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_NegationContext(t *testing.T) {
	s := NewScanner(nil)

	report := s.Scan("100% 효과가 없다고 알려져 있습니다")

	assert.True(t, report.IsCompliant)
	assert.Empty(t, report.Violations)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, ReasonNegation, report.Skipped[0].Reason)
	assert.Equal(t, CategoryGuarantee, report.Skipped[0].Category)
	assert.Equal(t, "100% 효과", report.Skipped[0].Text)
}

func TestScan_QuotationContext(t *testing.T) {
	s := NewScanner(nil)

	report := s.Scan(`"100% 완치"라는 표현은 금지됩니다`)

	assert.True(t, report.IsCompliant)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, ReasonQuotation, report.Skipped[0].Reason)
	assert.Equal(t, "100% 완치", report.Skipped[0].Text)
}

func TestScan_ApostropheDoesNotOpenQuotation(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		quoted bool
	}{
		{"possessive before quote", "Our brochure's headline, 'the best clinic', was withdrawn.", true},
		{"contraction before quote", "They didn't print 'the best clinic' on the flyer.", true},
		{"apostrophes only", "Dr. Kim's team is the best clinic in Kim's town.", false},
		{"unclosed quote", "The ad said 'the best clinic\nin town.", false},
	}

	s := NewScanner(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := s.Scan(tt.text)
			if tt.quoted {
				assert.True(t, report.IsCompliant)
				require.Len(t, report.Skipped, 1)
				assert.Equal(t, ReasonQuotation, report.Skipped[0].Reason)
				assert.Equal(t, "the best clinic", report.Skipped[0].Text)
				return
			}
			assert.Empty(t, report.Skipped)
			assert.Equal(t, 1, report.TotalIssues)
		})
	}
}

func TestSingleQuoteSpans(t *testing.T) {
	text := "it's 'a' and 'b\nc' then 'd'"
	var got []string
	for _, sp := range singleQuoteSpans(text) {
		got = append(got, text[sp.start:sp.end])
	}
	assert.Equal(t, []string{"a", "d"}, got)
}

func TestScan_CitationContext(t *testing.T) {
	s := NewScanner(nil)

	report := s.Scan("의료법에서는 최고의 표현을 금지하고 있습니다")

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, ReasonQuotation, report.Skipped[0].Reason)
	assert.Equal(t, CategorySuperlative, report.Skipped[0].Category)
}

func TestScan_Classification(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		wantViolations []Category
		wantWarnings   []Category
		wantSkipped    int
	}{
		{
			name:           "clean text",
			text:           "정기적인 검진은 건강 관리에 도움이 됩니다.",
			wantViolations: nil,
			wantWarnings:   nil,
		},
		{
			name:           "guarantee and superlative",
			text:           "저희 병원은 국내 최고의 의료진이 100% 완치를 약속드립니다.",
			wantViolations: []Category{CategorySuperlative, CategoryGuarantee},
		},
		{
			name:         "price inducement is a warning",
			text:         "이번 달에는 30% 할인 혜택을 드립니다.",
			wantWarnings: []Category{CategoryPriceInducement},
		},
		{
			name:           "negation marker inside the match does not suppress",
			text:           "이 시술은 부작용이 전혀 없습니다.",
			wantViolations: []Category{CategorySafetyClaim},
		},
		{
			name:           "negation in another sentence does not suppress",
			text:           "효과가 없다는 말은 틀렸습니다. 이제 100% 완치됩니다.",
			wantViolations: []Category{CategoryGuarantee},
		},
		{
			name:           "testimonial has no suggestion",
			text:           "많은 분들의 치료 후기를 확인해 보세요.",
			wantViolations: []Category{CategoryTestimonial},
		},
		{
			name:           "before and after photos",
			text:           "시술 전후 사진을 공개합니다.",
			wantViolations: []Category{CategoryBeforeAfter},
		},
		{
			name:           "english superlative",
			text:           "We are the best clinic in town.",
			wantViolations: []Category{CategorySuperlative},
		},
		{
			name:        "english negation",
			text:        "Our doctors cannot promise no side effects to anyone.",
			wantSkipped: 1,
		},
		{
			name:         "exaggeration",
			text:         "기적의 치료법으로 놀라운 효과를 경험하세요.",
			wantWarnings: []Category{CategoryExaggeration, CategoryExaggeration},
		},
	}

	s := NewScanner(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := s.Scan(tt.text)

			assert.Equal(t, tt.wantViolations, categories(report.Violations))
			assert.Equal(t, tt.wantWarnings, categories(report.Warnings))
			assert.Len(t, report.Skipped, tt.wantSkipped)
			assert.Equal(t, len(report.Violations) == 0, report.IsCompliant)
			assert.Equal(t, len(report.Violations)+len(report.Warnings), report.TotalIssues)
			assert.Equal(t, Disclaimer, report.Disclaimer)
		})
	}
}

func TestScan_ShortSentenceFallsBackToWindow(t *testing.T) {
	s := NewScanner(nil)

	report := s.Scan("부작용이 없다는 말은 사실이 아닙니다. 최고의!")

	assert.Empty(t, report.Violations)
	require.Len(t, report.Skipped, 2)
	for _, m := range report.Skipped {
		assert.Equal(t, ReasonNegation, m.Reason)
	}
}

func TestScan_MatchFields(t *testing.T) {
	s := NewScanner(nil)
	text := "안녕하세요. 저희는 국내 최고의 피부과입니다."

	report := s.Scan(text)

	require.Len(t, report.Violations, 1)
	m := report.Violations[0]
	assert.Equal(t, "국내 최고의", m.Text)
	assert.Equal(t, m.Text, text[m.Start():m.End()])
	assert.Equal(t, SeverityHigh, m.Severity)
	assert.Equal(t, "신뢰할 수 있는", m.Suggestion)
	assert.Contains(t, m.Context, "국내 최고의")
	assert.Empty(t, m.Reason)
}

func TestScan_Invariants(t *testing.T) {
	texts := []string{
		"",
		"평범한 문장입니다.",
		"100% 효과! 부작용 없는 시술! 30% 할인 이벤트!",
		"\"최고의\" 병원이라는 말은 과장입니다. 그러나 유일한 치료법은 아닙니다.",
		"획기적인 치료\n단 한 번으로 끝나는 시술\n환자 후기",
		"The law prohibits the best clinic claims. Miracle results, 50% off!",
	}

	s := NewScanner(nil)
	for _, text := range texts {
		report := s.Scan(text)
		assert.Equal(t, len(report.Violations) == 0, report.IsCompliant, text)
		assert.Equal(t, len(report.Violations)+len(report.Warnings), report.TotalIssues, text)
		assert.Equal(t, Score(report), report.Score, text)
		for _, m := range append(report.Violations, report.Warnings...) {
			assert.Empty(t, m.Reason)
		}
		for _, m := range report.Skipped {
			assert.NotEmpty(t, m.Reason)
		}
	}
}

func TestSuggestionsAreClean(t *testing.T) {
	s := NewScanner(nil)
	for _, rule := range DefaultRules().Rules() {
		if rule.Suggestion == "" {
			continue
		}
		assert.Empty(t, s.rawMatches(rule.Suggestion), "suggestion %q matches a rule", rule.Suggestion)
		assert.False(t, containsNegation(rule.Suggestion), "suggestion %q has a negation marker", rule.Suggestion)
		assert.False(t, strings.ContainsAny(rule.Suggestion, sentenceDelimiters+`"'“”‘’「」『』«»`),
			"suggestion %q has a delimiter or quote", rule.Suggestion)
	}
}

func TestCategorySeverity(t *testing.T) {
	tests := []struct {
		category Category
		want     Severity
	}{
		{CategoryGuarantee, SeverityCritical},
		{CategorySafetyClaim, SeverityCritical},
		{CategorySuperlative, SeverityHigh},
		{CategoryTestimonial, SeverityHigh},
		{CategoryBeforeAfter, SeverityHigh},
		{CategoryExaggeration, SeverityMedium},
		{CategoryPriceInducement, SeverityMedium},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.category.Severity(), string(tt.category))
	}
	assert.True(t, SeverityCritical.Blocking())
	assert.True(t, SeverityHigh.Blocking())
	assert.False(t, SeverityMedium.Blocking())
}

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		violations int
		warnings   int
		want       int
	}{
		{"clean", 0, 0, 100},
		{"one warning", 0, 1, 95},
		{"warnings floor at 80", 0, 10, 80},
		{"one violation", 1, 0, 85},
		{"mixed", 2, 3, 55},
		{"floor at zero", 7, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Report{
				Violations: make([]Match, tt.violations),
				Warnings:   make([]Match, tt.warnings),
			}
			assert.Equal(t, tt.want, Score(r))
		})
	}
}

func TestScore_Monotonic(t *testing.T) {
	bases := []string{
		"정기 검진을 권장합니다.",
		"이번 달 30% 할인 혜택이 있습니다.",
		"국내 최고의 의료진입니다.",
		"획기적인 장비와 기적의 회복, 놀라운 효과, 즉시 효과를 약속합니다.",
	}
	extras := []string{
		" 100% 완치를 약속합니다.",
		" 부작용이 전혀 없습니다.",
		" 환자 후기를 참고하세요.",
	}

	s := NewScanner(nil)
	for _, base := range bases {
		for _, extra := range extras {
			before := s.Scan(base)
			after := s.Scan(base + extra)
			assert.Equal(t, len(before.Violations)+1, len(after.Violations), base+extra)
			assert.LessOrEqual(t, after.Score, before.Score, base+extra)
		}
	}
}

func TestScanBatch(t *testing.T) {
	s := NewScanner(nil)
	texts := []string{"평범한 문장입니다.", "100% 완치를 약속합니다.", "30% 할인"}

	reports, err := s.ScanBatch(context.Background(), texts, 2)

	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.True(t, reports[0].IsCompliant)
	assert.False(t, reports[1].IsCompliant)
	assert.Len(t, reports[2].Warnings, 1)
}

func TestScanBatch_Canceled(t *testing.T) {
	s := NewScanner(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ScanBatch(ctx, []string{"a", "b"}, 1)

	assert.ErrorIs(t, err, context.Canceled)
}

func categories(matches []Match) []Category {
	if len(matches) == 0 {
		return nil
	}
	out := make([]Category, len(matches))
	for i, m := range matches {
		out[i] = m.Category
	}
	return out
}
