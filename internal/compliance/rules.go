// Package compliance screens marketing copy for medical-advertising violations.
//
// A Scanner runs a fixed table of compiled patterns over the text and classifies every
// occurrence as a violation, a warning, or a skipped (suppressed) match. Suppression
// happens when the sentence around the match negates or prohibits the claim, or when the
// match sits inside a quotation or a regulation citation.
package compliance

import (
	"regexp"
	"strings"
	"sync"
)

// Category identifies the kind of regulated claim a rule detects.
type Category string

// Categories known to the rule table.
const (
	CategoryGuarantee       Category = "guarantee"
	CategorySafetyClaim     Category = "safety_claim"
	CategorySuperlative     Category = "superlative"
	CategoryTestimonial     Category = "testimonial"
	CategoryBeforeAfter     Category = "before_after"
	CategoryExaggeration    Category = "exaggeration"
	CategoryPriceInducement Category = "price_inducement"
)

// Severity of a match. Critical and high block compliance; medium only degrades the score.
type Severity string

// Severity levels.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// categoryOrder fixes the tie-break order used when two matches share a span.
var categoryOrder = map[Category]int{
	CategoryGuarantee:       0,
	CategorySafetyClaim:     1,
	CategorySuperlative:     2,
	CategoryTestimonial:     3,
	CategoryBeforeAfter:     4,
	CategoryExaggeration:    5,
	CategoryPriceInducement: 6,
}

// Severity returns the severity implied by the category.
func (c Category) Severity() Severity {
	switch c {
	case CategoryGuarantee, CategorySafetyClaim:
		return SeverityCritical
	case CategorySuperlative, CategoryTestimonial, CategoryBeforeAfter:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// Blocking reports whether matches of this severity make a text non-compliant.
func (s Severity) Blocking() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// Rule is one compiled pattern of the table.
type Rule struct {
	Category   Category
	Pattern    *regexp.Regexp
	Suggestion string
}

// RuleSet is an immutable, ordered list of rules.
type RuleSet struct {
	rules       []Rule
	suggestions []string
}

// NewRuleSet copies rules into a RuleSet.
func NewRuleSet(rules []Rule) *RuleSet {
	cp := make([]Rule, len(rules))
	copy(cp, rules)

	seen := make(map[string]bool)
	var suggestions []string
	for _, r := range cp {
		if r.Suggestion != "" && !seen[r.Suggestion] {
			seen[r.Suggestion] = true
			suggestions = append(suggestions, r.Suggestion)
		}
	}
	return &RuleSet{rules: cp, suggestions: suggestions}
}

// suggestionSpans returns every occurrence of a replacement text in text.
func (rs *RuleSet) suggestionSpans(text string) []span {
	var out []span
	for _, sug := range rs.suggestions {
		for pos := 0; pos < len(text); {
			i := strings.Index(text[pos:], sug)
			if i < 0 {
				break
			}
			out = append(out, span{start: pos + i, end: pos + i + len(sug)})
			pos += i + len(sug)
		}
	}
	return out
}

// Rules returns a copy of the rules in table order.
func (rs *RuleSet) Rules() []Rule {
	cp := make([]Rule, len(rs.rules))
	copy(cp, rs.rules)
	return cp
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

type ruleDef struct {
	category   Category
	pattern    string
	suggestion string
}

// Suggestions never contain a rule pattern, a negation marker, a sentence delimiter or a
// quote character. Auto-fix idempotence depends on it.
var defaultRuleDefs = []ruleDef{
	// guarantee
	{CategoryGuarantee, `100\s*%\s*(?:의\s*)?(?:효과|완치|치료|성공|만족|안전)`, "개인차가 있을 수 있는 결과"},
	{CategoryGuarantee, `(?:완치|효과|치료\s*효과)(?:를|가|이)?\s*(?:보장|장담)`, "개인별 맞춤 상담"},
	{CategoryGuarantee, `(?:반드시|무조건)\s*(?:완치|효과)`, "꾸준한 관리를 통한 개선"},
	{CategoryGuarantee, `(?i)guaranteed\s+(?:cure|results?)`, "results that vary by patient"},
	{CategoryGuarantee, `(?i)100\s*%\s*(?:effective|cure[ds]?|success)`, "results that vary by patient"},

	// safety_claim
	{CategorySafetyClaim, `부작용(?:이|은|도)?\s*(?:전혀\s*)?없(?:는|습니다|어요|다|음)`, "부작용 발생 가능성이 낮은 편"},
	{CategorySafetyClaim, `(?:통증|흉터)(?:이|가|도)?\s*(?:전혀\s*)?없(?:는|습니다|어요|다|음)`, "불편감을 줄이기 위해 노력하는"},
	{CategorySafetyClaim, `(?i)\b(?:no|zero)\s+side[\s-]effects?`, "a low risk of side effects"},
	{CategorySafetyClaim, `(?i)\bcompletely\s+safe\b`, "generally well tolerated"},

	// superlative
	{CategorySuperlative, `(?:(?:국내|세계|업계)\s*)?최고(?:의|\s*수준의?)`, "신뢰할 수 있는"},
	{CategorySuperlative, `(?:(?:국내|세계|업계)\s*)?(?:최초|유일)(?:의|한|하게)`, "차별화된"},
	{CategorySuperlative, `(?:넘버원|(?:국내|업계|지역)\s*1위)`, "많은 분들이 찾는"},
	{CategorySuperlative, `(?i)\bthe\s+best\s+(?:clinic|hospital|doctor|treatment)\b`, "a trusted provider"},

	// testimonial: requires a manual edit
	{CategoryTestimonial, `(?:치료|시술|수술|환자|체험)\s*(?:후기|경험담)`, ""},
	{CategoryTestimonial, `(?i)\bpatient\s+testimonials?\b`, ""},

	// before_after: requires a manual edit
	{CategoryBeforeAfter, `(?:시술|수술|치료)\s*전\s*(?:과\s*|[/·~-]\s*)?후\s*(?:사진|비교)`, ""},
	{CategoryBeforeAfter, `(?i)\bbefore\s*(?:&|and|/)\s*after\b`, ""},

	// exaggeration
	{CategoryExaggeration, `기적(?:의|적인|적으로|\s*같은)`, "긍정적인"},
	{CategoryExaggeration, `획기적인`, "새로운"},
	{CategoryExaggeration, `놀라운\s*효과`, "기대할 수 있는 변화"},
	{CategoryExaggeration, `(?:즉각적인|즉시)\s*효과`, "점진적인 변화"},
	{CategoryExaggeration, `단\s*한\s*번(?:의|으로|에|만에)`, "개인별 계획에 따른"},
	{CategoryExaggeration, `(?i)\bmiracle\b`, "notable"},

	// price_inducement
	{CategoryPriceInducement, `\d+\s*%\s*할인`, "진료비 안내"},
	{CategoryPriceInducement, `할인\s*이벤트`, "진료 안내"},
	{CategoryPriceInducement, `무료\s*(?:시술|수술|치료)`, "진료 상담"},
	{CategoryPriceInducement, `(?:선착순|한정)\s*(?:특가|이벤트)`, "예약 안내"},
	{CategoryPriceInducement, `(?i)\b\d+\s*%\s*off\b`, "pricing information"},
}

var defaultRules = sync.OnceValue(func() *RuleSet {
	rules := make([]Rule, 0, len(defaultRuleDefs))
	for _, def := range defaultRuleDefs {
		rules = append(rules, Rule{
			Category:   def.category,
			Pattern:    regexp.MustCompile(def.pattern),
			Suggestion: def.suggestion,
		})
	}
	return NewRuleSet(rules)
})

// DefaultRules returns the built-in rule table. It is compiled on first use and shared.
func DefaultRules() *RuleSet {
	return defaultRules()
}
