package compliance

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SuppressionReason explains why a match was skipped.
type SuppressionReason string

// Suppression reasons.
const (
	ReasonNegation  SuppressionReason = "negation_context"
	ReasonQuotation SuppressionReason = "quotation_context"
)

const (
	sentenceDelimiters = ".?!。\n"
	// minSentenceRunes below this the sentence split is treated as failed
	minSentenceRunes = 5
	// fallbackWindowRunes is the half-width of the window used when the split failed
	fallbackWindowRunes = 30
	contextRunes        = 20
)

var negationMarkers = []string{
	"없다", "없습니다", "없다고", "않습니다", "않는다", "아닙니다", "아니다",
	"금지", "불가", "할 수 없", "해서는 안",
	"is not", "are not", "cannot", "can't", "prohibited", "not allowed", "never",
}

type span struct {
	start, end int
}

func (s span) contains(start, end int) bool {
	return start >= s.start && end <= s.end
}

func (s span) overlaps(start, end int) bool {
	return start < s.end && end > s.start
}

// sentenceBounds returns the byte range of the sentence enclosing [start,end).
// Delimiters inside the match itself do not split it.
func sentenceBounds(text string, start, end int) span {
	left := 0
	if i := strings.LastIndexAny(text[:start], sentenceDelimiters); i >= 0 {
		_, size := utf8.DecodeRuneInString(text[i:])
		left = i + size
	}
	right := len(text)
	if i := strings.IndexAny(text[end:], sentenceDelimiters); i >= 0 {
		right = end + i
	}
	return span{start: left, end: right}
}

// runeWindow returns a byte range extending n runes to each side of [start,end).
func runeWindow(text string, start, end, n int) span {
	left := start
	for i := 0; i < n && left > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:left])
		left -= size
	}
	right := end
	for i := 0; i < n && right < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[right:])
		right += size
	}
	return span{start: left, end: right}
}

// unitWindow is runeWindow with every masked range counting as a single rune. Auto-fix
// swaps one masked range (a match) for another (its suggestion), so windows measured this
// way cover the same text before and after a fix. masks must be sorted and disjoint.
func unitWindow(text string, start, end, n int, masks []span) span {
	left := start
	for i := 0; i < n && left > 0; i++ {
		if m, ok := maskAt(masks, left-1); ok {
			left = m.start
			continue
		}
		_, size := utf8.DecodeLastRuneInString(text[:left])
		left -= size
	}
	right := end
	for i := 0; i < n && right < len(text); i++ {
		if m, ok := maskAt(masks, right); ok {
			right = m.end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[right:])
		right += size
	}
	return span{start: left, end: right}
}

// maskAt returns the mask covering byte offset pos.
func maskAt(masks []span, pos int) (span, bool) {
	i := sort.Search(len(masks), func(i int) bool { return masks[i].end > pos })
	if i < len(masks) && masks[i].start <= pos {
		return masks[i], true
	}
	return span{}, false
}

// mergeSpans sorts spans and joins the overlapping ones.
func mergeSpans(spans []span) []span {
	sorted := append([]span(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })
	out := make([]span, 0, len(sorted))
	for _, sp := range sorted {
		if n := len(out); n > 0 && sp.start < out[n-1].end {
			out[n-1].end = max(out[n-1].end, sp.end)
			continue
		}
		out = append(out, sp)
	}
	return out
}

// maskedSlice returns text[s.start:s.end] with every masked range replaced by a single space,
// so a negation marker can only be found in text that is not itself a rule match.
func maskedSlice(text string, s span, masks []span) string {
	var sb strings.Builder
	pos := s.start
	for _, m := range masks {
		if !m.overlaps(s.start, s.end) {
			continue
		}
		ms := max(m.start, s.start)
		me := min(m.end, s.end)
		if ms > pos {
			sb.WriteString(text[pos:ms])
		}
		if me > pos {
			sb.WriteByte(' ')
			pos = me
		}
	}
	if pos < s.end {
		sb.WriteString(text[pos:s.end])
	}
	return sb.String()
}

func containsNegation(s string) bool {
	lower := strings.ToLower(s)
	for _, marker := range negationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// negated reports whether the sentence containing [start,end) carries a negation marker
// outside of any masked range. masks must be sorted and disjoint.
func negated(text string, start, end int, masks []span) bool {
	bounds := sentenceBounds(text, start, end)
	sentence := strings.TrimSpace(text[bounds.start:bounds.end])
	if utf8.RuneCountInString(sentence) < minSentenceRunes {
		bounds = unitWindow(text, start, end, fallbackWindowRunes, masks)
	}
	return containsNegation(maskedSlice(text, bounds, masks))
}

var quotePatterns = []*regexp.Regexp{
	regexp.MustCompile(`"[^"\n]*"`),
	regexp.MustCompile(`“[^”\n]*”`),
	regexp.MustCompile(`‘[^’\n]*’`),
	regexp.MustCompile(`「[^」\n]*」`),
	regexp.MustCompile(`『[^』\n]*』`),
	regexp.MustCompile(`«[^»\n]*»`),
}

// citationPatterns capture, in group 1, the phrase a regulation is said to explain or forbid.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:의료법|법령|규정|가이드라인|심의\s*기준)(?:에서는|에서|은|는|상)\s+([^.?!。\n]+?)\s*(?:을|를|이라는\s*표현을?|라는\s*표현을?)\s*(?:금지|제한|규제|설명)`),
	regexp.MustCompile(`(?i)\b(?:the\s+)?(?:law|regulation|guideline)s?\s+(?:explains?|states?|prohibits?|forbids?)\s+(?:that\s+)?([^.?!。\n]+)`),
}

// quotedSpans returns the inner ranges of quotations and cited phrases in text.
func quotedSpans(text string) []span {
	var spans []span
	for _, re := range quotePatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			_, openSize := utf8.DecodeRuneInString(text[loc[0]:])
			_, closeSize := utf8.DecodeLastRuneInString(text[:loc[1]])
			spans = append(spans, span{start: loc[0] + openSize, end: loc[1] - closeSize})
		}
	}
	spans = append(spans, singleQuoteSpans(text)...)
	for _, re := range citationPatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			if loc[2] >= 0 {
				spans = append(spans, span{start: loc[2], end: loc[3]})
			}
		}
	}
	return spans
}

// singleQuoteSpans pairs ASCII single quotes. An apostrophe inside a word (don't, clinic's)
// cannot open a quotation; the search resumes right after it.
func singleQuoteSpans(text string) []span {
	var spans []span
	pos := 0
	for {
		i := strings.IndexByte(text[pos:], '\'')
		if i < 0 {
			return spans
		}
		open := pos + i
		pos = open + 1
		if open > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:open])
			if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
				continue
			}
		}
		j := strings.IndexAny(text[pos:], "'\n")
		if j < 0 {
			return spans
		}
		if text[pos+j] == '\n' {
			pos += j + 1
			continue
		}
		spans = append(spans, span{start: pos, end: pos + j})
		pos += j + 1
	}
}

func quoted(start, end int, quotes []span) bool {
	for _, q := range quotes {
		if q.contains(start, end) {
			return true
		}
	}
	return false
}

// excerpt returns up to contextRunes runes on each side of the match, on one line.
func excerpt(text string, start, end int) string {
	w := runeWindow(text, start, end, contextRunes)
	out := text[w.start:w.end]
	out = strings.ReplaceAll(out, "\n", " ")
	if w.start > 0 {
		out = "…" + out
	}
	if w.end < len(text) {
		out += "…"
	}
	return strings.TrimSpace(out)
}
