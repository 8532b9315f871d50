// Package seo derives search keywords, hashtags, titles and meta descriptions for posts.
package seo

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	maxKeywords = 10
	maxHashtags = 8
	minTokenLen = 2
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Korean particles and endings stripped from the end of a token, longest first.
var particles = []string{
	"에서는", "으로는", "이라는", "에게서", "까지는", "입니다", "합니다",
	"에서", "으로", "에게", "까지", "부터", "처럼", "보다", "이나", "라는", "하는", "하고",
	"은", "는", "이", "가", "을", "를", "의", "에", "와", "과", "도", "로", "만",
}

// Department names that end in a particle-like syllable (과, 의).
var keepWords = map[string]bool{
	"피부과": true, "치과": true, "내과": true, "외과": true, "안과": true, "성형외과": true,
	"정형외과": true, "산부인과": true, "이비인후과": true, "비뇨의학과": true, "소아과": true,
	"소아청소년과": true, "전문의": true, "한의": true,
}

var stopwords = map[string]bool{
	"그리고": true, "하지만": true, "그러나": true, "또한": true, "경우": true, "때문": true,
	"있습니다": true, "없습니다": true, "됩니다": true, "있는": true, "있을": true, "수": true,
	"이런": true, "저런": true, "그런": true, "많은": true, "위해": true, "통해": true, "대한": true,
	"the": true, "and": true, "for": true, "with": true, "that": true, "this": true, "are": true,
	"you": true, "your": true, "our": true, "can": true, "from": true, "have": true, "will": true,
}

// Extractor derives keywords and hashtags from word statistics. It is stateless.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns up to ten keywords ordered by importance and up to eight hashtags.
// The location+specialty phrase leads when both are known.
func (e *Extractor) Extract(text, specialty, location string) ([]string, []string) {
	specialty = strings.TrimSpace(specialty)
	location = strings.TrimSpace(location)

	keywords := make([]string, 0, maxKeywords)
	seen := make(map[string]bool)
	add := func(k string) {
		if k == "" || seen[k] || len(keywords) >= maxKeywords {
			return
		}
		seen[k] = true
		keywords = append(keywords, k)
	}

	if location != "" && specialty != "" {
		add(location + " " + specialty)
	}
	add(specialty)
	for _, term := range topTerms(text) {
		add(term)
	}

	hashtags := make([]string, 0, maxHashtags)
	tagSeen := make(map[string]bool)
	for _, k := range keywords {
		tag := Hashtag(k)
		if tag == "" || tagSeen[tag] {
			continue
		}
		tagSeen[tag] = true
		hashtags = append(hashtags, tag)
		if len(hashtags) == maxHashtags {
			break
		}
	}
	return keywords, hashtags
}

// Hashtag turns a phrase into a hashtag: spaces removed, '#' prefixed.
func Hashtag(phrase string) string {
	tag := strings.Join(strings.Fields(strings.TrimLeft(strings.TrimSpace(phrase), "#")), "")
	if tag == "" {
		return ""
	}
	return "#" + tag
}

// topTerms returns the text's content words by descending frequency, ties by first use.
func topTerms(text string) []string {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i, raw := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		term := stem(raw)
		if utf8.RuneCountInString(term) < minTokenLen || stopwords[term] || isNumeric(term) {
			continue
		}
		if _, ok := first[term]; !ok {
			first[term] = i
		}
		counts[term]++
	}

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return first[terms[i]] < first[terms[j]]
	})
	return terms
}

// stem strips one trailing particle, keeping at least two runes.
func stem(token string) string {
	if keepWords[token] {
		return token
	}
	for _, p := range particles {
		if strings.HasSuffix(token, p) {
			rest := strings.TrimSuffix(token, p)
			if utf8.RuneCountInString(rest) >= minTokenLen {
				return rest
			}
		}
	}
	return token
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MergeKeywords puts primary at the front of keywords unless it is already present.
func MergeKeywords(keywords []string, primary string) []string {
	primary = strings.TrimSpace(primary)
	if primary == "" {
		return keywords
	}
	for _, k := range keywords {
		if strings.EqualFold(k, primary) {
			return keywords
		}
	}
	return append([]string{primary}, keywords...)
}

// MergeHashtags appends the hashtags of extra not already in base, normalized with Hashtag.
func MergeHashtags(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool)
	for _, list := range [][]string{base, extra} {
		for _, h := range list {
			tag := Hashtag(h)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}
