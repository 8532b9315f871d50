package ingestion

import (
	"regexp"
	"strings"
)

var (
	codeFence    = regexp.MustCompile("(?m)^[ \t]*```[a-zA-Z]*[ \t]*$")
	headingMark  = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	emphasisMark = regexp.MustCompile(`\*\*|__`)
	linkMarkup   = regexp.MustCompile(`\[([^\]\n]+)\]\([^)\n]*\)`)
)

// StripMarkdown removes markdown decoration a model tends to add to prose: code fences,
// heading hashes, bold markers and link syntax (the link text is kept). List markers
// are left alone.
func StripMarkdown(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = headingMark.ReplaceAllString(content, "")
	content = linkMarkup.ReplaceAllString(content, "$1")
	content = emphasisMark.ReplaceAllString(content, "")
	return CleanText(strings.TrimSpace(content))
}
