package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var htmlTag = regexp.MustCompile(`(?i)<(?:html|body|p|div|br|span|h[1-6]|ul|ol|li|article|section|strong|em|b|i|a)\b[^>]*>`)

// noiseSelector lists elements whose text never belongs to the content.
const noiseSelector = "script, style, noscript, nav, footer, header, iframe, form, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup"

// blockSelector lists elements that end a line of text.
const blockSelector = "p, div, h1, h2, h3, h4, h5, h6, li, blockquote, tr, br, article, section"

// LooksLikeHTML reports whether content contains common HTML markup.
func LooksLikeHTML(content string) bool {
	return htmlTag.MatchString(content)
}

// ExtractText parses HTML and returns the visible text, one block element per line.
func ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseSelector).Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return CleanText(root.Text()), nil
}
