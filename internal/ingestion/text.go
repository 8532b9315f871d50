// Package ingestion normalizes user-supplied and generated text before it enters the
// pipeline: HTML is reduced to text, markdown decoration is removed where unwanted, and
// whitespace is made canonical.
package ingestion

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	spaceRun      = regexp.MustCompile(`[ \t\f\v\p{Zs}]+`)
	blankLineRun  = regexp.MustCompile(`\n\n\n+`)
	zeroWidthRune = strings.NewReplacer("\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "")
)

// CleanText cleans and normalizes text content while preserving structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	// 1. Normalize line endings (CRLF → LF) and drop zero-width characters
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = zeroWidthRune.Replace(content)

	// 2. Process each line
	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}
	result := strings.Join(cleanedLines, "\n")

	// 3. Remove excessive blank lines (max 1 empty line between paragraphs)
	result = blankLineRun.ReplaceAllString(result, "\n\n")

	return strings.TrimSpace(result)
}

// cleanLine cleans a single line while preserving list markers and headings
func cleanLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ""
	}
	return spaceRun.ReplaceAllString(trimmed, " ")
}

// Normalize turns raw user input into clean text. HTML input is reduced to its text first.
func Normalize(content string) (string, error) {
	if LooksLikeHTML(content) {
		text, err := ExtractText(content)
		if err != nil {
			return "", err
		}
		content = text
	}
	return CleanText(content), nil
}

// IngestFromFile reads a file and returns its normalized text
func IngestFromFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %w", err)
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return Normalize(string(content))
}
