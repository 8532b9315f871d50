package rewriting

import (
	"strings"
	"unicode/utf8"

	"github.com/jonathan/medcontent/internal/types"
)

// lengthTolerancePercent is the accepted deviation from the target length
const lengthTolerancePercent = 0.3

// StyleChecksResult holds the results of style validation
type StyleChecksResult struct {
	// AvoidedPhrases lists profile avoid-phrases that still appear in the text.
	AvoidedPhrases []string
	// MissingSignatures lists signature phrases the text does not use.
	MissingSignatures []string
	TargetLength      bool
}

// OK reports whether every check passed. Missing signature phrases are advisory.
func (r StyleChecksResult) OK() bool {
	return len(r.AvoidedPhrases) == 0 && r.TargetLength
}

// ValidateStyle checks a rewritten post against the owner's profile and target length.
func ValidateStyle(text string, profile types.StyleProfile, targetLength int) StyleChecksResult {
	lower := strings.ToLower(text)
	return StyleChecksResult{
		AvoidedPhrases:    findPhrases(lower, profile.AvoidPhrases, true),
		MissingSignatures: findPhrases(lower, profile.SignaturePhrases, false),
		TargetLength:      checkTargetLength(utf8.RuneCountInString(text), targetLength),
	}
}

// findPhrases returns the phrases that are present (present=true) or absent in text,
// case-insensitively and without duplicates. Returns nil when there are none.
func findPhrases(lower string, phrases []string, present bool) []string {
	var found []string
	seen := make(map[string]bool)
	for _, phrase := range phrases {
		normalized := strings.ToLower(strings.TrimSpace(phrase))
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		if strings.Contains(lower, normalized) == present {
			found = append(found, phrase)
		}
	}
	return found
}

// checkTargetLength checks if length is within tolerance of target
func checkTargetLength(length, target int) bool {
	if target <= 0 {
		return true
	}
	diff := float64(length - target)
	if diff < 0 {
		diff = -diff
	}
	return diff <= float64(target)*lengthTolerancePercent
}
