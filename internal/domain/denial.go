package domain

import (
	"strings"
	"unicode"
)

// DenialClassifier separates refusals and off-script boilerplate from usable responses.
type DenialClassifier struct {
	phrases []string
	script  *unicode.RangeTable
}

// NewDenialClassifier builds a classifier. Phrases are matched case-insensitively;
// a nil script defaults to Cyrillic.
func NewDenialClassifier(phrases []string, script *unicode.RangeTable) *DenialClassifier {
	if script == nil {
		script = unicode.Cyrillic
	}

	normalized := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		normalized = append(normalized, p)
	}

	return &DenialClassifier{
		phrases: normalized,
		script:  script,
	}
}

// IsDenial reports whether text is a refusal rather than substantive content.
func (c *DenialClassifier) IsDenial(text string) bool {
	if !c.containsScript(text) {
		return true
	}

	lower := strings.ToLower(text)
	for _, phrase := range c.phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	return false
}

func (c *DenialClassifier) containsScript(text string) bool {
	for _, r := range text {
		if unicode.Is(c.script, r) {
			return true
		}
	}
	return false
}
