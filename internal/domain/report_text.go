package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// ApplicableMarker is the verdict line a rule prompt asks the model to emit.
const ApplicableMarker = "Applicability: Yes"

// Placeholders substituted into prompt templates.
const (
	PlaceholderReference  = "{reference}"
	PlaceholderSubmission = "{submission}"
	PlaceholderReport     = "{report}"
)

const progressCells = 10

//nolint:gochecknoglobals // fixed rule tables
var (
	boilerplateLines = map[string]struct{}{
		"```markdown": {},
		"```md":       {},
		"```":         {},
	}

	sponsorLine = regexp.MustCompile(`(?i)^[\s#>*_\-]*sponsor`)
)

// BuildRulePrompt substitutes the rule's reference and the submission into the template.
func BuildRulePrompt(template, reference, submission string) string {
	return strings.NewReplacer(
		PlaceholderReference, reference,
		PlaceholderSubmission, submission,
	).Replace(template)
}

// BuildSynthesisPrompt substitutes the cleaned report into the synthesis template.
func BuildSynthesisPrompt(template, report string) string {
	return strings.ReplaceAll(template, PlaceholderReport, report)
}

// FormatRuleText labels a rule's raw output.
func FormatRuleText(ruleID, body string) string {
	return fmt.Sprintf("Rule %s:\n%s\n", ruleID, body)
}

// StripSponsor cuts text at the first sponsor section heading.
func StripSponsor(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if sponsorLine.MatchString(line) {
			return strings.TrimRight(strings.Join(lines[:i], "\n"), " \n")
		}
	}
	return text
}

// CleanReport removes code-fence markers and any trailing sponsor section.
func CleanReport(report string) string {
	lines := strings.Split(report, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, skip := boilerplateLines[strings.TrimSpace(line)]; skip {
			continue
		}
		kept = append(kept, line)
	}
	return StripSponsor(strings.Join(kept, "\n"))
}

// ChunkText splits text into segments of at most size runes.
func ChunkText(text string, size int) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if size <= 0 || len(runes) <= size {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// ProgressBar renders a 10-cell bar with an integer percentage, e.g. "[███       ] 30%".
func ProgressBar(done, total int) string {
	percent := 100
	if total > 0 {
		percent = min(done*100/total, 100)
	}
	filled := percent / progressCells
	return fmt.Sprintf("[%s%s] %d%%",
		strings.Repeat("█", filled),
		strings.Repeat(" ", progressCells-filled),
		percent)
}
