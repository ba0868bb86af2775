package resources

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/davidbz/linguist/internal/domain"
)

// ParseCatalog reads "name: model1,model2" lines. Blank lines and lines
// starting with # are ignored; any other line without a provider name is an error.
func ParseCatalog(r io.Reader) (*domain.ProviderCatalog, error) {
	var entries []domain.CatalogEntry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, list, found := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("catalog line %d: expected \"name: model1,model2\"", lineNo)
		}

		models := make([]string, 0, 4)
		for _, m := range strings.Split(list, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}

		entries = append(entries, domain.CatalogEntry{Provider: name, Models: models})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	return domain.NewProviderCatalog(entries), nil
}

// ParsePhrases reads one phrase per line, skipping blanks.
func ParsePhrases(r io.Reader) ([]string, error) {
	var phrases []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			phrases = append(phrases, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read phrases: %w", err)
	}

	return phrases, nil
}
