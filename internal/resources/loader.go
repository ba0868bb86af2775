// Package resources loads the static files the service reads once at startup.
// A missing or unreadable file never stops the process: the affected consumer
// receives an error it renders as user-visible text.
package resources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/davidbz/linguist/internal/domain"
	"github.com/davidbz/linguist/internal/observability"
)

// ErrResourceMissing indicates a required resource file does not exist.
var ErrResourceMissing = errors.New("resource not found")

// File names inside the resource directory.
const (
	CatalogFile   = "providers.txt"
	EndpointsFile = "endpoints.yaml"
	DenialsFile   = "denials.txt"
	PromptFile    = "prompt.txt"
	SynthesisFile = "synthesis.txt"
	RulesFile     = "rules.yaml"
	QRCodeFile    = "qrcode.png"
	BlankFile     = "blank.doc"
)

// Endpoint describes how to reach one catalog provider.
type Endpoint struct {
	Kind       string `yaml:"kind"` // openai, gemini or echo
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	MaxRetries int    `yaml:"max_retries"`
}

type endpointsDocument struct {
	Providers map[string]Endpoint `yaml:"providers"`
}

type ruleEntry struct {
	ID        string `yaml:"id"`
	Reference string `yaml:"reference"`
	Prompt    string `yaml:"prompt"`
}

type rulesDocument struct {
	Rules []ruleEntry `yaml:"rules"`
}

// Bundle holds every static resource. It is never mutated after Load.
type Bundle struct {
	Dir          string
	Catalog      *domain.ProviderCatalog
	CatalogErr   error
	Endpoints    map[string]Endpoint
	EndpointsErr error
	Denials      []string
	DenialsErr   error
	RuleTemplate domain.Template
	Synthesis    domain.Template
	Rules        []domain.Rule
	RulesErr     error
	QRCodePath   string
	BlankPath    string
}

// Load reads the resource directory.
func Load(ctx context.Context, dir string) *Bundle {
	logger := observability.FromContext(ctx)

	b := &Bundle{
		Dir:        dir,
		QRCodePath: filepath.Join(dir, QRCodeFile),
		BlankPath:  filepath.Join(dir, BlankFile),
	}

	b.Catalog, b.CatalogErr = loadCatalog(filepath.Join(dir, CatalogFile))
	if b.CatalogErr != nil {
		b.Catalog = domain.NewProviderCatalog(nil)
	}

	b.Endpoints, b.EndpointsErr = loadEndpoints(filepath.Join(dir, EndpointsFile))
	b.Denials, b.DenialsErr = loadDenials(filepath.Join(dir, DenialsFile))
	b.RuleTemplate = loadTemplate(dir, PromptFile)
	b.Synthesis = loadTemplate(dir, SynthesisFile)
	b.Rules, b.RulesErr = loadRules(dir, b.RuleTemplate)

	for name, err := range map[string]error{
		CatalogFile:   b.CatalogErr,
		EndpointsFile: b.EndpointsErr,
		DenialsFile:   b.DenialsErr,
		PromptFile:    b.RuleTemplate.Err,
		SynthesisFile: b.Synthesis.Err,
		RulesFile:     b.RulesErr,
	} {
		if err != nil {
			logger.Warn("resource unavailable",
				observability.String("resource", name),
				observability.Error(err))
		}
	}

	logger.Info("resources loaded",
		observability.String("dir", dir),
		observability.Strings("providers", b.Catalog.Names()),
		observability.Int("rules", len(b.Rules)),
		observability.Int("denial_phrases", len(b.Denials)))

	return b
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrResourceMissing, path)
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func loadCatalog(path string) (*domain.ProviderCatalog, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(bytes.NewReader(data))
}

func loadDenials(path string) ([]string, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePhrases(bytes.NewReader(data))
}

func loadEndpoints(path string) (map[string]Endpoint, error) {
	data, err := readFile(path)
	if err != nil {
		return map[string]Endpoint{}, err
	}

	var doc endpointsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return map[string]Endpoint{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if doc.Providers == nil {
		doc.Providers = map[string]Endpoint{}
	}
	return doc.Providers, nil
}

func loadTemplate(dir, name string) domain.Template {
	path := filepath.Join(dir, name)
	data, err := readFile(path)
	if err != nil {
		return domain.Template{Name: name, Err: err}
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return domain.Template{Name: name, Err: fmt.Errorf("%w: %s is empty", ErrResourceMissing, path)}
	}
	return domain.Template{Name: name, Text: text}
}

// loadRules keeps manifest order. A rule whose reference cannot be read is kept
// with LoadErr set so callers can report it.
func loadRules(dir string, shared domain.Template) ([]domain.Rule, error) {
	data, err := readFile(filepath.Join(dir, RulesFile))
	if err != nil {
		return nil, err
	}

	var doc rulesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", RulesFile, err)
	}

	rules := make([]domain.Rule, 0, len(doc.Rules))
	seen := make(map[string]struct{}, len(doc.Rules))
	for i, entry := range doc.Rules {
		if entry.ID == "" {
			return nil, fmt.Errorf("%s: rule %d has no id", RulesFile, i+1)
		}
		if _, dup := seen[entry.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate rule id %q", RulesFile, entry.ID)
		}
		seen[entry.ID] = struct{}{}

		rule := domain.Rule{ID: entry.ID, Template: shared}
		if entry.Prompt != "" {
			rule.Template = loadTemplate(dir, entry.Prompt)
		}

		refName := entry.Reference
		if refName == "" {
			refName = filepath.Join("references", entry.ID+".txt")
		}
		ref, refErr := readFile(filepath.Join(dir, refName))
		switch {
		case refErr != nil:
			rule.LoadErr = refErr
		case strings.TrimSpace(string(ref)) == "":
			rule.LoadErr = fmt.Errorf("%w: %s is empty", ErrResourceMissing, refName)
		default:
			rule.Reference = strings.TrimSpace(string(ref))
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

// RulePromptError returns the user-visible error when rule evaluation cannot start.
func (b *Bundle) RulePromptError() string {
	if b.RulesErr != nil {
		return domain.ResourceError(b.RulesErr)
	}
	if b.RuleTemplate.Err != nil {
		return domain.ResourceError(b.RuleTemplate.Err)
	}
	return ""
}
