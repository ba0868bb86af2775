// Package provider builds completion providers for every catalog entry.
package provider

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/davidbz/linguist/internal/domain"
	"github.com/davidbz/linguist/internal/observability"
	"github.com/davidbz/linguist/internal/provider/echo"
	"github.com/davidbz/linguist/internal/provider/gemini"
	"github.com/davidbz/linguist/internal/provider/openai"
	"github.com/davidbz/linguist/internal/resources"
)

// Endpoint kinds understood by the factory.
const (
	KindOpenAI = "openai"
	KindGemini = "gemini"
	KindEcho   = "echo"
)

// New creates the provider for one catalog entry.
func New(ctx context.Context, entry domain.CatalogEntry, endpoint resources.Endpoint) (domain.Provider, error) {
	apiKey := ""
	if endpoint.APIKeyEnv != "" {
		apiKey = os.Getenv(endpoint.APIKeyEnv)
	}

	switch endpoint.Kind {
	case KindOpenAI, "":
		p, err := openai.NewProvider(openai.Config{
			Name:       entry.Provider,
			APIKey:     apiKey,
			BaseURL:    endpoint.BaseURL,
			MaxRetries: endpoint.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindGemini:
		p, err := gemini.NewProvider(ctx, gemini.Config{
			Name:    entry.Provider,
			APIKey:  apiKey,
			BaseURL: endpoint.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindEcho:
		return echo.NewProvider(entry.Provider, entry.Models...), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", endpoint.Kind)
	}
}

// RegisterCatalog registers a provider for every catalog entry that has an endpoint.
// Entries that cannot be built are logged and skipped; the dispatcher treats them
// as failing providers. The joined error lists every skipped entry.
func RegisterCatalog(
	ctx context.Context,
	registry domain.ProviderRegistry,
	catalog *domain.ProviderCatalog,
	endpoints map[string]resources.Endpoint,
) error {
	logger := observability.FromContext(ctx)

	var errs []error
	for _, name := range catalog.Names() {
		endpoint, ok := endpoints[name]
		if !ok {
			errs = append(errs, fmt.Errorf("provider %s: no endpoint configured", name))
			continue
		}

		entry := domain.CatalogEntry{Provider: name, Models: catalog.Models(name)}
		p, err := New(ctx, entry, endpoint)
		if err != nil {
			errs = append(errs, fmt.Errorf("provider %s: %w", name, err))
			continue
		}

		if err := registry.Register(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("provider %s: %w", name, err))
			continue
		}

		logger.Info("provider registered",
			observability.String("provider", name),
			observability.String("kind", endpoint.Kind),
			observability.Int("models", len(entry.Models)))
	}

	err := errors.Join(errs...)
	if err != nil {
		logger.Warn("some providers are unavailable", observability.Error(err))
	}
	return err
}
