package domain

// CatalogEntry maps one provider to its ordered model identifiers.
type CatalogEntry struct {
	Provider string
	Models   []string
}

// ProviderCatalog is the immutable provider → models mapping loaded at startup.
type ProviderCatalog struct {
	entries []CatalogEntry
	index   map[string]int
}

// NewProviderCatalog copies entries into a catalog. A repeated provider keeps its first entry.
func NewProviderCatalog(entries []CatalogEntry) *ProviderCatalog {
	c := &ProviderCatalog{
		entries: make([]CatalogEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}

	for _, e := range entries {
		if e.Provider == "" {
			continue
		}
		if _, exists := c.index[e.Provider]; exists {
			continue
		}
		models := make([]string, len(e.Models))
		copy(models, e.Models)
		c.index[e.Provider] = len(c.entries)
		c.entries = append(c.entries, CatalogEntry{Provider: e.Provider, Models: models})
	}

	return c
}

// Names returns provider names in catalog order.
func (c *ProviderCatalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Provider
	}
	return names
}

// Models returns a copy of the provider's models, or nil for an unknown provider.
func (c *ProviderCatalog) Models(provider string) []string {
	if c == nil {
		return nil
	}
	i, ok := c.index[provider]
	if !ok {
		return nil
	}
	models := make([]string, len(c.entries[i].Models))
	copy(models, c.entries[i].Models)
	return models
}

// HasModels reports whether the provider has at least one model.
func (c *ProviderCatalog) HasModels(provider string) bool {
	if c == nil {
		return false
	}
	i, ok := c.index[provider]
	return ok && len(c.entries[i].Models) > 0
}

// Len returns the number of providers.
func (c *ProviderCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
