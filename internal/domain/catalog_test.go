package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/linguist/internal/domain"
)

func TestProviderCatalog(t *testing.T) {
	t.Run("should keep order and the first entry of a duplicate", func(t *testing.T) {
		catalog := domain.NewProviderCatalog([]domain.CatalogEntry{
			{Provider: "B", Models: []string{"b1"}},
			{Provider: "A", Models: []string{"a1", "a2"}},
			{Provider: "B", Models: []string{"other"}},
			{Provider: "", Models: []string{"x"}},
			{Provider: "Empty"},
		})

		require.Equal(t, []string{"B", "A", "Empty"}, catalog.Names())
		require.Equal(t, []string{"b1"}, catalog.Models("B"))
		require.Equal(t, 3, catalog.Len())
		require.True(t, catalog.HasModels("A"))
		require.False(t, catalog.HasModels("Empty"))
		require.False(t, catalog.HasModels("Unknown"))
		require.Nil(t, catalog.Models("Unknown"))
	})

	t.Run("should not expose internal slices", func(t *testing.T) {
		entries := []domain.CatalogEntry{{Provider: "A", Models: []string{"a1", "a2"}}}
		catalog := domain.NewProviderCatalog(entries)

		entries[0].Models[0] = "mutated"
		models := catalog.Models("A")
		models[1] = "mutated"

		require.Equal(t, []string{"a1", "a2"}, catalog.Models("A"))
	})

	t.Run("should tolerate a nil catalog", func(t *testing.T) {
		var catalog *domain.ProviderCatalog

		require.Nil(t, catalog.Names())
		require.Equal(t, 0, catalog.Len())
		require.False(t, catalog.HasModels("A"))
	})
}
