package routing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/linguist/internal/domain"
	"github.com/davidbz/linguist/internal/routing"
)

func testCatalog() *domain.ProviderCatalog {
	return domain.NewProviderCatalog([]domain.CatalogEntry{
		{Provider: "alpha", Models: []string{"a-1", "a-2"}},
		{Provider: "beta", Models: []string{"b-1"}},
		{Provider: "empty", Models: nil},
	})
}

func TestFailureTracker_Eligible(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cooldown := 30 * time.Minute

	t.Run("should return providers with models in catalog order", func(t *testing.T) {
		tracker := routing.NewFailureTracker(cooldown, nil)

		require.Equal(t, []string{"alpha", "beta"}, tracker.Eligible(testCatalog(), base))
	})

	t.Run("should exclude a failed provider until the cooldown elapses", func(t *testing.T) {
		tracker := routing.NewFailureTracker(cooldown, nil)
		tracker.RecordFailure("alpha", base)

		require.Equal(t, []string{"beta"}, tracker.Eligible(testCatalog(), base.Add(time.Minute)))
		require.Equal(t, []string{"beta"}, tracker.Eligible(testCatalog(), base.Add(cooldown)))
		require.Equal(t, []string{"alpha", "beta"}, tracker.Eligible(testCatalog(), base.Add(cooldown+time.Second)))
	})

	t.Run("should refresh the timestamp on repeated failure", func(t *testing.T) {
		tracker := routing.NewFailureTracker(cooldown, nil)
		tracker.RecordFailure("alpha", base)
		tracker.RecordFailure("alpha", base.Add(20*time.Minute))

		require.Equal(t, []string{"beta"}, tracker.Eligible(testCatalog(), base.Add(cooldown+time.Second)))
	})

	t.Run("should clear all records when every provider is cooling down", func(t *testing.T) {
		tracker := routing.NewFailureTracker(cooldown, nil)
		tracker.RecordFailure("alpha", base)
		tracker.RecordFailure("beta", base)

		eligible := tracker.Eligible(testCatalog(), base.Add(time.Minute))

		require.Equal(t, []string{"alpha", "beta"}, eligible)
		require.Empty(t, tracker.Snapshot())
	})

	t.Run("should return nothing for a catalog without models", func(t *testing.T) {
		tracker := routing.NewFailureTracker(cooldown, nil)
		catalog := domain.NewProviderCatalog([]domain.CatalogEntry{{Provider: "empty"}})

		require.Empty(t, tracker.Eligible(catalog, base))
	})
}

func TestFailureTracker_Snapshot(t *testing.T) {
	tracker := routing.NewFailureTracker(time.Minute, nil)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tracker.RecordFailure("alpha", at)

	snapshot := tracker.Snapshot()
	snapshot["beta"] = at

	require.Equal(t, map[string]time.Time{"alpha": at}, tracker.Snapshot())
}
