package routing

import (
	"sync"
	"time"

	"github.com/davidbz/linguist/internal/domain"
	"github.com/davidbz/linguist/internal/observability"
)

// FailureTracker remembers each provider's most recent failure.
// It is safe for concurrent use.
type FailureTracker struct {
	mu       sync.Mutex
	cooldown time.Duration
	failures map[string]time.Time
	metrics  *observability.Metrics
}

// NewFailureTracker creates a tracker with the given cooldown window.
func NewFailureTracker(cooldown time.Duration, metrics *observability.Metrics) *FailureTracker {
	return &FailureTracker{
		mu:       sync.Mutex{},
		cooldown: cooldown,
		failures: make(map[string]time.Time),
		metrics:  metrics,
	}
}

// Eligible returns, in catalog order, the providers with at least one model whose
// last failure is older than the cooldown. When none qualify, every failure
// record is cleared and all providers with models become eligible again.
func (t *FailureTracker) Eligible(catalog *domain.ProviderCatalog, now time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := catalog.Names()
	eligible := make([]string, 0, len(names))
	withModels := make([]string, 0, len(names))

	for _, name := range names {
		if !catalog.HasModels(name) {
			continue
		}
		withModels = append(withModels, name)

		failedAt, failed := t.failures[name]
		if !failed || now.Sub(failedAt) > t.cooldown {
			eligible = append(eligible, name)
		}
	}

	if len(eligible) == 0 && len(withModels) > 0 {
		t.failures = make(map[string]time.Time)
		t.metrics.IncTrackerReset()
		return withModels
	}

	return eligible
}

// RecordFailure overwrites the provider's last-failure timestamp.
func (t *FailureTracker) RecordFailure(provider string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failures[provider] = at
}

// Snapshot returns a copy of the current failure records.
func (t *FailureTracker) Snapshot() map[string]time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]time.Time, len(t.failures))
	for k, v := range t.failures {
		out[k] = v
	}
	return out
}
