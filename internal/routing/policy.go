package routing

import (
	"math/rand"
	"sync"
	"time"
)

// RandomPolicy picks providers uniformly at random and shuffles model order.
// A fixed seed makes the sequence reproducible.
type RandomPolicy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPolicy creates a policy. A zero seed uses the current time.
func NewRandomPolicy(seed int64) *RandomPolicy {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomPolicy{
		mu:  sync.Mutex{},
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // load spreading, not security
	}
}

// PickProvider chooses one name from a non-empty eligible set.
func (p *RandomPolicy) PickProvider(eligible []string) string {
	if len(eligible) == 0 {
		return ""
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return eligible[p.rng.Intn(len(eligible))]
}

// ShuffleModels returns a shuffled copy of models.
func (p *RandomPolicy) ShuffleModels(models []string) []string {
	out := make([]string, len(models))
	copy(out, models)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
