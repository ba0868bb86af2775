package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidbz/linguist/internal/observability"
)

// DispatchPolicy bounds the dispatcher's retry loop.
type DispatchPolicy struct {
	// MaxAttempts is the number of outer provider selections.
	MaxAttempts int
	// AttemptTimeout is the hard limit on one provider call.
	AttemptTimeout time.Duration
	// FastThreshold is the latency at or under which an acceptable response is returned at once.
	FastThreshold time.Duration
}

// Dispatcher routes prompts to eligible providers with failure-aware retries.
type Dispatcher struct {
	catalog   *ProviderCatalog
	registry  ProviderRegistry
	health    ProviderHealth
	selection SelectionPolicy
	denials   *DenialClassifier
	policy    DispatchPolicy
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewDispatcher creates a new completion dispatcher (DI constructor).
func NewDispatcher(
	catalog *ProviderCatalog,
	registry ProviderRegistry,
	health ProviderHealth,
	selection SelectionPolicy,
	denials *DenialClassifier,
	policy DispatchPolicy,
	metrics *observability.Metrics,
) *Dispatcher {
	return &Dispatcher{
		catalog:   catalog,
		registry:  registry,
		health:    health,
		selection: selection,
		denials:   denials,
		policy:    policy,
		metrics:   metrics,
		now:       time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

type attemptResult struct {
	resp    *CompletionResponse
	outcome string
}

type callResult struct {
	resp *CompletionResponse
	err  error
}

// Complete returns the first fast acceptable response, else the first slow one,
// else ErrNoProviderAvailable.
func (d *Dispatcher) Complete(ctx context.Context, prompt string) (*CompletionResponse, error) {
	if prompt == "" {
		return nil, errors.New("prompt cannot be empty")
	}

	logger := observability.FromContext(ctx)

	var fallback *CompletionResponse

	for attempt := 0; attempt < d.policy.MaxAttempts && ctx.Err() == nil; attempt++ {
		eligible := d.health.Eligible(d.catalog, d.now())
		if len(eligible) == 0 {
			logger.Warn("no provider in catalog has models")
			break
		}

		providerName := d.selection.PickProvider(eligible)
		models := d.selection.ShuffleModels(d.catalog.Models(providerName))

		logger.Debug("provider selected",
			observability.Int("attempt", attempt+1),
			observability.String("provider", providerName),
			observability.Strings("eligible", eligible))

		for _, model := range models {
			result := d.attempt(ctx, providerName, model, prompt)

			switch result.outcome {
			case observability.OutcomeAccepted:
				return result.resp, nil
			case observability.OutcomeSlow:
				if fallback == nil {
					fallback = result.resp
				}
			}

			if ctx.Err() != nil {
				break
			}
		}
	}

	if fallback != nil {
		logger.Info("returning slow fallback response",
			observability.String("provider", fallback.Provider),
			observability.Duration("latency", fallback.Latency))
		return fallback, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dispatch interrupted: %w", err)
	}

	d.metrics.IncExhausted()
	logger.Warn("attempt budget exhausted", observability.Int("max_attempts", d.policy.MaxAttempts))

	return nil, ErrNoProviderAvailable
}

// attempt performs one (provider, model) call and classifies it.
func (d *Dispatcher) attempt(ctx context.Context, providerName, model, prompt string) attemptResult {
	ctx = observability.WithModel(observability.WithProvider(ctx, providerName), model)
	logger := observability.FromContext(ctx)

	started := d.now()

	provider, err := d.registry.Get(ctx, providerName)
	if err != nil {
		logger.Warn("provider lookup failed", observability.Error(err))
		return d.fail(providerName, observability.OutcomeError, started)
	}

	req := &CompletionRequest{
		Model:    model,
		Messages: []Message{{Role: "user", Content: prompt}},
	}

	resp, err := d.call(ctx, provider, req)
	elapsed := d.now().Sub(started)

	switch {
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		logger.Warn("completion timed out", observability.Duration("timeout", d.policy.AttemptTimeout))
		return d.fail(providerName, observability.OutcomeTimeout, started)
	case err != nil && ctx.Err() != nil:
		// The caller went away; that says nothing about the provider.
		return attemptResult{outcome: observability.OutcomeError}
	case err != nil:
		logger.Warn("completion failed", observability.Error(err))
		return d.fail(providerName, observability.OutcomeError, started)
	case resp == nil || strings.TrimSpace(resp.Content) == "":
		logger.Warn("completion returned no content")
		return d.fail(providerName, observability.OutcomeEmpty, started)
	}

	resp.Content = strings.TrimSpace(resp.Content)
	resp.Latency = elapsed
	if resp.Provider == "" {
		resp.Provider = providerName
	}

	if d.denials.IsDenial(resp.Content) {
		logger.Info("response classified as denial")
		d.metrics.ObserveAttempt(providerName, observability.OutcomeDenied, elapsed.Seconds())
		return attemptResult{outcome: observability.OutcomeDenied}
	}

	if elapsed > d.policy.FastThreshold {
		logger.Info("acceptable response above fast threshold", observability.Duration("latency", elapsed))
		d.metrics.ObserveAttempt(providerName, observability.OutcomeSlow, elapsed.Seconds())
		return attemptResult{resp: resp, outcome: observability.OutcomeSlow}
	}

	d.metrics.ObserveAttempt(providerName, observability.OutcomeAccepted, elapsed.Seconds())
	return attemptResult{resp: resp, outcome: observability.OutcomeAccepted}
}

// call enforces the hard per-attempt timeout even when the provider ignores its context.
func (d *Dispatcher) call(ctx context.Context, provider Provider, req *CompletionRequest) (*CompletionResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.policy.AttemptTimeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		resp, err := provider.Complete(attemptCtx, req)
		done <- callResult{resp: resp, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, context.DeadlineExceeded
		}
		return r.resp, r.err
	case <-attemptCtx.Done():
		return nil, attemptCtx.Err()
	}
}

func (d *Dispatcher) fail(providerName, outcome string, started time.Time) attemptResult {
	now := d.now()
	d.health.RecordFailure(providerName, now)
	d.metrics.ObserveAttempt(providerName, outcome, now.Sub(started).Seconds())
	return attemptResult{outcome: outcome}
}
