package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/davidbz/linguist/internal/observability"
)

// Aggregator runs every rule over a submission and synthesizes the final narrative.
type Aggregator struct {
	rules     []Rule
	synthesis Template
	evaluator *RuleEvaluator
	completer Completer
	store     ReportStore
	newID     func() string
}

// NewAggregator creates a new report aggregator (DI constructor).
// Rules are evaluated in the given order.
func NewAggregator(
	rules []Rule,
	synthesis Template,
	evaluator *RuleEvaluator,
	completer Completer,
	store ReportStore,
) *Aggregator {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)

	return &Aggregator{
		rules:     ordered,
		synthesis: synthesis,
		evaluator: evaluator,
		completer: completer,
		store:     store,
		newID:     uuid.NewString,
	}
}

// WithIDGenerator replaces the report identifier source. Used by tests.
func (a *Aggregator) WithIDGenerator(newID func() string) *Aggregator {
	a.newID = newID
	return a
}

// LoadedRules returns how many rules have their reference text.
func (a *Aggregator) LoadedRules() int {
	n := 0
	for _, r := range a.rules {
		if r.LoadErr == nil {
			n++
		}
	}
	return n
}

// Analyze evaluates the submission against all rules.
// It returns ErrConversationGone (wrapped) when progress delivery finds the conversation removed.
func (a *Aggregator) Analyze(ctx context.Context, sub Submission, progress ProgressReporter) (*Report, error) {
	logger := observability.FromContext(ctx)

	if progress == nil {
		progress = noopProgress{}
	}

	total := a.LoadedRules()
	completed := 0
	findings := make([]RuleResult, 0, len(a.rules))

	for _, rule := range a.rules {
		if rule.LoadErr != nil {
			logger.Warn("skipping rule without reference text",
				observability.String("rule", rule.ID),
				observability.Error(rule.LoadErr))
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis aborted: %w", err)
		}

		result := a.evaluator.Evaluate(ctx, sub, rule)
		if result.Applicable {
			findings = append(findings, result)
		}
		completed++

		if err := a.report(ctx, progress.Update(ctx, completed, total)); err != nil {
			return nil, err
		}
	}

	if err := a.report(ctx, progress.Finish(ctx)); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis aborted: %w", err)
	}

	logger.Info("rule evaluation finished",
		observability.Int("rules", total),
		observability.Int("applicable", len(findings)))

	if len(findings) == 0 {
		return &Report{
			Narrative:    NothingFoundMessage,
			NothingFound: true,
		}, nil
	}

	parts := make([]string, len(findings))
	for i, f := range findings {
		parts[i] = StripSponsor(f.Text)
	}
	cleaned := CleanReport(strings.Join(parts, "\n"))

	id := a.newID()
	ctx = observability.WithReportID(ctx, id)

	path, err := a.store.Save(ctx, id, cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	return &Report{
		ID:           id,
		Narrative:    a.synthesize(ctx, cleaned),
		Content:      cleaned,
		ArtifactPath: path,
		Findings:     findings,
	}, nil
}

type noopProgress struct{}

func (noopProgress) Update(context.Context, int, int) error { return nil }
func (noopProgress) Finish(context.Context) error           { return nil }

// report classifies a progress delivery error; only a vanished conversation is fatal.
func (a *Aggregator) report(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConversationGone):
		return fmt.Errorf("analysis aborted: %w", err)
	default:
		observability.FromContext(ctx).Warn("progress update failed", observability.Error(err))
		return nil
	}
}

func (a *Aggregator) synthesize(ctx context.Context, report string) string {
	if !a.synthesis.Usable() {
		err := a.synthesis.Err
		if err == nil {
			err = errors.New("synthesis template is empty")
		}
		return ResourceError(err)
	}

	resp, err := a.completer.Complete(ctx, BuildSynthesisPrompt(a.synthesis.Text, report))
	switch {
	case errors.Is(err, ErrNoProviderAvailable):
		return NoProviderMessage
	case err != nil:
		observability.FromContext(ctx).Warn("synthesis failed", observability.Error(err))
		return ResourceError(err)
	}

	return resp.Content
}
