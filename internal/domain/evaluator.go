package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/davidbz/linguist/internal/observability"
)

// RuleEvaluator checks one submission against one rule.
type RuleEvaluator struct {
	completer Completer
}

// NewRuleEvaluator creates a new rule evaluator (DI constructor).
func NewRuleEvaluator(completer Completer) *RuleEvaluator {
	return &RuleEvaluator{
		completer: completer,
	}
}

// Evaluate never returns an error: failures are embedded in the result text.
func (e *RuleEvaluator) Evaluate(ctx context.Context, sub Submission, rule Rule) RuleResult {
	logger := observability.FromContext(ctx)

	if rule.LoadErr != nil {
		return RuleResult{
			RuleID: rule.ID,
			Failed: true,
			Text:   FormatRuleText(rule.ID, ResourceError(rule.LoadErr)),
		}
	}

	if !rule.Template.Usable() {
		err := rule.Template.Err
		if err == nil {
			err = errors.New("rule prompt template is empty")
		}
		return RuleResult{
			RuleID: rule.ID,
			Failed: true,
			Text:   FormatRuleText(rule.ID, ResourceError(err)),
		}
	}

	prompt := BuildRulePrompt(rule.Template.Text, rule.Reference, sub.Text)

	resp, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		logger.Warn("rule evaluation failed",
			observability.String("rule", rule.ID),
			observability.Error(err))

		body := ResourceError(err)
		if errors.Is(err, ErrNoProviderAvailable) {
			body = NoProviderMessage
		}
		return RuleResult{
			RuleID: rule.ID,
			Failed: true,
			Text:   FormatRuleText(rule.ID, body),
		}
	}

	text := FormatRuleText(rule.ID, resp.Content)
	applicable := strings.Contains(text, ApplicableMarker)

	logger.Debug("rule evaluated",
		observability.String("rule", rule.ID),
		observability.Bool("applicable", applicable),
		observability.String("provider", resp.Provider))

	return RuleResult{
		RuleID:     rule.ID,
		Applicable: applicable,
		Text:       text,
	}
}
