// Package echo provides an offline provider that echoes back input messages.
// It implements the domain.Provider interface without making external API calls,
// which makes it usable for local runs and tests of the dispatch pipeline.
package echo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidbz/linguist/internal/domain"
	"github.com/davidbz/linguist/internal/observability"
)

const defaultName = "echo"

// Provider implements the domain.Provider interface for echo testing.
type Provider struct {
	name            string
	supportedModels map[string]bool
}

// NewProvider creates a new echo provider.
// With no models listed every model name is accepted.
func NewProvider(name string, models ...string) *Provider {
	if name == "" {
		name = defaultName
	}

	supported := make(map[string]bool, len(models))
	for _, m := range models {
		supported[m] = true
	}

	return &Provider{
		name:            name,
		supportedModels: supported,
	}
}

// Complete sends a completion request and returns the echoed response.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if !p.IsModelSupported(req.Model) {
		return nil, fmt.Errorf("model %s is not supported by echo provider", req.Model)
	}

	logger := observability.FromContext(ctx)
	logger.Debug("echoing request")

	echoContent := buildEchoContent(req.Messages)

	// Echo returns the same size it received.
	promptTokens := countTokens(echoContent)
	completionTokens := promptTokens

	logger.Debug("echo completed",
		observability.Int("prompt_tokens", promptTokens),
		observability.Int("completion_tokens", completionTokens),
	)

	return &domain.CompletionResponse{
		ID:       fmt.Sprintf("echo-%d", time.Now().UnixNano()),
		Model:    req.Model,
		Provider: p.name,
		Content:  echoContent,
		Usage: domain.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		FinishTime: time.Now(),
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// IsModelSupported checks if the provider accepts the given model.
func (p *Provider) IsModelSupported(model string) bool {
	return len(p.supportedModels) == 0 || p.supportedModels[model]
}

// buildEchoContent constructs the echo response from request messages.
func buildEchoContent(messages []domain.Message) string {
	if len(messages) == 0 {
		return ""
	}

	var builder strings.Builder
	for _, msg := range messages {
		builder.WriteString(fmt.Sprintf("[%s]: %s\n", msg.Role, msg.Content))
	}
	return builder.String()
}

// countTokens performs simple word-based token counting.
func countTokens(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Fields(content))
}
