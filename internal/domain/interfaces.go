package domain

import (
	"context"
	"time"
)

// Provider represents any LLM provider.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider identifier.
	Name() string
}

// ProviderRegistry manages available providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider Provider) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, providerName string) (Provider, error)

	// List returns all available providers.
	List(ctx context.Context) ([]string, error)
}

// ProviderHealth tracks provider failures and derives the eligible set.
type ProviderHealth interface {
	// Eligible returns the catalog providers that may be attempted at now.
	Eligible(catalog *ProviderCatalog, now time.Time) []string

	// RecordFailure overwrites the provider's last-failure timestamp.
	RecordFailure(provider string, at time.Time)
}

// SelectionPolicy picks providers and orders models for the dispatcher.
type SelectionPolicy interface {
	// PickProvider chooses one name from a non-empty eligible set.
	PickProvider(eligible []string) string

	// ShuffleModels returns the models in attempt order. The input is not modified.
	ShuffleModels(models []string) []string
}

// Completer turns a prompt into an acceptable completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (*CompletionResponse, error)
}

// ReportStore persists report artifacts.
type ReportStore interface {
	// Save writes content under id and returns the artifact path.
	Save(ctx context.Context, id, content string) (string, error)

	// Remove deletes a previously saved artifact.
	Remove(ctx context.Context, path string) error
}

// ProgressReporter receives aggregation progress.
// Implementations return ErrConversationGone when the caller's conversation no longer exists.
type ProgressReporter interface {
	Update(ctx context.Context, done, total int) error
	Finish(ctx context.Context) error
}

// Button is one entry of an inline action menu.
type Button struct {
	Text   string `json:"text"`
	Action string `json:"action"`
}

// Attachment is a file sent to the caller.
type Attachment struct {
	Path    string
	Name    string
	Caption string
}

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	// SendText sends a plain message.
	SendText(ctx context.Context, conversation, text string) error

	// SendProgress sends a message that will later be edited in place and returns its reference.
	SendProgress(ctx context.Context, conversation, text string) (string, error)

	// EditProgress replaces the text of a progress message.
	EditProgress(ctx context.Context, conversation, messageRef, text string) error

	// SendDocument sends a file attachment.
	SendDocument(ctx context.Context, conversation string, doc Attachment) error

	// SendImage sends an image attachment.
	SendImage(ctx context.Context, conversation string, img Attachment) error

	// SendMenu sends text with an inline button menu.
	SendMenu(ctx context.Context, conversation, text string, buttons []Button) error
}
