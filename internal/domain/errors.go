package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProviderAvailable indicates the dispatcher exhausted its attempt budget.
	ErrNoProviderAvailable = errors.New("no provider available")

	// ErrConversationGone indicates the caller's conversation was removed mid-flight.
	ErrConversationGone = errors.New("conversation gone")

	// ErrProviderNotRegistered indicates a catalog provider has no configured client.
	ErrProviderNotRegistered = errors.New("provider not registered")
)

// User-visible terminal strings.
const (
	NothingFoundMessage = "No violations found. That does not mean anything yet."
	NoProviderMessage   = "Error: no completion provider returned a response."
)

// ResourceError renders a configuration error as user-visible text.
func ResourceError(err error) string {
	return fmt.Sprintf("Error: %v", err)
}
