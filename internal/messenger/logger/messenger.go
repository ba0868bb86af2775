// Package logger is a domain.Messenger that only writes log lines.
// It is used when no outbound transport is configured.
package logger

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/davidbz/linguist/internal/domain"
	"github.com/davidbz/linguist/internal/observability"
)

// Messenger logs every outbound message.
type Messenger struct {
	mu   sync.RWMutex
	gone map[string]struct{}
}

// NewMessenger creates a new logging messenger.
func NewMessenger() *Messenger {
	return &Messenger{
		gone: make(map[string]struct{}),
	}
}

// SendText logs a plain message.
func (m *Messenger) SendText(ctx context.Context, conversation, text string) error {
	if err := m.check(conversation); err != nil {
		return err
	}
	observability.FromContext(ctx).Info("outbound text",
		observability.String("conversation", conversation),
		observability.String("text", text))
	return nil
}

// SendProgress logs a progress message and returns a fresh message reference.
func (m *Messenger) SendProgress(ctx context.Context, conversation, text string) (string, error) {
	if err := m.check(conversation); err != nil {
		return "", err
	}
	ref := uuid.NewString()
	observability.FromContext(ctx).Info("outbound progress",
		observability.String("conversation", conversation),
		observability.String("message_ref", ref),
		observability.String("text", text))
	return ref, nil
}

// EditProgress logs the new text of a progress message.
func (m *Messenger) EditProgress(ctx context.Context, conversation, messageRef, text string) error {
	if err := m.check(conversation); err != nil {
		return err
	}
	observability.FromContext(ctx).Info("outbound progress edit",
		observability.String("conversation", conversation),
		observability.String("message_ref", messageRef),
		observability.String("text", text))
	return nil
}

// SendDocument logs a file attachment without reading it.
func (m *Messenger) SendDocument(ctx context.Context, conversation string, doc domain.Attachment) error {
	return m.sendFile(ctx, conversation, "document", doc)
}

// SendImage logs an image attachment without reading it.
func (m *Messenger) SendImage(ctx context.Context, conversation string, img domain.Attachment) error {
	return m.sendFile(ctx, conversation, "image", img)
}

// SendMenu logs the menu text and its button actions.
func (m *Messenger) SendMenu(ctx context.Context, conversation, text string, buttons []domain.Button) error {
	if err := m.check(conversation); err != nil {
		return err
	}
	actions := make([]string, len(buttons))
	for i, b := range buttons {
		actions[i] = b.Action
	}
	observability.FromContext(ctx).Info("outbound menu",
		observability.String("conversation", conversation),
		observability.String("text", text),
		observability.Strings("actions", actions))
	return nil
}

// MarkGone makes later sends to the conversation fail with domain.ErrConversationGone.
func (m *Messenger) MarkGone(_ context.Context, conversation string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gone[conversation] = struct{}{}
	return nil
}

func (m *Messenger) sendFile(ctx context.Context, conversation, kind string, file domain.Attachment) error {
	if err := m.check(conversation); err != nil {
		return err
	}
	observability.FromContext(ctx).Info("outbound "+kind,
		observability.String("conversation", conversation),
		observability.String("name", file.Name),
		observability.String("path", file.Path),
		observability.String("caption", file.Caption))
	return nil
}

func (m *Messenger) check(conversation string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, gone := m.gone[conversation]; gone {
		return fmt.Errorf("%w: %s", domain.ErrConversationGone, conversation)
	}
	return nil
}
