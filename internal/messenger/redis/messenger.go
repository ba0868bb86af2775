// Package redis delivers outbound chat messages to per-conversation Redis streams.
// The chat transport consumes the streams and renders each entry.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/linguist/internal/domain"
	"github.com/davidbz/linguist/internal/observability"
)

// Entry types written to the outbox stream.
const (
	TypeText     = "text"
	TypeProgress = "progress"
	TypeEdit     = "edit"
	TypeDocument = "document"
	TypeImage    = "image"
	TypeMenu     = "menu"
)

const goneTTL = 24 * time.Hour

// Messenger implements domain.Messenger on top of Redis streams.
type Messenger struct {
	client *redis.Client
	prefix string
	maxLen int64
}

// NewMessenger creates a new Redis stream messenger.
func NewMessenger(client *redis.Client, prefix string, maxLen int64) *Messenger {
	return &Messenger{
		client: client,
		prefix: prefix,
		maxLen: maxLen,
	}
}

// StreamKey returns the outbox stream for a conversation.
func (m *Messenger) StreamKey(conversation string) string {
	return m.prefix + conversation
}

// GoneKey returns the flag key set when a conversation is deleted.
func GoneKey(conversation string) string {
	return "conversation:" + conversation + ":gone"
}

// SendText sends a plain message.
func (m *Messenger) SendText(ctx context.Context, conversation, text string) error {
	_, err := m.add(ctx, conversation, map[string]any{
		"type": TypeText,
		"text": text,
	})
	return err
}

// SendProgress sends an editable message and returns its stream entry ID.
func (m *Messenger) SendProgress(ctx context.Context, conversation, text string) (string, error) {
	return m.add(ctx, conversation, map[string]any{
		"type": TypeProgress,
		"text": text,
	})
}

// EditProgress appends an edit for a progress message.
func (m *Messenger) EditProgress(ctx context.Context, conversation, messageRef, text string) error {
	_, err := m.add(ctx, conversation, map[string]any{
		"type":        TypeEdit,
		"message_ref": messageRef,
		"text":        text,
	})
	return err
}

// SendDocument sends a file attachment inline in the stream entry.
func (m *Messenger) SendDocument(ctx context.Context, conversation string, doc domain.Attachment) error {
	return m.sendFile(ctx, conversation, TypeDocument, doc)
}

// SendImage sends an image attachment inline in the stream entry.
func (m *Messenger) SendImage(ctx context.Context, conversation string, img domain.Attachment) error {
	return m.sendFile(ctx, conversation, TypeImage, img)
}

// SendMenu sends text with an inline button menu encoded as JSON.
func (m *Messenger) SendMenu(ctx context.Context, conversation, text string, buttons []domain.Button) error {
	encoded, err := json.Marshal(buttons)
	if err != nil {
		return fmt.Errorf("failed to encode menu: %w", err)
	}

	_, err = m.add(ctx, conversation, map[string]any{
		"type":    TypeMenu,
		"text":    text,
		"buttons": encoded,
	})
	return err
}

// MarkGone flags a conversation as deleted. Later sends fail with domain.ErrConversationGone.
func (m *Messenger) MarkGone(ctx context.Context, conversation string) error {
	if err := m.client.Set(ctx, GoneKey(conversation), "1", goneTTL).Err(); err != nil {
		return fmt.Errorf("failed to mark conversation gone: %w", err)
	}

	observability.FromContext(ctx).Info("conversation marked gone",
		observability.String("conversation", conversation))
	return nil
}

func (m *Messenger) sendFile(ctx context.Context, conversation, kind string, file domain.Attachment) error {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return fmt.Errorf("failed to read attachment: %w", err)
	}

	_, err = m.add(ctx, conversation, map[string]any{
		"type":    kind,
		"name":    file.Name,
		"caption": file.Caption,
		"data":    data,
	})
	return err
}

func (m *Messenger) add(ctx context.Context, conversation string, values map[string]any) (string, error) {
	gone, err := m.client.Exists(ctx, GoneKey(conversation)).Result()
	if err != nil {
		return "", fmt.Errorf("failed to check conversation: %w", err)
	}
	if gone > 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrConversationGone, conversation)
	}

	id, err := m.client.XAdd(ctx, &redis.XAddArgs{
		Stream: m.StreamKey(conversation),
		MaxLen: m.maxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to append to outbox: %w", err)
	}

	observability.FromContext(ctx).Debug("outbox entry added",
		observability.String("stream", m.StreamKey(conversation)),
		observability.String("type", fmt.Sprint(values["type"])),
		observability.String("entry_id", id))

	return id, nil
}
