package redis_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/linguist/internal/domain"
	"github.com/davidbz/linguist/internal/messenger/redis"
)

func setupMessenger(t *testing.T) (*redis.Messenger, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := redis.NewClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return redis.NewMessenger(client, "outbox:", 100), client
}

func readStream(t *testing.T, client *goredis.Client, key string) []goredis.XMessage {
	t.Helper()

	msgs, err := client.XRange(context.Background(), key, "-", "+").Result()
	require.NoError(t, err)
	return msgs
}

func TestMessenger_SendText(t *testing.T) {
	t.Run("should append a text entry to the conversation stream", func(t *testing.T) {
		m, client := setupMessenger(t)

		require.NoError(t, m.SendText(context.Background(), "chat-1", "Привет"))

		msgs := readStream(t, client, "outbox:chat-1")
		require.Len(t, msgs, 1)
		require.Equal(t, redis.TypeText, msgs[0].Values["type"])
		require.Equal(t, "Привет", msgs[0].Values["text"])
	})
}

func TestMessenger_Progress(t *testing.T) {
	t.Run("should reference the progress entry in edits", func(t *testing.T) {
		m, client := setupMessenger(t)
		ctx := context.Background()

		ref, err := m.SendProgress(ctx, "chat-1", "[          ] 0%")
		require.NoError(t, err)
		require.NotEmpty(t, ref)

		require.NoError(t, m.EditProgress(ctx, "chat-1", ref, "[█████     ] 50%"))

		msgs := readStream(t, client, "outbox:chat-1")
		require.Len(t, msgs, 2)
		require.Equal(t, ref, msgs[0].ID)
		require.Equal(t, redis.TypeEdit, msgs[1].Values["type"])
		require.Equal(t, ref, msgs[1].Values["message_ref"])
	})

	t.Run("should fail with conversation gone after MarkGone", func(t *testing.T) {
		m, client := setupMessenger(t)
		ctx := context.Background()

		ref, err := m.SendProgress(ctx, "chat-1", "start")
		require.NoError(t, err)

		require.NoError(t, m.MarkGone(ctx, "chat-1"))

		err = m.EditProgress(ctx, "chat-1", ref, "next")
		require.ErrorIs(t, err, domain.ErrConversationGone)
		require.Len(t, readStream(t, client, "outbox:chat-1"), 1)

		require.NoError(t, m.SendText(ctx, "chat-2", "still here"))
	})
}

func TestMessenger_SendDocument(t *testing.T) {
	t.Run("should inline the file content", func(t *testing.T) {
		m, client := setupMessenger(t)
		path := filepath.Join(t.TempDir(), "report_1.txt")
		require.NoError(t, os.WriteFile(path, []byte("content"), 0o600))

		err := m.SendDocument(context.Background(), "chat-1", domain.Attachment{
			Path:    path,
			Name:    "report_1.txt",
			Caption: "Full report",
		})
		require.NoError(t, err)

		msgs := readStream(t, client, "outbox:chat-1")
		require.Len(t, msgs, 1)
		require.Equal(t, redis.TypeDocument, msgs[0].Values["type"])
		require.Equal(t, "report_1.txt", msgs[0].Values["name"])
		require.Equal(t, "content", msgs[0].Values["data"])
	})

	t.Run("should fail for a missing file", func(t *testing.T) {
		m, _ := setupMessenger(t)

		err := m.SendImage(context.Background(), "chat-1", domain.Attachment{Path: "/nonexistent/qr.png"})
		require.Error(t, err)
	})
}

func TestMessenger_SendMenu(t *testing.T) {
	t.Run("should encode buttons as JSON", func(t *testing.T) {
		m, client := setupMessenger(t)
		buttons := []domain.Button{{Text: "Pay", Action: "pay_fine"}}

		require.NoError(t, m.SendMenu(context.Background(), "chat-1", "Choose", buttons))

		msgs := readStream(t, client, "outbox:chat-1")
		require.Len(t, msgs, 1)

		var decoded []domain.Button
		require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["buttons"].(string)), &decoded))
		require.Equal(t, buttons, decoded)
	})
}
