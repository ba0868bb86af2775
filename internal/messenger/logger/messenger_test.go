package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/linguist/internal/domain"
	"github.com/davidbz/linguist/internal/messenger/logger"
)

func TestMessenger(t *testing.T) {
	t.Run("should return distinct progress references", func(t *testing.T) {
		m := logger.NewMessenger()
		ctx := context.Background()

		first, err := m.SendProgress(ctx, "chat-1", "a")
		require.NoError(t, err)
		second, err := m.SendProgress(ctx, "chat-1", "b")
		require.NoError(t, err)

		require.NotEqual(t, first, second)
	})

	t.Run("should fail only for conversations marked gone", func(t *testing.T) {
		m := logger.NewMessenger()
		ctx := context.Background()

		require.NoError(t, m.MarkGone(ctx, "chat-1"))

		require.ErrorIs(t, m.EditProgress(ctx, "chat-1", "ref", "x"), domain.ErrConversationGone)
		require.ErrorIs(t, m.SendText(ctx, "chat-1", "x"), domain.ErrConversationGone)
		require.NoError(t, m.SendText(ctx, "chat-2", "x"))
		require.NoError(t, m.SendMenu(ctx, "chat-2", "menu", []domain.Button{{Text: "A", Action: "a"}}))
	})
}
