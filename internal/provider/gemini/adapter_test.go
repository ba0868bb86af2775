package gemini_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/linguist/internal/domain"
	"github.com/davidbz/linguist/internal/provider/gemini"
)

func TestNewProvider(t *testing.T) {
	t.Run("should require an API key", func(t *testing.T) {
		provider, err := gemini.NewProvider(context.Background(), gemini.Config{})

		require.Error(t, err)
		require.Nil(t, provider)
		require.Contains(t, err.Error(), "Gemini API key is required")
	})

	t.Run("should default the name", func(t *testing.T) {
		provider, err := gemini.NewProvider(context.Background(), gemini.Config{APIKey: "test-key"})

		require.NoError(t, err)
		require.Equal(t, "gemini", provider.Name())
	})
}

func TestProvider_Complete(t *testing.T) {
	t.Run("should reject a nil request", func(t *testing.T) {
		provider, err := gemini.NewProvider(context.Background(), gemini.Config{APIKey: "test-key"})
		require.NoError(t, err)

		resp, err := provider.Complete(context.Background(), nil)

		require.Error(t, err)
		require.Nil(t, resp)
	})

	t.Run("should convert the SDK response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.True(t, strings.HasSuffix(r.URL.Path, "gemini-2.0-flash:generateContent"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"candidates": [{"content": {"role": "model", "parts": [{"text": "Ответ"}]}}],
				"usageMetadata": {"promptTokenCount": 4, "candidatesTokenCount": 1, "totalTokenCount": 5},
				"responseId": "resp-1"
			}`))
		}))
		defer server.Close()

		provider, err := gemini.NewProvider(context.Background(), gemini.Config{
			Name:    "Gemini",
			APIKey:  "test-key",
			BaseURL: server.URL + "/",
		})
		require.NoError(t, err)

		resp, err := provider.Complete(context.Background(), &domain.CompletionRequest{
			Model:    "gemini-2.0-flash",
			Messages: []domain.Message{{Role: "user", Content: "Привет"}},
		})

		require.NoError(t, err)
		require.Equal(t, "Ответ", resp.Content)
		require.Equal(t, "Gemini", resp.Provider)
		require.Equal(t, "gemini-2.0-flash", resp.Model)
		require.Equal(t, 5, resp.Usage.TotalTokens)
	})
}
