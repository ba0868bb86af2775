package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/linguist/internal/chat"
	"github.com/davidbz/linguist/internal/config"
	httpapi "github.com/davidbz/linguist/internal/http"
	"github.com/davidbz/linguist/internal/http/middleware"
	"github.com/davidbz/linguist/internal/observability"
)

type mockChat struct {
	disposition chat.Disposition
	actionErr   error
	deleteErr   error

	events  []chat.Event
	actions []chat.ActionEvent
	deleted [][2]string
}

func (m *mockChat) HandleMessage(_ context.Context, ev chat.Event) chat.Disposition {
	m.events = append(m.events, ev)
	return m.disposition
}

func (m *mockChat) HandleAction(_ context.Context, ev chat.ActionEvent) error {
	m.actions = append(m.actions, ev)
	return m.actionErr
}

func (m *mockChat) HandleConversationDeleted(_ context.Context, callerID, conversation string) error {
	m.deleted = append(m.deleted, [2]string{callerID, conversation})
	return m.deleteErr
}

type staticSnapshot map[string]time.Time

func (s staticSnapshot) Snapshot() map[string]time.Time { return s }

func newRoutes(svc *mockChat, snapshot httpapi.FailureSnapshot) http.Handler {
	handler := httpapi.NewHandler(svc, snapshot)
	server := httpapi.NewServer(
		&config.ServerConfig{Port: 0},
		handler,
		middleware.Chain(middleware.Trace()),
		observability.NewMetrics(),
	)
	return server.Routes()
}

func postJSON(t *testing.T, routes http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	routes.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload)))
	return w
}

func TestHandleMessage(t *testing.T) {
	t.Run("should forward the event and report its disposition", func(t *testing.T) {
		svc := &mockChat{disposition: chat.DispositionAccepted}
		routes := newRoutes(svc, nil)

		w := postJSON(t, routes, "/v1/messages", httpapi.MessageRequest{
			CallerID:        "u1",
			ConversationRef: "c1",
			Text:            "текст",
			Command:         chat.CommandAnalyze,
		})

		require.Equal(t, http.StatusAccepted, w.Code)
		require.NotEmpty(t, w.Header().Get("X-Trace-Id"))

		var resp httpapi.MessageResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Equal(t, chat.DispositionAccepted, resp.Status)

		require.Len(t, svc.events, 1)
		require.Equal(t, chat.Event{
			CallerID:        "u1",
			ConversationRef: "c1",
			Text:            "текст",
			Command:         chat.CommandAnalyze,
		}, svc.events[0])
	})

	t.Run("should return bad request for an invalid event", func(t *testing.T) {
		svc := &mockChat{disposition: chat.DispositionInvalid}

		w := postJSON(t, newRoutes(svc, nil), "/v1/messages", httpapi.MessageRequest{})

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should reject malformed JSON", func(t *testing.T) {
		svc := &mockChat{}
		w := httptest.NewRecorder()

		newRoutes(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader("{")))

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Empty(t, svc.events)
	})

	t.Run("should reject other methods", func(t *testing.T) {
		w := httptest.NewRecorder()

		newRoutes(&mockChat{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/messages", nil))

		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHandleAction(t *testing.T) {
	t.Run("should return no content on success", func(t *testing.T) {
		svc := &mockChat{}

		w := postJSON(t, newRoutes(svc, nil), "/v1/actions", httpapi.ActionRequest{
			CallerID:        "u1",
			ConversationRef: "c1",
			Action:          chat.ActionStatus,
		})

		require.Equal(t, http.StatusNoContent, w.Code)
		require.Len(t, svc.actions, 1)
		require.Equal(t, chat.ActionStatus, svc.actions[0].Action)
	})

	t.Run("should map unknown actions to bad request", func(t *testing.T) {
		svc := &mockChat{actionErr: fmt.Errorf("%w: bribe", chat.ErrUnknownAction)}

		w := postJSON(t, newRoutes(svc, nil), "/v1/actions", httpapi.ActionRequest{ConversationRef: "c1", Action: "bribe"})

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should map delivery failures to internal error", func(t *testing.T) {
		svc := &mockChat{actionErr: errors.New("redis down")}

		w := postJSON(t, newRoutes(svc, nil), "/v1/actions", httpapi.ActionRequest{ConversationRef: "c1", Action: chat.ActionRepent})

		require.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("should require a conversation", func(t *testing.T) {
		svc := &mockChat{}

		w := postJSON(t, newRoutes(svc, nil), "/v1/actions", httpapi.ActionRequest{Action: chat.ActionRepent})

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Empty(t, svc.actions)
	})
}

func TestHandleConversationDeleted(t *testing.T) {
	t.Run("should pass the conversation and caller", func(t *testing.T) {
		svc := &mockChat{}
		w := httptest.NewRecorder()

		newRoutes(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/conversations/c1?caller_id=u1", nil))

		require.Equal(t, http.StatusNoContent, w.Code)
		require.Equal(t, [][2]string{{"u1", "c1"}}, svc.deleted)
	})

	t.Run("should surface failures", func(t *testing.T) {
		svc := &mockChat{deleteErr: errors.New("redis down")}
		w := httptest.NewRecorder()

		newRoutes(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/conversations/c1", nil))

		require.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandleHealth(t *testing.T) {
	t.Run("should list provider failures sorted by name", func(t *testing.T) {
		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		w := httptest.NewRecorder()

		newRoutes(&mockChat{}, staticSnapshot{"Bing": at, "Aria": at}).
			ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var resp httpapi.HealthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Equal(t, "healthy", resp.Status)
		require.Len(t, resp.ProviderFailures, 2)
		require.Equal(t, "Aria", resp.ProviderFailures[0].Provider)
		require.True(t, at.Equal(resp.ProviderFailures[1].FailedAt))
	})
}

func TestMetricsRoute(t *testing.T) {
	t.Run("should expose prometheus metrics", func(t *testing.T) {
		w := httptest.NewRecorder()

		newRoutes(&mockChat{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, w.Code)
	})
}
