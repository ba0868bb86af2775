package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/davidbz/linguist/internal/chat"
	"github.com/davidbz/linguist/internal/observability"
)

// ChatService is the inbound side of the chat pipeline.
type ChatService interface {
	HandleMessage(ctx context.Context, ev chat.Event) chat.Disposition
	HandleAction(ctx context.Context, ev chat.ActionEvent) error
	HandleConversationDeleted(ctx context.Context, callerID, conversation string) error
}

// FailureSnapshot exposes recent provider failures for health reporting.
type FailureSnapshot interface {
	Snapshot() map[string]time.Time
}

// MessageRequest is the body of POST /v1/messages.
type MessageRequest struct {
	CallerID        string `json:"caller_id"`
	ConversationRef string `json:"conversation_ref"`
	Text            string `json:"text"`
	Command         string `json:"command,omitempty"`
}

// MessageResponse reports the disposition of an inbound message.
type MessageResponse struct {
	Status chat.Disposition `json:"status"`
}

// ActionRequest is the body of POST /v1/actions.
type ActionRequest struct {
	CallerID        string `json:"caller_id"`
	ConversationRef string `json:"conversation_ref"`
	Action          string `json:"action"`
}

// ProviderFailure is one entry of the health report.
type ProviderFailure struct {
	Provider string    `json:"provider"`
	FailedAt time.Time `json:"failed_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status           string            `json:"status"`
	ProviderFailures []ProviderFailure `json:"provider_failures"`
}

// Handler handles HTTP requests.
type Handler struct {
	chat    ChatService
	tracker FailureSnapshot
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(chatService ChatService, tracker FailureSnapshot) *Handler {
	return &Handler{
		chat:    chatService,
		tracker: tracker,
	}
}

// HandleMessage accepts one inbound chat message.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	disposition := h.chat.HandleMessage(ctx, chat.Event{
		CallerID:        req.CallerID,
		ConversationRef: req.ConversationRef,
		Text:            req.Text,
		Command:         req.Command,
	})

	status := http.StatusAccepted
	if disposition == chat.DispositionInvalid {
		status = http.StatusBadRequest
	}

	writeJSON(ctx, w, status, MessageResponse{Status: disposition})
}

// HandleAction accepts one menu button press.
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if req.ConversationRef == "" {
		http.Error(w, "conversation_ref is required", http.StatusBadRequest)
		return
	}

	err := h.chat.HandleAction(ctx, chat.ActionEvent{
		CallerID:        req.CallerID,
		ConversationRef: req.ConversationRef,
		Action:          req.Action,
	})
	switch {
	case errors.Is(err, chat.ErrUnknownAction):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		observability.FromContext(ctx).Error("action failed", observability.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleConversationDeleted handles DELETE /v1/conversations/{ref}.
func (h *Handler) HandleConversationDeleted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ref := r.PathValue("ref")
	if ref == "" {
		http.Error(w, "conversation reference is required", http.StatusBadRequest)
		return
	}

	if err := h.chat.HandleConversationDeleted(ctx, r.URL.Query().Get("caller_id"), ref); err != nil {
		observability.FromContext(ctx).Error("conversation delete failed", observability.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	failures := make([]ProviderFailure, 0)
	if h.tracker != nil {
		for name, at := range h.tracker.Snapshot() {
			failures = append(failures, ProviderFailure{Provider: name, FailedAt: at})
		}
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].Provider < failures[j].Provider })

	writeJSON(r.Context(), w, http.StatusOK, HealthResponse{
		Status:           "healthy",
		ProviderFailures: failures,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Already written status, can't change it, just log.
		observability.FromContext(ctx).Error("failed to encode response", observability.Error(err))
	}
}
