package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/maintexa-ai/maintexa/internal/api/middlewares"
	"github.com/maintexa-ai/maintexa/internal/core/chat"
	"github.com/maintexa-ai/maintexa/internal/logger"
)

type ChatHandler struct {
	svc *chat.Service
	log *logger.Logger
}

func NewChatHandler(svc *chat.Service, log *logger.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, log: log}
}

type ChatRequest struct {
	Message string      `json:"message" validate:"required,min=1,max=4000"`
	AssetID string      `json:"asset_id,omitempty" validate:"omitempty,uuid4"`
	History []chat.Turn `json:"conversation_history,omitempty" validate:"max=50"`
}

// Query streams the answer as SSE: delta events carrying text, then one
// metadata event, then done. Client disconnect cancels the model stream.
func (h *ChatHandler) Query(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.OrgID(r.Context())
	if !ok {
		http.Error(w, "organization not found in context", http.StatusUnauthorized)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := validate.Struct(req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	events := h.svc.Stream(r.Context(), chat.Request{
		OrganizationID: orgID,
		AssetID:        req.AssetID,
		Message:        req.Message,
		History:        req.History,
	})
	for ev := range events {
		var werr error
		switch {
		case ev.Err != nil:
			werr = sse.event("error", map[string]string{"message": ev.Err.Error()})
		case ev.Metadata != nil:
			werr = sse.event("metadata", ev.Metadata)
		default:
			werr = sse.event("delta", map[string]string{"text": ev.Delta})
		}
		if werr != nil {
			h.log.Warn("chat stream broken", "error", werr)
			return
		}
	}
	_ = sse.event("done", map[string]bool{"ok": true})
}
