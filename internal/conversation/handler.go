package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// TranscriptLister reads stored transcripts.
type TranscriptLister interface {
	List(ctx context.Context, sessionIDs []string, limit int) ([]TranscriptEntry, error)
}

// Handler serves stored transcripts to the admin API.
type Handler struct {
	transcripts TranscriptLister
	logger      *logging.Logger
}

func NewHandler(transcripts TranscriptLister, logger *logging.Logger) *Handler {
	if transcripts == nil {
		panic("conversation: handler requires a transcript lister")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{transcripts: transcripts, logger: logger}
}

// ConversationsResponse groups transcript entries by session.
type ConversationsResponse struct {
	Conversations map[string][]TranscriptEntry `json:"conversations"`
	Count         int                          `json:"count"`
}

// ListConversations handles GET /admin/conversations?session_id=a,b&limit=n.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, raw := range r.URL.Query()["session_id"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.transcripts.List(r.Context(), ids, limit)
	if err != nil {
		h.logger.Error("failed to list conversations", "error", err)
		http.Error(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}

	grouped := make(map[string][]TranscriptEntry)
	for _, e := range entries {
		grouped[e.SessionID] = append(grouped[e.SessionID], e)
	}
	h.writeJSON(w, http.StatusOK, ConversationsResponse{Conversations: grouped, Count: len(grouped)})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
