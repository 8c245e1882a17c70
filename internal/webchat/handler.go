package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/thepaulgroup/lead-assistant/internal/conversation"
	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

const genericErrorReply = "Sorry, something went wrong. Please try again."

// Responder runs one conversation turn.
type Responder interface {
	Respond(ctx context.Context, req conversation.Request) (*conversation.Response, error)
}

// Handler serves the web chat widget over plain HTTP and websocket.
type Handler struct {
	responder Responder
	logger    *logging.Logger
	now       func() time.Time
}

// ChatRequest is what the widget sends.
type ChatRequest struct {
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message"`
}

// LeadData is the collected profile echoed back to the widget.
type LeadData struct {
	FullName         string                `json:"full_name,omitempty"`
	Age              *int                  `json:"age,omitempty"`
	StateOfResidence string                `json:"state_of_residence,omitempty"`
	GeneralHealth    string                `json:"general_health,omitempty"`
	HealthConditions *string               `json:"health_conditions,omitempty"`
	Budget           *qualification.Budget `json:"budget,omitempty"`
	BestContactTime  string                `json:"best_contact_time,omitempty"`
	AvailableSlots   []string              `json:"available_slots,omitempty"`
	SelectedTimeSlot string                `json:"selected_time_slot,omitempty"`
	TicketNumber     string                `json:"ticket_number,omitempty"`
}

// ChatResponse is what the widget receives after each turn.
type ChatResponse struct {
	BotMessage          string                  `json:"bot_message"`
	LeadStatus          qualification.Stage     `json:"lead_status"`
	LeadData            LeadData                `json:"lead_data"`
	ConversationHistory []qualification.Message `json:"conversation_history"`
	TicketNumber        string                  `json:"ticket_number,omitempty"`
	UserID              string                  `json:"user_id"`
}

type errorFrame struct {
	Error  string `json:"error"`
	UserID string `json:"user_id,omitempty"`
}

func NewHandler(responder Responder, logger *logging.Logger) *Handler {
	if responder == nil {
		panic("webchat: responder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{responder: responder, logger: logger, now: time.Now}
}

// HandleChat handles POST /chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorFrame{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorFrame{Error: "message is required", UserID: req.UserID})
		return
	}

	resp, err := h.turn(r.Context(), req)
	if errors.Is(err, conversation.ErrSessionIDRequired) {
		writeJSON(w, http.StatusBadRequest, errorFrame{Error: genericErrorReply, UserID: req.UserID})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleWebSocket handles GET /chat/ws. Each inbound JSON frame is a ChatRequest and gets one
// ChatResponse frame back. The user id assigned on the first turn sticks to the connection.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(r.Context(), conn, r.URL.Query().Get("user_id"))
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(ctx context.Context, conn *websocket.Conn, userID string) {
	h.logger.Info("webchat: connection opened", "user_id", userID)
	for {
		var req ChatRequest
		if err := websocket.JSON.Receive(conn, &req); err != nil {
			h.logger.Debug("webchat: connection closed", "user_id", userID, "error", err)
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			continue
		}
		if req.UserID == "" {
			req.UserID = userID
		}

		resp, _ := h.turn(ctx, req)
		userID = resp.UserID
		if err := websocket.JSON.Send(conn, resp); err != nil {
			h.logger.Debug("webchat: send failed", "user_id", userID, "error", err)
			return
		}
	}
}

// turn always returns a response to show the visitor. A failed turn yields the apology.
func (h *Handler) turn(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = qualification.NewAnonymousID(h.now())
	}

	resp, err := h.responder.Respond(ctx, conversation.Request{
		SessionID: userID,
		Channel:   qualification.ChannelWeb,
		Text:      req.Message,
	})
	if err != nil {
		h.logger.WithSession(userID, string(qualification.ChannelWeb)).Warn("webchat: turn failed", "error", err)
		return apologyResponse(userID, err), err
	}
	return newChatResponse(userID, resp), nil
}

// apologyResponse answers a failed turn with the generic reply and the stage the lead was at.
func apologyResponse(userID string, err error) *ChatResponse {
	out := &ChatResponse{
		BotMessage:          genericErrorReply,
		UserID:              userID,
		ConversationHistory: []qualification.Message{},
	}
	var turnErr *conversation.TurnError
	if errors.As(err, &turnErr) {
		out.LeadStatus = turnErr.Stage
	}
	return out
}

func newChatResponse(userID string, resp *conversation.Response) *ChatResponse {
	out := &ChatResponse{
		BotMessage:          resp.Reply,
		LeadStatus:          resp.Stage,
		TicketNumber:        resp.TicketNumber,
		UserID:              userID,
		ConversationHistory: []qualification.Message{},
	}
	if s := resp.Session; s != nil {
		out.LeadData = LeadData{
			FullName:         s.FullName,
			Age:              s.Age,
			StateOfResidence: s.StateOfResidence,
			GeneralHealth:    s.GeneralHealth,
			HealthConditions: s.HealthConditions,
			Budget:           s.Budget,
			BestContactTime:  s.BestContactTime,
			AvailableSlots:   s.AvailableSlots,
			SelectedTimeSlot: s.SelectedTimeSlot,
			TicketNumber:     s.TicketNumber,
		}
		if s.History != nil {
			out.ConversationHistory = s.History
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
