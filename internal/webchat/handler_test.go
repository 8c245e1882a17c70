package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/thepaulgroup/lead-assistant/internal/conversation"
	"github.com/thepaulgroup/lead-assistant/internal/leads"
	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

type failingResponder struct{}

func (failingResponder) Respond(context.Context, conversation.Request) (*conversation.Response, error) {
	return nil, errors.New("boom")
}

func newTestHandler() *Handler {
	svc := conversation.NewService(leads.NewInMemoryRepository(), qualification.NewMachine())
	return NewHandler(svc, logging.New("error"))
}

func postChat(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleChat(w, req)
	return w
}

func TestHandleChatAssignsAnonymousID(t *testing.T) {
	h := newTestHandler()
	h.now = func() time.Time { return time.Unix(1700000000, 0) }

	w := postChat(t, h, `{"message":"Hello"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, strings.HasPrefix(resp.UserID, "anon_1700000000_"))
	assert.Equal(t, qualification.StageAskName, resp.LeadStatus)
	assert.Equal(t, qualification.PromptAskName, resp.BotMessage)
	assert.Len(t, resp.ConversationHistory, 2)
	assert.Empty(t, resp.TicketNumber)
}

func TestHandleChatContinuesSession(t *testing.T) {
	h := newTestHandler()

	w := postChat(t, h, `{"user_id":"visitor-1","message":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = postChat(t, h, `{"user_id":"visitor-1","message":"John Doe"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "visitor-1", resp.UserID)
	assert.Equal(t, qualification.StageAskAge, resp.LeadStatus)
	assert.Equal(t, "John Doe", resp.LeadData.FullName)
	assert.Contains(t, resp.BotMessage, "John")
}

func TestHandleChatValidation(t *testing.T) {
	h := newTestHandler()
	assert.Equal(t, http.StatusBadRequest, postChat(t, h, `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, postChat(t, h, `{"message":"  "}`).Code)
}

func TestHandleChatResponderError(t *testing.T) {
	h := NewHandler(failingResponder{}, logging.New("error"))
	w := postChat(t, h, `{"user_id":"u1","message":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")

	var resp ChatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, genericErrorReply, resp.BotMessage)
	assert.Equal(t, "u1", resp.UserID)
}

type stagedFailingResponder struct{ stage qualification.Stage }

func (r stagedFailingResponder) Respond(context.Context, conversation.Request) (*conversation.Response, error) {
	return nil, &conversation.TurnError{Stage: r.stage, Err: errors.New("boom")}
}

func TestHandleChatTurnFailureKeepsLeadStatus(t *testing.T) {
	h := NewHandler(stagedFailingResponder{stage: qualification.StageAskState}, logging.New("error"))
	w := postChat(t, h, `{"user_id":"u1","message":"Texas"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, genericErrorReply, resp.BotMessage)
	assert.Equal(t, qualification.StageAskState, resp.LeadStatus)
	assert.Equal(t, "u1", resp.UserID)
	assert.NotContains(t, w.Body.String(), `"error"`)
}

func TestHandleWebSocket(t *testing.T) {
	h := newTestHandler()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, websocket.JSON.Send(conn, ChatRequest{Message: "hello"}))
	var first ChatResponse
	require.NoError(t, websocket.JSON.Receive(conn, &first))
	assert.Equal(t, qualification.StageAskName, first.LeadStatus)
	require.NotEmpty(t, first.UserID)

	require.NoError(t, websocket.JSON.Send(conn, ChatRequest{Message: "Jane Roe"}))
	var second ChatResponse
	require.NoError(t, websocket.JSON.Receive(conn, &second))
	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, qualification.StageAskAge, second.LeadStatus)
	assert.Equal(t, "Jane Roe", second.LeadData.FullName)
}
