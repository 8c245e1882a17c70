package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/thepaulgroup/lead-assistant/internal/conversation"
	"github.com/thepaulgroup/lead-assistant/internal/http/handlers"
	"github.com/thepaulgroup/lead-assistant/internal/leads"
	"github.com/thepaulgroup/lead-assistant/internal/messaging"
	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/internal/webchat"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

const testSecret = "router-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.New("error")
	repo := leads.NewInMemoryRepository()
	svc := conversation.NewService(repo, qualification.NewMachine(qualification.WithBookings(repo)), conversation.WithLogger(logger))

	return New(&Config{
		Logger:       logger,
		WebChat:      webchat.NewHandler(svc, logger),
		SMS:          messaging.NewHandler(messaging.HandlerConfig{}, svc, logger),
		LeadsHandler: leads.NewHandler(repo, repo, logger),
		AdminAuth: handlers.NewAdminAuthHandler(handlers.AdminAuthConfig{
			Username:  "admin",
			Password:  "pw",
			JWTSecret: testSecret,
			TokenTTL:  30 * time.Minute,
		}, logger),
		AdminAuthSecret:    testSecret,
		CORSAllowedOrigins: []string{"*"},
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterChatThenAdminListsLead(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"user_id":"visitor-9","message":"hi"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("chat: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/leads", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"username":"admin","password":"pw"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rr.Code)
	}
	var login handlers.LoginResponse
	if err := json.NewDecoder(rr.Body).Decode(&login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/leads/visitor-9", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("get lead: expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "visitor-9") {
		t.Fatalf("expected lead in body, got %s", rr.Body.String())
	}
}

func TestRouterTwilioSMS(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{"From": {"+15551234567"}, "To": {"+15550000000"}, "Body": {"hello"}}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "<Message>") {
		t.Fatalf("expected TwiML reply, got %s", rr.Body.String())
	}
}
