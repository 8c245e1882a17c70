package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

func TestRequestLoggerEchoesRequestID(t *testing.T) {
	handler := RequestLogger(logging.New("error"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status to pass through, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "req-1" {
		t.Fatalf("expected request id echo, got %q", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}
}
