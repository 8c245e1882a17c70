package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestTwilioSenderPostsForm(t *testing.T) {
	var to, from, body, user string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		to, from, body = r.PostForm.Get("To"), r.PostForm.Get("From"), r.PostForm.Get("Body")
		user, _, _ = r.BasicAuth()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	s := NewTwilioSender("AC123", "token", "+15550001111", nil)
	s.apiBase = srv.URL
	if err := s.SendSMS(context.Background(), "555-123-4567", "New booking"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if to != "+15551234567" || from != "+15550001111" || body != "New booking" || user != "AC123" {
		t.Fatalf("unexpected request to=%s from=%s body=%s user=%s", to, from, body, user)
	}
}

func TestTwilioSenderRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewTwilioSender("AC123", "token", "+15550001111", nil)
	s.apiBase = srv.URL
	if err := s.SendSMS(context.Background(), "+15551234567", "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestTwilioSenderDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	}))
	defer srv.Close()

	s := NewTwilioSender("AC123", "token", "+15550001111", nil)
	s.apiBase = srv.URL
	err := s.SendSMS(context.Background(), "+15551234567", "hi")
	if err == nil || calls != 1 {
		t.Fatalf("expected single failed attempt, got calls=%d err=%v", calls, err)
	}
}

func TestTwilioSenderValidatesInput(t *testing.T) {
	if err := NewTwilioSender("", "", "", nil).SendSMS(context.Background(), "+1555", "x"); err == nil {
		t.Fatalf("expected credentials error")
	}
	if err := NewTwilioSender("AC", "t", "+1555", nil).SendSMS(context.Background(), "+15551234567", " "); err == nil {
		t.Fatalf("expected empty body error")
	}
}
