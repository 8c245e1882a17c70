package messaging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/thepaulgroup/lead-assistant/internal/conversation"
	"github.com/thepaulgroup/lead-assistant/internal/qualification"
)

type stubResponder struct {
	got   conversation.Request
	reply string
	err   error
}

func (s *stubResponder) Respond(_ context.Context, req conversation.Request) (*conversation.Response, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &conversation.Response{Reply: s.reply}, nil
}

func smsForm(from, body string) url.Values {
	form := url.Values{}
	form.Set("MessageSid", "SM123")
	form.Set("From", from)
	form.Set("To", "+15550001111")
	form.Set("Body", body)
	return form
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestValidateTwilioSignature(t *testing.T) {
	webhookURL := "https://example.com/webhooks/twilio/sms"
	form := smsForm("+15551234567", "Hello")

	req := postForm(webhookURL, form)
	req.Header.Set("X-Twilio-Signature", computeSignature(buildSignaturePayload(webhookURL, form), "test_token"))
	if !ValidateTwilioSignature(req, "test_token", webhookURL) {
		t.Error("expected signature validation to pass")
	}

	req = postForm(webhookURL, form)
	req.Header.Set("X-Twilio-Signature", "invalid_signature")
	if ValidateTwilioSignature(req, "test_token", webhookURL) {
		t.Error("expected signature validation to fail")
	}

	if ValidateTwilioSignature(postForm(webhookURL, form), "test_token", webhookURL) {
		t.Error("expected missing signature to fail")
	}
}

func TestTwilioSMSRepliesWithTwiML(t *testing.T) {
	responder := &stubResponder{reply: "Great! What's your full name? <3 & more"}
	h := NewHandler(HandlerConfig{}, responder, nil)

	rec := httptest.NewRecorder()
	h.TwilioSMS(rec, postForm("/webhooks/twilio/sms", smsForm("(555) 123-4567", "hi")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/xml" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Response><Message>Great! What&#39;s your full name? &lt;3 &amp; more</Message></Response>") {
		t.Fatalf("unexpected twiml %s", body)
	}
	if responder.got.SessionID != "+15551234567" || responder.got.Channel != qualification.ChannelSMS || responder.got.Text != "hi" {
		t.Fatalf("unexpected request %+v", responder.got)
	}
}

func TestTwilioSMSSignatureEnforced(t *testing.T) {
	responder := &stubResponder{reply: "ok"}
	h := NewHandler(HandlerConfig{AuthToken: "secret", WebhookBaseURL: "https://api.example.com/"}, responder, nil)
	form := smsForm("+15551234567", "hi")

	rec := httptest.NewRecorder()
	h.TwilioSMS(rec, postForm("/webhooks/twilio/sms", form))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without signature, got %d", rec.Code)
	}

	req := postForm("/webhooks/twilio/sms", form)
	sig := computeSignature(buildSignaturePayload("https://api.example.com/webhooks/twilio/sms", form), "secret")
	req.Header.Set("X-Twilio-Signature", sig)
	rec = httptest.NewRecorder()
	h.TwilioSMS(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid signature, got %d", rec.Code)
	}

	skip := NewHandler(HandlerConfig{AuthToken: "secret", SkipSignature: true}, responder, nil)
	rec = httptest.NewRecorder()
	skip.TwilioSMS(rec, postForm("/webhooks/twilio/sms", form))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 when skipping signature, got %d", rec.Code)
	}
}

func TestTwilioSMSErrorsBecomeApology(t *testing.T) {
	h := NewHandler(HandlerConfig{}, &stubResponder{err: errors.New("db down")}, nil)
	rec := httptest.NewRecorder()
	h.TwilioSMS(rec, postForm("/webhooks/twilio/sms", smsForm("+15551234567", "hi")))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "something went wrong") {
		t.Fatalf("expected apology twiml, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestTwilioSMSRejectsMissingSender(t *testing.T) {
	h := NewHandler(HandlerConfig{}, &stubResponder{}, nil)
	rec := httptest.NewRecorder()
	h.TwilioSMS(rec, postForm("/webhooks/twilio/sms", smsForm("", "hi")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestParseTwilioWebhookSmsBodyFallback(t *testing.T) {
	form := url.Values{"From": {"+15551234567"}, "SmsBody": {"hello"}}
	parsed, err := ParseTwilioWebhook(postForm("/", form))
	if err != nil || parsed.Body != "hello" {
		t.Fatalf("unexpected %+v %v", parsed, err)
	}
}

func TestNormalizeE164(t *testing.T) {
	tests := map[string]string{
		"+1 (555) 123-4567": "+15551234567",
		"5551234567":        "+15551234567",
		"+447700900123":     "+447700900123",
		"":                  "",
		"abc":               "",
	}
	for in, want := range tests {
		if got := NormalizeE164(in); got != want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", in, got, want)
		}
	}
}
