package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/thepaulgroup/lead-assistant/internal/conversation"
	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// GenericErrorReply is sent when a turn fails unexpectedly.
const GenericErrorReply = "Sorry, something went wrong on our end. Please try again in a moment."

var twilioTracer = otel.Tracer("leadassistant.internal.messaging.twilio")

// Responder runs one conversation turn.
type Responder interface {
	Respond(ctx context.Context, req conversation.Request) (*conversation.Response, error)
}

// HandlerConfig configures the SMS webhook.
type HandlerConfig struct {
	// AuthToken enables signature validation when set.
	AuthToken string
	// WebhookBaseURL is the public origin Twilio calls, used to rebuild the signed URL
	// behind proxies. Empty means derive it from the request.
	WebhookBaseURL string
	SkipSignature  bool
}

// Handler handles Twilio SMS webhooks.
type Handler struct {
	cfg       HandlerConfig
	responder Responder
	logger    *logging.Logger
}

func NewHandler(cfg HandlerConfig, responder Responder, logger *logging.Logger) *Handler {
	if responder == nil {
		panic("messaging: responder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg.WebhookBaseURL = strings.TrimRight(cfg.WebhookBaseURL, "/")
	return &Handler{cfg: cfg, responder: responder, logger: logger}
}

// TwilioSMS handles POST /webhooks/twilio/sms. The sender's E.164 number is the session id and
// the reply goes back inline as TwiML.
func (h *Handler) TwilioSMS(w http.ResponseWriter, r *http.Request) {
	ctx, span := twilioTracer.Start(r.Context(), "messaging.twilio.sms")
	defer span.End()

	if h.cfg.AuthToken != "" && !h.cfg.SkipSignature {
		if !ValidateTwilioSignature(r, h.cfg.AuthToken, h.webhookURL(r)) {
			h.logger.Warn("invalid twilio signature")
			span.RecordError(errors.New("invalid twilio signature"))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	webhook, err := ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse twilio webhook", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	from := NormalizeE164(webhook.From)
	if from == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("twilio.message_sid", webhook.MessageSid))

	reply := GenericErrorReply
	resp, err := h.responder.Respond(ctx, conversation.Request{
		SessionID: from,
		Channel:   qualification.ChannelSMS,
		Text:      webhook.Body,
	})
	if err != nil {
		span.RecordError(err)
		h.logger.WithSession(from, string(qualification.ChannelSMS)).Error("sms turn failed", "error", err, "message_sid", webhook.MessageSid)
	} else {
		reply = resp.Reply
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(TwiML(reply))
}

func (h *Handler) webhookURL(r *http.Request) string {
	if h.cfg.WebhookBaseURL != "" {
		return h.cfg.WebhookBaseURL + r.URL.RequestURI()
	}
	return buildAbsoluteURL(r)
}

func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" && r.URL.Host != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}
