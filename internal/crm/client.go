// Package crm submits qualified leads and chat summaries to the agency CRM and keeps the CRM
// in step with sessions as they progress.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

const (
	defaultTimeout  = 10 * time.Second
	unknownLastName = "Unknown"
	maxResponseBody = 1 << 20
)

var _ qualification.CRM = (*Client)(nil)

// Client posts multipart forms to the CRM endpoints.
type Client struct {
	leadURL    string
	summaryURL string
	httpClient *http.Client
	logger     *logging.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a CRM client with a 10 second timeout.
func NewClient(leadURL, summaryURL string, opts ...ClientOption) *Client {
	c := &Client{
		leadURL:    leadURL,
		summaryURL: summaryURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NotifyLead creates or updates the lead. The CRM may answer with a lead_id, which becomes
// the ticket number.
func (c *Client) NotifyLead(ctx context.Context, s *qualification.Session) (qualification.CRMResult, error) {
	if s == nil || strings.TrimSpace(s.FullName) == "" {
		return qualification.CRMResult{}, ErrMissingName
	}
	first, last := splitName(s.FullName)
	fields := []formField{
		{"OwnerFirstName", first},
		{"OwnerLastName", last},
		{"phone", s.PhoneNumber},
		{"ask_state", s.StateOfResidence},
		{"user_id", s.ID},
	}
	if s.Age != nil {
		fields = append(fields, formField{"age", strconv.Itoa(*s.Age)})
	}

	body, err := c.post(ctx, c.leadURL, fields)
	if err != nil {
		return qualification.CRMResult{}, err
	}

	var decoded struct {
		LeadID json.RawMessage `json:"lead_id"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.logger.Warn("crm lead response was not json", "session_id", s.ID)
		return qualification.CRMResult{}, nil
	}
	return qualification.CRMResult{LeadID: rawID(decoded.LeadID)}, nil
}

// SendChatSummary posts the transcript as "USER: ..." / "BOT: ..." lines.
func (c *Client) SendChatSummary(ctx context.Context, leadID string, history []qualification.Message) error {
	if strings.TrimSpace(leadID) == "" {
		return ErrMissingLeadID
	}
	_, err := c.post(ctx, c.summaryURL, []formField{
		{"id", leadID},
		{"text_summary", FormatSummary(history)},
	})
	return err
}

// FormatSummary renders history one message per line, prefixed with the upper-cased sender.
func FormatSummary(history []qualification.Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, strings.ToUpper(string(m.Sender))+": "+m.Text)
	}
	return strings.Join(lines, "\n")
}

type formField struct {
	name  string
	value string
}

func (c *Client) post(ctx context.Context, url string, fields []formField) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("crm: write form field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("crm: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("crm: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("crm: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return body, nil
}

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	first, last, found := strings.Cut(full, " ")
	last = strings.TrimSpace(last)
	if !found || last == "" {
		return first, unknownLastName
	}
	return first, last
}

// rawID accepts a JSON string or number.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
