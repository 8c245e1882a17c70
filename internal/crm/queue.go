package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thepaulgroup/lead-assistant/internal/qualification"
)

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// SyncJob asks the worker to push the current state of one session to the CRM.
type SyncJob struct {
	ID        string              `json:"id"`
	SessionID string              `json:"session_id"`
	Stage     qualification.Stage `json:"stage"`
	QueuedAt  time.Time           `json:"queued_at"`
}

func encodeJob(job SyncJob) (SyncJob, string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	body, err := json.Marshal(job)
	if err != nil {
		return SyncJob{}, "", fmt.Errorf("crm: encode sync job: %w", err)
	}
	return job, string(body), nil
}
