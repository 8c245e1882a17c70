package crm

import (
	"context"
	"fmt"
	"time"

	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// Publisher enqueues sync jobs for the worker.
type Publisher struct {
	queue  queueClient
	logger *logging.Logger
	now    func() time.Time
}

func NewPublisher(queue queueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("crm: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger, now: time.Now}
}

// PublishSync queues a sync of sessionID after it reached stage.
func (p *Publisher) PublishSync(ctx context.Context, sessionID string, stage qualification.Stage) error {
	job, body, err := encodeJob(SyncJob{SessionID: sessionID, Stage: stage, QueuedAt: p.now().UTC()})
	if err != nil {
		return err
	}
	if err := p.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("crm: enqueue sync job: %w", err)
	}
	p.logger.Debug("crm sync job enqueued", "job_id", job.ID, "stage", stage)
	return nil
}
