package crm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

const (
	defaultWorkerCount   = 1
	defaultWaitSeconds   = 2
	defaultBatchSize     = 5
	maxWaitSeconds       = 20
	maxReceiveBatchSize  = 10
	deleteTimeoutSeconds = 5
)

// SessionLoader reads the current session for a job.
type SessionLoader interface {
	Load(ctx context.Context, id string) (*qualification.Session, error)
}

// LeadNotifier is the CRM call the worker makes.
type LeadNotifier interface {
	NotifyLead(ctx context.Context, s *qualification.Session) (qualification.CRMResult, error)
}

// Worker consumes sync jobs and pushes sessions to the CRM.
type Worker struct {
	queue    queueClient
	sessions SessionLoader
	crm      LeadNotifier
	jobs     JobRecorder
	logger   *logging.Logger
	cfg      workerConfig
	wg       sync.WaitGroup
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

type WorkerOption func(*workerConfig)

func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait, capped at 20s.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		cfg.receiveWaitSecs = min(seconds, maxWaitSeconds)
	}
}

func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size > 0 {
			cfg.receiveBatchSize = min(size, maxReceiveBatchSize)
		}
	}
}

// NewWorker wires a consumer. jobs may be nil when outcomes are not tracked.
func NewWorker(queue queueClient, sessions SessionLoader, crm LeadNotifier, jobs JobRecorder, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("crm: worker queue cannot be nil")
	}
	if sessions == nil {
		panic("crm: worker session loader cannot be nil")
	}
	if crm == nil {
		panic("crm: worker lead notifier cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Worker{queue: queue, sessions: sessions, crm: crm, jobs: jobs, logger: logger, cfg: cfg}
}

// Start launches the consumer goroutines. They stop when ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until every consumer has stopped.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("crm worker started", "worker_id", workerID)

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			w.logger.Debug("crm worker stopping", "worker_id", workerID)
			return
		}
		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.logger.Error("failed to receive crm jobs", "error", err, "worker_id", workerID)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	var job SyncJob
	if err := json.Unmarshal([]byte(msg.Body), &job); err != nil {
		w.logger.Error("failed to decode crm job", "error", err, "msg_id", msg.ID)
		w.deleteMessage(context.WithoutCancel(ctx), msg.ReceiptHandle)
		return
	}

	record := w.process(ctx, job)
	if w.jobs != nil {
		if err := w.jobs.Record(ctx, record); err != nil {
			w.logger.Warn("failed to record crm job", "job_id", job.ID, "error", err)
		}
	}
	w.deleteMessage(context.WithoutCancel(ctx), msg.ReceiptHandle)
}

// process captures failures in the record. The message is deleted either way.
func (w *Worker) process(ctx context.Context, job SyncJob) *JobRecord {
	record := &JobRecord{JobID: job.ID, SessionID: job.SessionID, Stage: string(job.Stage)}

	session, err := w.sessions.Load(ctx, job.SessionID)
	if err != nil {
		record.Status = JobStatusFailed
		record.ErrorMessage = err.Error()
		w.logger.Warn("crm sync: session load failed", "job_id", job.ID, "error", err)
		return record
	}

	result, err := w.crm.NotifyLead(ctx, session)
	switch {
	case errors.Is(err, ErrMissingName):
		record.Status = JobStatusSkipped
		record.ErrorMessage = err.Error()
	case err != nil:
		record.Status = JobStatusFailed
		record.ErrorMessage = err.Error()
		w.logger.Warn("crm sync failed", "job_id", job.ID, "stage", job.Stage, "error", err)
	default:
		record.Status = JobStatusCompleted
		record.LeadID = result.LeadID
		w.logger.Info("crm sync completed", "job_id", job.ID, "stage", job.Stage, "lead_id", result.LeadID)
	}
	return record
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if receiptHandle == "" {
		return
	}
	deleteCtx, cancel := context.WithTimeout(ctx, deleteTimeoutSeconds*time.Second)
	defer cancel()
	if err := w.queue.Delete(deleteCtx, receiptHandle); err != nil {
		w.logger.Error("failed to delete crm job", "error", err)
	}
}
