package crm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/thepaulgroup/lead-assistant/internal/qualification"
)

type stubSessions struct {
	sessions map[string]*qualification.Session
}

func (s *stubSessions) Load(_ context.Context, id string) (*qualification.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	return nil, errors.New("not found")
}

type stubNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *stubNotifier) NotifyLead(_ context.Context, s *qualification.Session) (qualification.CRMResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, s.ID)
	if n.err != nil {
		return qualification.CRMResult{}, n.err
	}
	return qualification.CRMResult{LeadID: "L-" + s.ID}, nil
}

func TestPublisherWorkerRoundTrip(t *testing.T) {
	queue := NewMemoryQueue(4)
	jobs := NewMemoryJobStore()
	notifier := &stubNotifier{}
	sessions := &stubSessions{sessions: map[string]*qualification.Session{"web-1": testSession()}}

	pub := NewPublisher(queue, nil)
	if err := pub.PublishSync(context.Background(), "web-1", qualification.StageAskState); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if queue.Len() != 1 {
		t.Fatalf("expected 1 queued job, got %d", queue.Len())
	}

	worker := NewWorker(queue, sessions, notifier, jobs, nil, WithReceiveWaitSeconds(0))
	msgs, err := queue.Receive(context.Background(), 1, 1)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("receive: %v (%d)", err, len(msgs))
	}
	worker.handleMessage(context.Background(), msgs[0])

	if len(notifier.calls) != 1 || notifier.calls[0] != "web-1" {
		t.Fatalf("unexpected notifier calls %v", notifier.calls)
	}
	if len(jobs.jobs) != 1 {
		t.Fatalf("expected 1 recorded job, got %d", len(jobs.jobs))
	}
	for _, rec := range jobs.jobs {
		if rec.Status != JobStatusCompleted || rec.LeadID != "L-web-1" || rec.Stage != "ask_state" {
			t.Fatalf("unexpected record %+v", rec)
		}
	}
}

func TestWorkerRecordsFailures(t *testing.T) {
	jobs := NewMemoryJobStore()
	notifier := &stubNotifier{err: errors.New("crm down")}
	sessions := &stubSessions{sessions: map[string]*qualification.Session{"web-1": testSession()}}
	worker := NewWorker(NewMemoryQueue(1), sessions, notifier, jobs, nil)

	rec := worker.process(context.Background(), SyncJob{ID: "j1", SessionID: "web-1", Stage: qualification.StageAskAge})
	if rec.Status != JobStatusFailed || rec.ErrorMessage != "crm down" {
		t.Fatalf("unexpected record %+v", rec)
	}

	rec = worker.process(context.Background(), SyncJob{ID: "j2", SessionID: "missing"})
	if rec.Status != JobStatusFailed {
		t.Fatalf("expected failure for missing session, got %+v", rec)
	}

	notifier.err = ErrMissingName
	rec = worker.process(context.Background(), SyncJob{ID: "j3", SessionID: "web-1"})
	if rec.Status != JobStatusSkipped {
		t.Fatalf("expected skipped, got %+v", rec)
	}
}

func TestWorkerDropsMalformedMessages(t *testing.T) {
	notifier := &stubNotifier{}
	worker := NewWorker(NewMemoryQueue(1), &stubSessions{}, notifier, nil, nil)
	worker.handleMessage(context.Background(), queueMessage{ID: "m1", Body: "{not json"})
	if len(notifier.calls) != 0 {
		t.Fatalf("expected no CRM calls")
	}
}

func TestWorkerStartStopsOnCancel(t *testing.T) {
	queue := NewMemoryQueue(4)
	notifier := &stubNotifier{}
	sessions := &stubSessions{sessions: map[string]*qualification.Session{"web-1": testSession()}}
	worker := NewWorker(queue, sessions, notifier, nil, nil, WithWorkerCount(2), WithReceiveWaitSeconds(1))

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	if err := NewPublisher(queue, nil).PublishSync(ctx, "web-1", qualification.StageAskAge); err != nil {
		t.Fatalf("publish: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		notifier.mu.Lock()
		n := len(notifier.calls)
		notifier.mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("worker did not process job")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	done := make(chan struct{})
	go func() {
		worker.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("worker did not stop")
	}
}

func TestMemoryQueueReceiveTimesOut(t *testing.T) {
	q := NewMemoryQueue(1)
	msgs, err := q.Receive(context.Background(), 1, 1)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("expected empty receive, got %v %v", msgs, err)
	}
}
