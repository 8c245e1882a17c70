package crm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const jobTTL = 24 * time.Hour

// JobStatus is the final state of a sync attempt.
type JobStatus string

const (
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusSkipped   JobStatus = "skipped"
)

// JobRecord is the outcome of one sync job.
type JobRecord struct {
	JobID        string    `dynamodbav:"jobId" json:"job_id"`
	SessionID    string    `dynamodbav:"sessionId" json:"session_id"`
	Stage        string    `dynamodbav:"stage" json:"stage"`
	Status       JobStatus `dynamodbav:"status" json:"status"`
	LeadID       string    `dynamodbav:"leadId,omitempty" json:"lead_id,omitempty"`
	ErrorMessage string    `dynamodbav:"errorMessage,omitempty" json:"error_message,omitempty"`
	CreatedAt    string    `dynamodbav:"createdAt" json:"created_at"`
	ExpiresAt    int64     `dynamodbav:"expiresAt,omitempty" json:"-"`
}

// JobRecorder persists sync outcomes.
type JobRecorder interface {
	Record(ctx context.Context, job *JobRecord) error
	Get(ctx context.Context, jobID string) (*JobRecord, error)
}

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

var (
	_ JobRecorder = (*JobStore)(nil)
	_ JobRecorder = (*MemoryJobStore)(nil)
)

// JobStore writes sync outcomes to a DynamoDB table keyed by jobId, expiring after 24h.
type JobStore struct {
	client    dynamoAPI
	tableName string
	now       func() time.Time
}

func NewJobStore(client dynamoAPI, tableName string) *JobStore {
	if client == nil {
		panic("crm: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("crm: table name cannot be empty")
	}
	return &JobStore{client: client, tableName: tableName, now: time.Now}
}

func (s *JobStore) Record(ctx context.Context, job *JobRecord) error {
	if job == nil || job.JobID == "" {
		return errors.New("crm: job id required")
	}
	now := s.now().UTC()
	if job.CreatedAt == "" {
		job.CreatedAt = now.Format(time.RFC3339Nano)
	}
	if job.ExpiresAt == 0 {
		job.ExpiresAt = now.Add(jobTTL).Unix()
	}

	item, err := attributevalue.MarshalMap(job)
	if err != nil {
		return fmt.Errorf("crm: marshal job: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("crm: persist job: %w", err)
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, jobID string) (*JobRecord, error) {
	if jobID == "" {
		return nil, errors.New("crm: job id required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"jobId": &types.AttributeValueMemberS{Value: jobID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("crm: fetch job: %w", err)
	}
	if out.Item == nil {
		return nil, ErrJobNotFound
	}
	var job JobRecord
	if err := attributevalue.UnmarshalMap(out.Item, &job); err != nil {
		return nil, fmt.Errorf("crm: decode job: %w", err)
	}
	return &job, nil
}

// MemoryJobStore keeps outcomes in memory when no table is configured.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]JobRecord
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]JobRecord)}
}

func (s *MemoryJobStore) Record(_ context.Context, job *JobRecord) error {
	if job == nil || job.JobID == "" {
		return errors.New("crm: job id required")
	}
	s.mu.Lock()
	s.jobs[job.JobID] = *job
	s.mu.Unlock()
	return nil
}

func (s *MemoryJobStore) Get(_ context.Context, jobID string) (*JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}
