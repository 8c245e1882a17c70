package crm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type mockDynamo struct {
	putInput *dynamodb.PutItemInput
	item     map[string]types.AttributeValue
	err      error
}

func (m *mockDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.putInput = in
	m.item = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dynamodb.GetItemOutput{Item: m.item}, nil
}

func TestJobStoreRecordSetsTTL(t *testing.T) {
	mock := &mockDynamo{}
	store := NewJobStore(mock, "crm_sync_jobs")
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.Record(context.Background(), &JobRecord{JobID: "j1", SessionID: "web-1", Status: JobStatusCompleted}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := *mock.putInput.TableName; got != "crm_sync_jobs" {
		t.Fatalf("unexpected table %s", got)
	}

	var stored JobRecord
	if err := attributevalue.UnmarshalMap(mock.putInput.Item, &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stored.ExpiresAt != now.Add(24*time.Hour).Unix() {
		t.Fatalf("unexpected ttl %d", stored.ExpiresAt)
	}
	if stored.CreatedAt == "" {
		t.Fatalf("expected created timestamp")
	}

	got, err := store.Get(context.Background(), "j1")
	if err != nil || got.Status != JobStatusCompleted {
		t.Fatalf("get: %+v %v", got, err)
	}
}

func TestJobStoreGetMissing(t *testing.T) {
	store := NewJobStore(&mockDynamo{}, "crm_sync_jobs")
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if err := store.Record(context.Background(), &JobRecord{}); err == nil {
		t.Fatalf("expected error for empty job id")
	}
}
