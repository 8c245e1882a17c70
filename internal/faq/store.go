package faq

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("leadassistant.internal.faq")

// DatasetStore holds raw dataset files.
type DatasetStore interface {
	Put(ctx context.Context, label string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// S3Client is the part of the S3 API the dataset store needs.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3DatasetStore keeps datasets under datasets/<label>.jsonl in one bucket.
type S3DatasetStore struct {
	client S3Client
	bucket string
}

func NewS3DatasetStore(client S3Client, bucket string) *S3DatasetStore {
	if client == nil {
		panic("faq: s3 client cannot be nil")
	}
	return &S3DatasetStore{client: client, bucket: bucket}
}

func (s *S3DatasetStore) Put(ctx context.Context, label string, data []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "faq.dataset.put")
	defer span.End()

	key := datasetKey(label)
	span.SetAttributes(attribute.String("s3.key", key), attribute.Int("dataset.bytes", len(data)))
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("faq: put dataset %s: %w", key, err)
	}
	return key, nil
}

func (s *S3DatasetStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "faq.dataset.get")
	defer span.End()
	span.SetAttributes(attribute.String("s3.key", key))

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("faq: get dataset %s: %w", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("faq: read dataset %s: %w", key, err)
	}
	return data, nil
}

// FileDatasetStore writes datasets to a local directory for development.
type FileDatasetStore struct {
	dir string
}

func NewFileDatasetStore(dir string) *FileDatasetStore {
	return &FileDatasetStore{dir: dir}
}

func (s *FileDatasetStore) Put(_ context.Context, label string, data []byte) (string, error) {
	key := datasetKey(label)
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("faq: create dataset dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("faq: write dataset: %w", err)
	}
	return key, nil
}

func (s *FileDatasetStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("faq: read dataset: %w", err)
	}
	return data, nil
}

func datasetKey(label string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(label))
	return "datasets/" + clean + ".jsonl"
}
