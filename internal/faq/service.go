package faq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// DefaultThreshold is the minimum cosine similarity for a dataset answer to be used.
const DefaultThreshold = 0.80

var _ qualification.FAQ = (*Service)(nil)

// Service answers questions from the active dataset and manages dataset uploads.
type Service struct {
	versions  VersionRepository
	store     DatasetStore
	embedder  Embedder
	cache     *EmbeddingCache
	threshold float64
	logger    *logging.Logger
	now       func() time.Time

	buildMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithThreshold overrides DefaultThreshold. Values outside (0, 1] are ignored.
func WithThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold <= 1 {
			s.threshold = threshold
		}
	}
}

// WithCache shares an embedding cache across services.
func WithCache(cache *EmbeddingCache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(versions VersionRepository, store DatasetStore, embedder Embedder, opts ...Option) *Service {
	if versions == nil {
		panic("faq: version repository cannot be nil")
	}
	if store == nil {
		panic("faq: dataset store cannot be nil")
	}
	if embedder == nil {
		panic("faq: embedder cannot be nil")
	}
	s := &Service{
		versions:  versions,
		store:     store,
		embedder:  embedder,
		cache:     NewEmbeddingCache(),
		threshold: DefaultThreshold,
		logger:    logging.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns the answer of the most similar dataset prompt when it clears the threshold.
// No active dataset is a miss, not an error.
func (s *Service) Lookup(ctx context.Context, question string) (string, bool, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", false, nil
	}
	active, err := s.versions.Active(ctx)
	if err != nil {
		if errors.Is(err, ErrNoActiveVersion) {
			return "", false, nil
		}
		return "", false, err
	}
	idx, err := s.index(ctx, active)
	if err != nil {
		return "", false, err
	}
	if idx.Len() == 0 {
		return "", false, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return "", false, err
	}
	if len(vectors) != 1 {
		return "", false, fmt.Errorf("faq: expected one query embedding, got %d", len(vectors))
	}
	answer, score := idx.Best(vectors[0])
	if score < s.threshold {
		s.logger.Debug("faq miss", "version", active.Label, "score", score)
		return "", false, nil
	}
	s.logger.Debug("faq hit", "version", active.Label, "score", score)
	return strings.TrimLeft(answer, " \t\r\n"), true, nil
}

func (s *Service) index(ctx context.Context, v DatasetVersion) (*Index, error) {
	if idx, ok := s.cache.Get(v.Label); ok {
		return idx, nil
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	if idx, ok := s.cache.Get(v.Label); ok {
		return idx, nil
	}

	data, err := s.store.Get(ctx, v.ObjectKey)
	if err != nil {
		return nil, err
	}
	entries, err := ParseJSONL(data)
	if err != nil {
		return nil, err
	}
	prompts := make([]string, len(entries))
	answers := make([]string, len(entries))
	for i, e := range entries {
		prompts[i] = e.Prompt
		answers[i] = e.Answer
	}
	vectors, err := s.embedder.Embed(ctx, prompts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(prompts) {
		return nil, fmt.Errorf("faq: expected %d embeddings, got %d", len(prompts), len(vectors))
	}
	idx := &Index{vectors: vectors, answers: answers}
	s.cache.Put(v.Label, idx)
	s.logger.Info("faq index built", "version", v.Label, "entries", idx.Len())
	return idx, nil
}

// UploadRequest carries a new dataset file.
type UploadRequest struct {
	Label       string
	Description string
	CreatedBy   string
	Data        []byte
}

// Upload validates, stores and activates a dataset.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (DatasetVersion, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return DatasetVersion{}, ErrInvalidLabel
	}
	entries, err := ParseJSONL(req.Data)
	if err != nil {
		return DatasetVersion{}, err
	}
	key, err := s.store.Put(ctx, label, req.Data)
	if err != nil {
		return DatasetVersion{}, err
	}
	v := DatasetVersion{
		Label:        label,
		Description:  strings.TrimSpace(req.Description),
		TotalRecords: len(entries),
		ObjectKey:    key,
		UploadedAt:   s.now().UTC(),
		Active:       true,
		CreatedBy:    req.CreatedBy,
	}
	if err := s.versions.Create(ctx, v); err != nil {
		return DatasetVersion{}, err
	}
	s.cache.Invalidate()
	s.logger.Info("faq dataset uploaded", "version", label, "records", v.TotalRecords)
	return v, nil
}

// Activate switches the active dataset.
func (s *Service) Activate(ctx context.Context, label string) error {
	if err := s.versions.Activate(ctx, label); err != nil {
		return err
	}
	s.cache.Invalidate()
	s.logger.Info("faq dataset activated", "version", label)
	return nil
}

// Versions lists all datasets, newest first.
func (s *Service) Versions(ctx context.Context) ([]DatasetVersion, error) {
	return s.versions.List(ctx)
}
