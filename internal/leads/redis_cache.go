package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultSessionCacheTTL = 24 * time.Hour

var _ SessionRepository = (*CachedSessionStore)(nil)

// CachedSessionStore is a read-through Redis cache in front of a durable SessionRepository.
// Writes go to the backing store first; a failed cache write is logged and the next
// Load repopulates it.
type CachedSessionStore struct {
	backing SessionRepository
	redis   *redis.Client
	ttl     time.Duration
	tracer  trace.Tracer
	logger  *logging.Logger
}

// NewCachedSessionStore wraps backing with a Redis cache.
func NewCachedSessionStore(backing SessionRepository, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedSessionStore {
	if backing == nil {
		panic("leads: backing session repository cannot be nil")
	}
	if client == nil {
		panic("leads: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultSessionCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedSessionStore{
		backing: backing,
		redis:   client,
		ttl:     ttl,
		tracer:  otel.Tracer("leadassistant.internal.leads.cache"),
		logger:  logger,
	}
}

func (c *CachedSessionStore) Load(ctx context.Context, id string) (*qualification.Session, error) {
	ctx, span := c.tracer.Start(ctx, "leads.load_session")
	defer span.End()

	data, err := c.redis.Get(ctx, sessionKey(id)).Bytes()
	switch {
	case err == nil:
		s, decodeErr := DecodeSession(data)
		if decodeErr == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return s, nil
		}
		// A corrupt entry is dropped and reloaded from the backing store.
		span.RecordError(decodeErr)
		c.logger.Warn("discarding undecodable cached session", "error", decodeErr)
		_ = c.redis.Del(ctx, sessionKey(id)).Err()
	case !errors.Is(err, redis.Nil):
		span.RecordError(err)
		c.logger.Warn("session cache read failed", "error", err)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	s, err := c.backing.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			span.RecordError(err)
		}
		return nil, err
	}
	c.fill(ctx, s)
	return s, nil
}

func (c *CachedSessionStore) Save(ctx context.Context, s *qualification.Session) error {
	ctx, span := c.tracer.Start(ctx, "leads.save_session")
	defer span.End()

	if err := c.backing.Save(ctx, s); err != nil {
		span.RecordError(err)
		return err
	}
	c.fill(ctx, s)
	return nil
}

func (c *CachedSessionStore) List(ctx context.Context, filter ListFilter) ([]*qualification.Session, error) {
	return c.backing.List(ctx, filter)
}

func (c *CachedSessionStore) fill(ctx context.Context, s *qualification.Session) {
	data, err := EncodeSession(s)
	if err != nil {
		c.logger.Warn("session cache encode failed", "error", err)
		return
	}
	if err := c.redis.Set(ctx, sessionKey(s.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("session cache write failed", "error", fmt.Errorf("leads: cache session: %w", err))
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("lead-session:%s", id)
}
