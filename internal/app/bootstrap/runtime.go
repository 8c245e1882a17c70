package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/thepaulgroup/lead-assistant/internal/config"
	"github.com/thepaulgroup/lead-assistant/internal/crm"
	"github.com/thepaulgroup/lead-assistant/internal/leads"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// Repositories are the session and appointment stores a process uses.
type Repositories struct {
	Sessions     leads.SessionRepository
	Appointments leads.AppointmentRepository
}

// BuildRepositories uses Postgres when a pool is given and memory otherwise. Sessions are
// fronted by a Redis read-through cache when a client is given.
func BuildRepositories(cfg *appconfig.Config, pool *pgxpool.Pool, redisClient *redis.Client, logger *logging.Logger) Repositories {
	if logger == nil {
		logger = logging.Default()
	}
	var repos Repositories
	if pool != nil {
		pg := leads.NewPostgresRepository(pool)
		repos = Repositories{Sessions: pg, Appointments: pg}
		logger.Info("lead repository: postgres")
	} else {
		mem := leads.NewInMemoryRepository()
		repos = Repositories{Sessions: mem, Appointments: mem}
		logger.Warn("lead repository: in-memory; sessions are lost on restart")
	}
	if redisClient != nil {
		var ttl time.Duration
		if cfg != nil {
			ttl = cfg.SessionCacheTTL
		}
		repos.Sessions = leads.NewCachedSessionStore(repos.Sessions, redisClient, ttl, logger)
		logger.Info("session cache enabled", "ttl", ttl.String())
	}
	return repos
}

// CRMSync is the progressive lead sync pipeline: a publisher the conversation service calls
// and a worker draining the same queue.
type CRMSync struct {
	Publisher *crm.Publisher
	Worker    *crm.Worker
	// Inline is set for the in-memory queue, which only a worker in the same process can drain.
	Inline bool
}

// BuildCRMSync wires the sync queue and job ledger. It returns nil when no CRM client is
// configured. Development uses an in-memory queue and ledger; production uses SQS and
// DynamoDB.
func BuildCRMSync(cfg *appconfig.Config, awsCfg *aws.Config, sessions crm.SessionLoader, client *crm.Client, logger *logging.Logger) (*CRMSync, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if client == nil {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	workerOpts := []crm.WorkerOption{crm.WithWorkerCount(cfg.WorkerCount)}

	if cfg.UseMemoryQueue || strings.TrimSpace(cfg.CRMSyncQueueURL) == "" {
		queue := crm.NewMemoryQueue(256)
		logger.Info("crm sync queue: in-memory")
		return &CRMSync{
			Publisher: crm.NewPublisher(queue, logger),
			Worker:    crm.NewWorker(queue, sessions, client, crm.NewMemoryJobStore(), logger, workerOpts...),
			Inline:    true,
		}, nil
	}

	if awsCfg == nil {
		return nil, fmt.Errorf("bootstrap: aws config required for sqs queue")
	}
	queue := crm.NewSQSQueue(sqs.NewFromConfig(*awsCfg), cfg.CRMSyncQueueURL)
	var jobs crm.JobRecorder
	if table := strings.TrimSpace(cfg.CRMJobsTable); table != "" {
		jobs = crm.NewJobStore(dynamodb.NewFromConfig(*awsCfg), table)
	}
	logger.Info("crm sync queue: sqs", "queue_url", cfg.CRMSyncQueueURL, "jobs_table", cfg.CRMJobsTable)
	return &CRMSync{
		Publisher: crm.NewPublisher(queue, logger),
		Worker:    crm.NewWorker(queue, sessions, client, jobs, logger, workerOpts...),
	}, nil
}
