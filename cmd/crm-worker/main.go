package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/thepaulgroup/lead-assistant/cmd/mainconfig"
	"github.com/thepaulgroup/lead-assistant/internal/app/bootstrap"
	appconfig "github.com/thepaulgroup/lead-assistant/internal/config"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// crm-worker drains the SQS CRM sync queue. It reads sessions from the same Postgres and
// Redis the API writes to.
func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.UseMemoryQueue || cfg.CRMSyncQueueURL == "" {
		logger.Error("crm worker requires USE_MEMORY_QUEUE=false and CRM_SYNC_QUEUE_URL")
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("crm worker requires DATABASE_URL to read sessions")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsConfig, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	repos := bootstrap.BuildRepositories(cfg, pool, redisClient, logger)

	crmClient := bootstrap.BuildCRMClient(cfg, logger)
	if crmClient == nil {
		logger.Error("crm worker requires CRM_LEAD_URL")
		os.Exit(1)
	}
	crmSync, err := bootstrap.BuildCRMSync(cfg, &awsConfig, repos.Sessions, crmClient, logger)
	if err != nil {
		logger.Error("failed to build crm sync", "error", err)
		os.Exit(1)
	}

	crmSync.Worker.Start(ctx)
	logger.Info("crm worker started", "workers", cfg.WorkerCount, "queue_url", cfg.CRMSyncQueueURL)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down crm worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		crmSync.Worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("crm worker stopped")
	case <-doneCtx.Done():
		logger.Error("crm worker shutdown timed out", "error", doneCtx.Err())
	}
}
