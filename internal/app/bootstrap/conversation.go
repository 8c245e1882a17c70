package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	openai "github.com/sashabaranov/go-openai"

	appconfig "github.com/thepaulgroup/lead-assistant/internal/config"
	"github.com/thepaulgroup/lead-assistant/internal/conversation"
	"github.com/thepaulgroup/lead-assistant/internal/crm"
	"github.com/thepaulgroup/lead-assistant/internal/faq"
	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// BuildFAQService wires dataset versions, storage, and embeddings. It returns nil when no
// embedding provider is configured.
func BuildFAQService(cfg *appconfig.Config, pool *pgxpool.Pool, awsCfg *aws.Config, openaiClient *openai.Client, logger *logging.Logger) (*faq.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if openaiClient == nil {
		logger.Warn("no embedding provider configured; FAQ lookup disabled")
		return nil, nil
	}

	var versions faq.VersionRepository = faq.NewMemoryVersionRepository()
	if pool != nil {
		versions = faq.NewPostgresVersionRepository(pool)
	}

	var store faq.DatasetStore
	if bucket := strings.TrimSpace(cfg.DatasetBucket); bucket != "" && awsCfg != nil {
		store = faq.NewS3DatasetStore(s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
			o.UsePathStyle = cfg.AWSEndpointOverride != ""
		}), bucket)
		logger.Info("dataset store: s3", "bucket", bucket)
	} else {
		store = faq.NewFileDatasetStore(cfg.FAQDatasetDir)
		logger.Info("dataset store: local files", "dir", cfg.FAQDatasetDir)
	}

	return faq.NewService(versions, store, faq.NewOpenAIEmbedder(openaiClient, cfg.EmbeddingModel),
		faq.WithThreshold(cfg.FAQSimilarityThreshold),
		faq.WithLogger(logger),
	), nil
}

// BuildCRMClient returns nil when no lead endpoint is configured.
func BuildCRMClient(cfg *appconfig.Config, logger *logging.Logger) *crm.Client {
	if cfg == nil || strings.TrimSpace(cfg.CRMLeadURL) == "" {
		return nil
	}
	return crm.NewClient(cfg.CRMLeadURL, cfg.CRMSummaryURL, crm.WithLogger(logger))
}

// MachineDeps are the optional collaborators of the qualification machine.
type MachineDeps struct {
	FAQ      *faq.Service
	Chat     conversation.LLMClient
	CRM      *crm.Client
	Bookings qualification.BookingRecorder
}

// BuildMachine assembles the qualification machine. Absent collaborators are left unset so
// the machine falls back to its built-in behavior.
func BuildMachine(cfg *appconfig.Config, deps MachineDeps, logger *logging.Logger) *qualification.Machine {
	if logger == nil {
		logger = logging.Default()
	}
	agentName, crmTimeout := "", time.Duration(0)
	if cfg != nil {
		agentName, crmTimeout = cfg.AgentName, cfg.CRMTimeout
	}

	opts := []qualification.Option{qualification.WithLogger(logger)}
	if deps.FAQ != nil {
		opts = append(opts, qualification.WithFAQ(deps.FAQ))
	}
	if deps.Chat != nil {
		opts = append(opts, qualification.WithChat(conversation.NewGeneralChat(deps.Chat, agentName, logger)))
	}
	if deps.CRM != nil {
		opts = append(opts, qualification.WithCRM(deps.CRM, crmTimeout))
	}
	if deps.Bookings != nil {
		opts = append(opts, qualification.WithBookings(deps.Bookings))
	}
	return qualification.NewMachine(opts...)
}
