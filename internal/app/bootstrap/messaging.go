package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/thepaulgroup/lead-assistant/internal/config"
	"github.com/thepaulgroup/lead-assistant/internal/messaging"
	"github.com/thepaulgroup/lead-assistant/internal/notify"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// BuildTwilioSender returns nil unless the account SID, auth token and from number are all set.
func BuildTwilioSender(cfg *appconfig.Config, logger *logging.Logger) *messaging.TwilioSender {
	if cfg == nil {
		return nil
	}
	if strings.TrimSpace(cfg.TwilioAccountSID) == "" || strings.TrimSpace(cfg.TwilioAuthToken) == "" || strings.TrimSpace(cfg.TwilioFromNumber) == "" {
		return nil
	}
	return messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
}

// BuildEmailSender picks the booking alert transport. SendGrid needs an API key and SES needs
// AWS config; anything else falls back to the logging stub.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewStubEmailSender(logger)
	}
	switch cfg.EmailProvider {
	case "sendgrid":
		if strings.TrimSpace(cfg.SendGridAPIKey) != "" {
			logger.Info("booking email: sendgrid")
			return notify.NewSendGridSender(notify.SendGridConfig{
				APIKey:    cfg.SendGridAPIKey,
				FromEmail: cfg.EmailFrom,
				FromName:  cfg.EmailFromName,
			}, logger)
		}
	case "ses":
		if awsCfg != nil {
			logger.Info("booking email: ses")
			return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
				FromEmail: cfg.EmailFrom,
				FromName:  cfg.EmailFromName,
			}, logger)
		}
	}
	logger.Warn("booking email: stub sender; alerts are only logged", "provider", cfg.EmailProvider)
	return notify.NewStubEmailSender(logger)
}

// BuildBookingNotifier wires the email alert and, when a sender is available, the agent SMS alert.
func BuildBookingNotifier(cfg *appconfig.Config, awsCfg *aws.Config, sms *messaging.TwilioSender, logger *logging.Logger) *notify.BookingNotifier {
	notifierCfg := notify.BookingNotifierConfig{
		Email:  BuildEmailSender(cfg, awsCfg, logger),
		Logger: logger,
	}
	if cfg != nil {
		notifierCfg.AlertEmail = cfg.BookingAlertEmail
		if sms != nil {
			notifierCfg.SMS = sms
			notifierCfg.AlertPhone = cfg.AgentAlertPhone
		}
	}
	return notify.NewBookingNotifier(notifierCfg)
}
