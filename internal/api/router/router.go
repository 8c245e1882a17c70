package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/thepaulgroup/lead-assistant/internal/conversation"
	"github.com/thepaulgroup/lead-assistant/internal/faq"
	"github.com/thepaulgroup/lead-assistant/internal/http/handlers"
	httpmiddleware "github.com/thepaulgroup/lead-assistant/internal/http/middleware"
	"github.com/thepaulgroup/lead-assistant/internal/leads"
	"github.com/thepaulgroup/lead-assistant/internal/messaging"
	"github.com/thepaulgroup/lead-assistant/internal/webchat"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// Config holds router configuration. Nil handlers leave their routes unmounted.
type Config struct {
	Logger              *logging.Logger
	WebChat             *webchat.Handler
	SMS                 *messaging.Handler
	LeadsHandler        *leads.Handler
	ConversationHandler *conversation.Handler
	DatasetHandler      *faq.Handler
	AdminAuth           *handlers.AdminAuthHandler
	AdminStats          *handlers.AdminStatsHandler
	AdminAuthSecret     string
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	// ChatLimiter throttles the public chat and SMS endpoints when set.
	ChatLimiter httpmiddleware.Limiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public conversation endpoints.
	r.Group(func(public chi.Router) {
		if cfg.ChatLimiter != nil {
			public.Use(httpmiddleware.RateLimit(cfg.ChatLimiter, cfg.Logger))
		}
		if cfg.WebChat != nil {
			public.Post("/chat", cfg.WebChat.HandleChat)
			public.Get("/chat/ws", cfg.WebChat.HandleWebSocket)
		}
		if cfg.SMS != nil {
			public.Post("/webhooks/twilio/sms", cfg.SMS.TwilioSMS)
		}
	})

	r.Route("/admin", func(admin chi.Router) {
		if cfg.AdminAuth != nil {
			admin.Post("/login", cfg.AdminAuth.Login)
		}
		admin.Group(func(protected chi.Router) {
			protected.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.LeadsHandler != nil {
				protected.Get("/leads", cfg.LeadsHandler.ListLeads)
				protected.Get("/leads/recruiting", cfg.LeadsHandler.ListRecruitingLeads)
				protected.Get("/leads/{id}", cfg.LeadsHandler.GetLead)
				protected.Get("/appointments", cfg.LeadsHandler.ListAppointments)
			}
			if cfg.ConversationHandler != nil {
				protected.Get("/conversations", cfg.ConversationHandler.ListConversations)
			}
			if cfg.DatasetHandler != nil {
				protected.Post("/datasets", cfg.DatasetHandler.Upload)
				protected.Get("/datasets", cfg.DatasetHandler.List)
				protected.Post("/datasets/{label}/activate", cfg.DatasetHandler.Activate)
			}
			if cfg.AdminStats != nil {
				protected.Get("/stats", cfg.AdminStats.Stats)
			}
		})
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
