package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bdafahim/OmniAssist/internal/channels/audiostream"
	"github.com/bdafahim/OmniAssist/internal/channels/sms"
	"github.com/bdafahim/OmniAssist/internal/channels/voice"
	httpmiddleware "github.com/bdafahim/OmniAssist/internal/http/middleware"
	"github.com/bdafahim/OmniAssist/internal/knowledge"
	"github.com/bdafahim/OmniAssist/internal/session"
	"github.com/bdafahim/OmniAssist/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	APIPrefix          string
	BusinessType       string
	SMSHandler         *sms.Handler
	VoiceHandler       *voice.Handler
	KnowledgeHandler   *knowledge.Handler
	AudioStreamHandler *audiostream.Handler
	MetricsHandler     http.Handler
	Archive            *session.Archive
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	apiPrefix := cfg.APIPrefix
	if apiPrefix == "" {
		apiPrefix = "/api/v1"
	}

	r.Get("/", rootStatus(cfg.BusinessType, apiPrefix, cfg.Archive))
	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route(apiPrefix, func(api chi.Router) {
		if cfg.SMSHandler != nil {
			api.Route("/sms", func(r chi.Router) {
				r.Post("/", cfg.SMSHandler.Webhook)
				r.Get("/status", cfg.SMSHandler.Status)
			})
		}
		if cfg.VoiceHandler != nil {
			api.Route("/voice", func(r chi.Router) {
				r.Post("/", cfg.VoiceHandler.InboundCall)
				r.Post("/handle-input", cfg.VoiceHandler.HandleInput)
				r.Get("/conversation/{sessionID}", cfg.VoiceHandler.Conversation)
				r.Delete("/conversation/{sessionID}", cfg.VoiceHandler.End)
			})
		}
		if cfg.KnowledgeHandler != nil {
			api.Route("/knowledge", func(r chi.Router) {
				r.Get("/query", cfg.KnowledgeHandler.Query)
				r.Get("/", cfg.KnowledgeHandler.Dump)
				r.Put("/", cfg.KnowledgeHandler.Update)
				r.Get("/business-type", cfg.KnowledgeHandler.BusinessType)
				r.Get("/menu", cfg.KnowledgeHandler.Menu)
				r.Get("/properties", cfg.KnowledgeHandler.Properties)
			})
		}
		if cfg.AudioStreamHandler != nil {
			api.Get("/audio/stream", cfg.AudioStreamHandler.Stream)
		}
	})

	return r
}

func rootStatus(businessType, apiPrefix string, archive *session.Archive) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]any{
			"message":       "AI Customer Service & Ordering Agent API",
			"business_type": businessType,
			"api_version":   apiPrefix,
		}
		if archive != nil {
			if count, err := archive.CountConversations(r.Context(), businessType); err == nil {
				status["archived_conversations"] = count
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
