// Package voice adapts Twilio voice calls onto the dialogue engine. Each
// inbound call opens a fresh session whose key rides in the gather callback
// URL, so every speech result lands back on the same conversation.
package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bdafahim/OmniAssist/internal/dialogue"
	"github.com/bdafahim/OmniAssist/internal/session"
	"github.com/bdafahim/OmniAssist/pkg/logging"
)

var tracer = otel.Tracer("omniassist.internal.channels.voice")

// CallGreeting opens every inbound call before the first gather.
const CallGreeting = "Hello! Welcome to our AI customer service. How can I help you today?"

type dialogueEngine interface {
	HandleTurn(ctx context.Context, req dialogue.TurnRequest) (string, error)
	StartSession(ctx context.Context, businessType string) (*session.Session, error)
	History(ctx context.Context, sessionKey string) []session.Turn
	EndSession(ctx context.Context, sessionKey string)
}

// Handler handles Twilio voice webhook requests.
type Handler struct {
	engine       dialogueEngine
	businessType string
	apiPrefix    string
	logger       *logging.Logger
}

// NewHandler creates a voice webhook handler. apiPrefix is the mount point
// of the API surface and shapes the gather callback URLs.
func NewHandler(engine dialogueEngine, businessType, apiPrefix string, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("voice: engine cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine:       engine,
		businessType: businessType,
		apiPrefix:    strings.TrimSuffix(apiPrefix, "/"),
		logger:       logger.Component("voice"),
	}
}

// InboundCall handles POST /voice requests, opening a session and greeting
// the caller.
func (h *Handler) InboundCall(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "voice.inbound_call")
	defer span.End()

	sess, err := h.engine.StartSession(ctx, h.businessType)
	if err != nil {
		h.logger.Error("failed to start call session", "error", err)
		span.RecordError(err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(attribute.String("omniassist.session_key", sess.Key))

	h.logger.Info("inbound call accepted", "session_key", sess.Key)
	writeTwiML(w, SpeechTwiML(CallGreeting, handleInputURL(h.apiPrefix, sess.Key)))
}

// HandleInput handles POST /voice/handle-input requests carrying a Twilio
// SpeechResult for an existing call session.
func (h *Handler) HandleInput(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "voice.handle_input")
	defer span.End()

	sessionKey := r.URL.Query().Get("session_id")
	if sessionKey == "" {
		err := errors.New("missing session_id")
		h.logger.Error("invalid voice input request", "error", err)
		span.RecordError(err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("omniassist.session_key", sessionKey))

	if err := r.ParseForm(); err != nil {
		h.logger.Error("failed to parse voice form", "error", err)
		span.RecordError(err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	speech := strings.TrimSpace(r.FormValue("SpeechResult"))

	reply, err := h.engine.HandleTurn(ctx, dialogue.TurnRequest{
		SessionKey:   sessionKey,
		BusinessType: h.businessType,
		Channel:      "voice",
		Text:         speech,
	})
	if err != nil {
		h.logger.Error("failed to handle voice turn", "error", err, "session_key", sessionKey)
		span.RecordError(err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeTwiML(w, SpeechTwiML(reply, handleInputURL(h.apiPrefix, sessionKey)))
}

// Conversation handles GET /voice/conversation/{sessionID}, returning the
// transcript for call introspection.
func (h *Handler) Conversation(w http.ResponseWriter, r *http.Request) {
	sessionKey := chi.URLParam(r, "sessionID")
	history := h.engine.History(r.Context(), sessionKey)
	if history == nil {
		history = []session.Turn{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"session_id": sessionKey,
		"history":    history,
	})
}

// End handles DELETE /voice/conversation/{sessionID}.
func (h *Handler) End(w http.ResponseWriter, r *http.Request) {
	sessionKey := chi.URLParam(r, "sessionID")
	h.engine.EndSession(r.Context(), sessionKey)
	w.WriteHeader(http.StatusNoContent)
}

func writeTwiML(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}
