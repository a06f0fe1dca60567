// Package sms adapts Twilio SMS webhooks onto the dialogue engine. The
// sender's phone number doubles as the session key, so a texting thread and
// its conversation session have the same lifetime.
package sms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bdafahim/OmniAssist/internal/dialogue"
	"github.com/bdafahim/OmniAssist/pkg/logging"
)

var tracer = otel.Tracer("omniassist.internal.channels.sms")

type turnHandler interface {
	HandleTurn(ctx context.Context, req dialogue.TurnRequest) (string, error)
}

// Handler handles Twilio SMS webhook requests.
type Handler struct {
	engine       turnHandler
	businessType string
	authToken    string
	logger       *logging.Logger
}

// NewHandler creates an SMS webhook handler. An empty authToken disables
// signature validation, which is the local development mode.
func NewHandler(engine turnHandler, businessType, authToken string, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("sms: engine cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine:       engine,
		businessType: businessType,
		authToken:    authToken,
		logger:       logger.Component("sms"),
	}
}

// Webhook handles POST /sms requests from Twilio.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "sms.webhook")
	defer span.End()

	if h.authToken != "" {
		if !ValidateTwilioSignature(r, h.authToken, BuildAbsoluteURL(r)) {
			h.logger.Warn("invalid twilio signature")
			span.RecordError(errors.New("invalid twilio signature"))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	if err := r.ParseForm(); err != nil {
		h.logger.Error("failed to parse twilio form", "error", err)
		span.RecordError(err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	body := strings.TrimSpace(r.FormValue("Body"))
	from := NormalizeE164(r.FormValue("From"))
	if from == "" {
		err := errors.New("missing From number")
		h.logger.Error("invalid twilio payload", "error", err)
		span.RecordError(err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("omniassist.sms.from", from))

	reply, err := h.engine.HandleTurn(ctx, dialogue.TurnRequest{
		SessionKey:   from,
		BusinessType: h.businessType,
		Channel:      "sms",
		Text:         body,
	})
	if err != nil {
		h.logger.Error("failed to handle sms turn", "error", err, "from", from)
		span.RecordError(err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("sms webhook handled", "from", from)
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(MessageTwiML(reply)))
}

// Status handles GET /sms/status requests.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "SMS endpoint active"})
}
