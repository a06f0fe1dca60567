// Package audiostream accepts raw audio over a WebSocket, transcribes it,
// and runs the result through the dialogue engine. Binary frames accumulate
// into one utterance; a text control frame marks the utterance boundary.
package audiostream

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/bdafahim/OmniAssist/internal/dialogue"
	"github.com/bdafahim/OmniAssist/internal/session"
	"github.com/bdafahim/OmniAssist/internal/speech"
	"github.com/bdafahim/OmniAssist/pkg/logging"
)

type dialogueEngine interface {
	HandleTurn(ctx context.Context, req dialogue.TurnRequest) (string, error)
	StartSession(ctx context.Context, businessType string) (*session.Session, error)
	EndSession(ctx context.Context, sessionKey string)
}

// OutboundMessage is what the server sends back over the socket.
type OutboundMessage struct {
	Type       string `json:"type"` // "session", "reply", "pong", "error"
	SessionID  string `json:"session_id,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Reply      string `json:"reply,omitempty"`
	AudioPath  string `json:"audio_path,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Handler manages raw-audio WebSocket connections.
type Handler struct {
	engine       dialogueEngine
	transcriber  speech.Transcriber
	synthesizer  speech.Synthesizer
	businessType string
	logger       *logging.Logger
}

// NewHandler creates an audio stream handler. synthesizer may be nil, in
// which case replies carry text only.
func NewHandler(engine dialogueEngine, transcriber speech.Transcriber, synthesizer speech.Synthesizer, businessType string, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("audiostream: engine cannot be nil")
	}
	if transcriber == nil {
		panic("audiostream: transcriber cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine:       engine,
		transcriber:  transcriber,
		synthesizer:  synthesizer,
		businessType: businessType,
		logger:       logger.Component("audiostream"),
	}
}

// Stream upgrades to WebSocket and serves the audio conversation loop.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()

	sessionKey := r.URL.Query().Get("session")
	if sessionKey == "" {
		sess, err := h.engine.StartSession(ctx, h.businessType)
		if err != nil {
			h.logger.Error("failed to start audio session", "error", err)
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Error: "could not start session"})
			return
		}
		sessionKey = sess.Key
		defer h.engine.EndSession(ctx, sessionKey)
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionKey})
	h.logger.Info("audio stream opened", "session_key", sessionKey)

	var buffered []byte
	for {
		var frame []byte
		if err := websocket.Message.Receive(conn, &frame); err != nil {
			h.logger.Debug("audio stream closed", "session_key", sessionKey, "error", err)
			return
		}

		control := strings.TrimSpace(strings.ToLower(string(frame)))
		switch control {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		case "end":
			if len(buffered) == 0 {
				_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Error: "no audio received"})
				continue
			}
			h.processUtterance(ctx, conn, sessionKey, buffered)
			buffered = nil
			continue
		}

		buffered = append(buffered, frame...)
	}
}

// processUtterance turns one buffered utterance into a reply frame.
func (h *Handler) processUtterance(ctx context.Context, conn *websocket.Conn, sessionKey string, audio []byte) {
	transcript, err := h.transcriber.Transcribe(ctx, audio)
	if err != nil {
		h.logger.Error("transcription failed", "error", err, "session_key", sessionKey)
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Error: "could not transcribe audio"})
		return
	}

	reply, err := h.engine.HandleTurn(ctx, dialogue.TurnRequest{
		SessionKey:   sessionKey,
		BusinessType: h.businessType,
		Channel:      "audio",
		Text:         transcript,
	})
	if err != nil {
		h.logger.Error("failed to handle audio turn", "error", err, "session_key", sessionKey)
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Error: "could not process utterance"})
		return
	}

	out := OutboundMessage{
		Type:       "reply",
		SessionID:  sessionKey,
		Transcript: transcript,
		Reply:      reply,
	}
	if h.synthesizer != nil {
		if path, err := h.synthesizer.Synthesize(ctx, reply); err != nil {
			h.logger.Warn("speech synthesis failed", "error", err, "session_key", sessionKey)
		} else {
			out.AudioPath = path
		}
	}
	_ = websocket.JSON.Send(conn, out)
}
