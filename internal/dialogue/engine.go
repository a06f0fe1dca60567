package dialogue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bdafahim/OmniAssist/internal/knowledge"
	"github.com/bdafahim/OmniAssist/internal/observability/metrics"
	"github.com/bdafahim/OmniAssist/internal/session"
	"github.com/bdafahim/OmniAssist/pkg/logging"
)

// sentimentContextKey is where each turn's sentiment lands in the session
// context bag, last write wins.
const sentimentContextKey = "sentiment"

// TurnRequest is the inbound turn contract shared by every channel adapter.
type TurnRequest struct {
	SessionKey   string
	BusinessType string
	Channel      string
	Text         string
}

// Engine orchestrates one conversation turn: classify, query knowledge,
// compose, tag sentiment, and record both turns. It holds no per-session
// state of its own; the session store owns all of it, which makes the
// engine reentrant per session.
type Engine struct {
	sessions  session.Store
	knowledge *knowledge.Store
	composer  *Composer
	resolver  UnknownResolver
	metrics   *metrics.DialogueMetrics
	logger    *logging.Logger
	tracer    trace.Tracer
}

// NewEngine creates a dialogue engine. resolver and m may be nil.
func NewEngine(sessions session.Store, ks *knowledge.Store, composer *Composer, resolver UnknownResolver, m *metrics.DialogueMetrics, logger *logging.Logger) *Engine {
	if sessions == nil {
		panic("dialogue: session store cannot be nil")
	}
	if composer == nil {
		panic("dialogue: composer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		sessions:  sessions,
		knowledge: ks,
		composer:  composer,
		resolver:  resolver,
		metrics:   m,
		logger:    logger.Component("dialogue"),
		tracer:    otel.Tracer("omniassist.internal.dialogue"),
	}
}

// HandleTurn runs one full turn and returns the reply text. The reply path
// is no-throw: knowledge lookups degrade to the fallback branch. Errors are
// returned only for session-store protocol failures.
func (e *Engine) HandleTurn(ctx context.Context, req TurnRequest) (string, error) {
	started := time.Now()
	ctx, span := e.tracer.Start(ctx, "dialogue.handle_turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("omniassist.channel", req.Channel),
		attribute.String("omniassist.session_key", req.SessionKey),
	)

	sess, err := e.resolveSession(ctx, req.SessionKey, req.BusinessType)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	if err := e.sessions.AppendTurn(ctx, sess.Key, session.RoleUser, req.Text); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("dialogue: failed to record user turn: %w", err)
	}

	topic := Classify(req.Text)
	span.SetAttributes(attribute.String("omniassist.topic", string(topic)))

	var value any
	if e.knowledge != nil {
		value = e.knowledge.Query(ctx, string(topic))
	} else {
		topic = TopicUnknown
	}
	reply := e.composer.Compose(topic, value, req.Text)

	if topic == TopicUnknown && e.resolver != nil {
		if resolved := e.resolveUnknown(ctx, sess.Key, req.Text); resolved != "" {
			reply = resolved
		}
	}

	sentiment := ScoreSentiment(req.Text)
	if err := e.sessions.SetContext(ctx, sess.Key, sentimentContextKey, sentiment); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("dialogue: failed to record sentiment: %w", err)
	}

	if err := e.sessions.AppendTurn(ctx, sess.Key, session.RoleAssistant, reply); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("dialogue: failed to record assistant turn: %w", err)
	}

	e.metrics.ObserveTurn(req.Channel, string(topic), time.Since(started).Seconds())
	e.logger.Info("turn handled",
		"channel", req.Channel,
		"session_key", sess.Key,
		"topic", topic,
		"sentiment", sentiment.Sentiment,
	)
	return reply, nil
}

// resolveSession implements the get-or-create idiom. A lost create race
// falls back to the winner's session.
func (e *Engine) resolveSession(ctx context.Context, key, businessType string) (*session.Session, error) {
	if sess, ok := e.sessions.Get(ctx, key); ok {
		return sess, nil
	}
	sess, err := e.sessions.Create(ctx, businessType, key)
	if err == nil {
		return sess, nil
	}
	if errors.Is(err, session.ErrDuplicate) {
		if sess, ok := e.sessions.Get(ctx, key); ok {
			return sess, nil
		}
	}
	return nil, fmt.Errorf("dialogue: failed to resolve session: %w", err)
}

// resolveUnknown consults the optional resolver; any failure means no answer.
func (e *Engine) resolveUnknown(ctx context.Context, sessionKey, text string) string {
	history := e.sessions.History(ctx, sessionKey)
	resolved, err := e.resolver.Resolve(ctx, text, history)
	if err != nil {
		e.logger.Warn("unknown-topic resolver failed", "error", err, "session_key", sessionKey)
		return ""
	}
	return resolved
}

// StartSession creates a fresh session with a generated key, used by the
// voice channel when a call comes in before any utterance.
func (e *Engine) StartSession(ctx context.Context, businessType string) (*session.Session, error) {
	sess, err := e.sessions.Create(ctx, businessType, "")
	if err != nil {
		return nil, fmt.Errorf("dialogue: failed to start session: %w", err)
	}
	return sess, nil
}

// History returns the ordered transcript for a session, empty when unknown.
func (e *Engine) History(ctx context.Context, sessionKey string) []session.Turn {
	return e.sessions.History(ctx, sessionKey)
}

// EndSession removes a session. Idempotent.
func (e *Engine) EndSession(ctx context.Context, sessionKey string) {
	e.sessions.End(ctx, sessionKey)
}

// Greeting returns the business greeting phrase for conversation openers.
func (e *Engine) Greeting() string {
	return e.composer.Greeting()
}
