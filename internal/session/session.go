package session

import (
	"context"
	"errors"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Sentinel errors for strict store operations.
var (
	// ErrNotFound is returned by strict operations (append, context update)
	// against a missing session. It signals a caller protocol violation;
	// adapters recover with the get-or-create idiom.
	ErrNotFound = errors.New("session: not found")

	// ErrDuplicate is returned when Create is called with an explicit key
	// that already exists.
	ErrDuplicate = errors.New("session: duplicate key")
)

// Turn is a single message within a conversation. Immutable once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a bounded conversation identified by a stable key. The
// transcript is append-only and ordered by arrival; the context map is
// last-write-wins.
type Session struct {
	Key          string         `json:"session_key"`
	BusinessType string         `json:"business_type"`
	Turns        []Turn         `json:"turns"`
	Context      map[string]any `json:"context"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func newSession(key, businessType string) *Session {
	now := time.Now().UTC()
	return &Session{
		Key:          key,
		BusinessType: businessType,
		Context:      make(map[string]any),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// clone returns a snapshot safe to hand to callers while the store keeps
// mutating the original.
func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Turns = make([]Turn, len(s.Turns))
	copy(cp.Turns, s.Turns)
	cp.Context = make(map[string]any, len(s.Context))
	for k, v := range s.Context {
		cp.Context[k] = v
	}
	return &cp
}

func (s *Session) appendTurn(role Role, text string) {
	now := time.Now().UTC()
	s.Turns = append(s.Turns, Turn{Role: role, Text: text, Timestamp: now})
	s.UpdatedAt = now
}

func (s *Session) setContext(field string, value any) {
	if s.Context == nil {
		s.Context = make(map[string]any)
	}
	s.Context[field] = value
	s.UpdatedAt = time.Now().UTC()
}

// Store is the conversation core shared by every channel adapter. Sessions
// live until End or process exit; there is no automatic expiry beyond what a
// backend's TTL provides.
type Store interface {
	// Create registers a new session. An empty key means "generate one".
	// An explicit key that already exists fails with ErrDuplicate.
	Create(ctx context.Context, businessType, key string) (*Session, error)

	// Get returns a snapshot of the session, or false on a miss. Never errors.
	Get(ctx context.Context, key string) (*Session, bool)

	// AppendTurn pushes a turn onto the transcript. ErrNotFound on a miss.
	AppendTurn(ctx context.Context, key string, role Role, text string) error

	// SetContext upserts a context value, last write wins. ErrNotFound on a miss.
	SetContext(ctx context.Context, key, field string, value any) error

	// History returns the ordered transcript, empty for unknown keys. This is
	// the one forgiving read used by status and debug endpoints.
	History(ctx context.Context, key string) []Turn

	// End removes the session. Idempotent; no error when already absent.
	End(ctx context.Context, key string)
}
