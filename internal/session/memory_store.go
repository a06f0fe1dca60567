package session

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

const shardCount = 32

type shard struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// MemoryStore keeps sessions in a sharded in-process map. Shards are keyed
// by FNV-1a of the session key so turns for different sessions never contend
// on the same lock. Create is an atomic check-and-insert under the shard
// lock, so concurrent creates for one key yield exactly one session.
type MemoryStore struct {
	shards [shardCount]*shard
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*Session)}
	}
	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

// Create registers a new session, generating a key when none is supplied.
func (s *MemoryStore) Create(_ context.Context, businessType, key string) (*Session, error) {
	if key == "" {
		key = uuid.NewString()
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.sessions[key]; exists {
		return nil, ErrDuplicate
	}

	sess := newSession(key, businessType)
	sh.sessions[key] = sess
	return sess.clone(), nil
}

// Get returns a snapshot of the session, or false on a miss.
func (s *MemoryStore) Get(_ context.Context, key string) (*Session, bool) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[key]
	if !ok {
		return nil, false
	}
	return sess.clone(), true
}

// AppendTurn pushes a turn onto the transcript in arrival order.
func (s *MemoryStore) AppendTurn(_ context.Context, key string, role Role, text string) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[key]
	if !ok {
		return ErrNotFound
	}
	sess.appendTurn(role, text)
	return nil
}

// SetContext upserts a context value, last write wins.
func (s *MemoryStore) SetContext(_ context.Context, key, field string, value any) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[key]
	if !ok {
		return ErrNotFound
	}
	sess.setContext(field, value)
	return nil
}

// History returns the ordered transcript, empty for unknown keys.
func (s *MemoryStore) History(_ context.Context, key string) []Turn {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[key]
	if !ok {
		return nil
	}
	out := make([]Turn, len(sess.Turns))
	copy(out, sess.Turns)
	return out
}

// End removes the session. Idempotent.
func (s *MemoryStore) End(_ context.Context, key string) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.sessions, key)
}
