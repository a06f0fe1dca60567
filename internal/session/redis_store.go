package session

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const sessionKeyPrefix = "session:"

const defaultSessionTTL = 24 * time.Hour

// RedisStore persists sessions as JSON blobs in Redis so conversations
// survive an API restart. Mutations are read-modify-write cycles guarded by
// a local key-striped mutex; the deployment is single-process per business,
// so no cross-process coordination is needed.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration

	stripes [shardCount]sync.Mutex
}

// NewRedisStore creates a Redis-backed session store. A non-positive ttl
// falls back to 24 hours.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisStore{
		redis:  client,
		tracer: otel.Tracer("omniassist.internal.session.redis"),
		ttl:    ttl,
	}
}

func (s *RedisStore) stripe(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.stripes[h.Sum32()%shardCount]
}

func redisSessionKey(key string) string {
	return sessionKeyPrefix + key
}

// Create registers a new session using SET NX so explicit duplicate creates
// fail atomically.
func (s *RedisStore) Create(ctx context.Context, businessType, key string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.create")
	defer span.End()

	if key == "" {
		key = uuid.NewString()
	}

	sess := newSession(key, businessType)
	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to marshal session: %w", err)
	}

	ok, err := s.redis.SetNX(ctx, redisSessionKey(key), data, s.ttl).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to persist session: %w", err)
	}
	if !ok {
		return nil, ErrDuplicate
	}
	return sess, nil
}

// Get returns a snapshot of the session, or false on a miss or decode failure.
func (s *RedisStore) Get(ctx context.Context, key string) (*Session, bool) {
	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()

	sess, err := s.load(ctx, key)
	if err != nil || sess == nil {
		return nil, false
	}
	return sess, true
}

func (s *RedisStore) load(ctx context.Context, key string) (*Session, error) {
	data, err := s.redis.Get(ctx, redisSessionKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("session: failed to load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: failed to decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, redisSessionKey(sess.Key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: failed to persist session: %w", err)
	}
	return nil
}

// mutate loads, applies fn, and writes back under the key's stripe lock so
// two concurrent turns for one session cannot interleave.
func (s *RedisStore) mutate(ctx context.Context, key string, fn func(*Session)) error {
	mu := s.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotFound
	}
	fn(sess)
	return s.save(ctx, sess)
}

// AppendTurn pushes a turn onto the transcript in arrival order.
func (s *RedisStore) AppendTurn(ctx context.Context, key string, role Role, text string) error {
	ctx, span := s.tracer.Start(ctx, "session.append_turn")
	defer span.End()

	err := s.mutate(ctx, key, func(sess *Session) {
		sess.appendTurn(role, text)
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// SetContext upserts a context value, last write wins.
func (s *RedisStore) SetContext(ctx context.Context, key, field string, value any) error {
	ctx, span := s.tracer.Start(ctx, "session.set_context")
	defer span.End()

	err := s.mutate(ctx, key, func(sess *Session) {
		sess.setContext(field, value)
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// History returns the ordered transcript, empty for unknown keys.
func (s *RedisStore) History(ctx context.Context, key string) []Turn {
	ctx, span := s.tracer.Start(ctx, "session.history")
	defer span.End()

	sess, err := s.load(ctx, key)
	if err != nil || sess == nil {
		return nil
	}
	return sess.Turns
}

// End removes the session. Idempotent.
func (s *RedisStore) End(ctx context.Context, key string) {
	ctx, span := s.tracer.Start(ctx, "session.end")
	defer span.End()

	if err := s.redis.Del(ctx, redisSessionKey(key)).Err(); err != nil && err != redis.Nil {
		span.RecordError(err)
	}
}
