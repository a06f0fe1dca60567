package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/bdafahim/OmniAssist/pkg/logging"
)

// ErrPersistence reports that a knowledge update could not be written back.
// The in-memory document is updated regardless, so reads stay correct for
// the rest of the process lifetime.
var ErrPersistence = errors.New("knowledge: persistence failed")

// Persister is the durable side of the knowledge store. Load returns
// (nil, nil) when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
}

// Store holds the business knowledge document. Queries are point reads;
// updates merge partial documents and write back through the persister.
// The merge-then-persist sequence is serialized so concurrent writers
// cannot lose updates.
type Store struct {
	mu           sync.RWMutex
	doc          Document
	persister    Persister
	businessType string
	logger       *logging.Logger
	tracer       trace.Tracer
}

// NewStore builds a knowledge store for the business type, loading the
// persisted document when one exists and falling back to the built-in
// default otherwise. A nil persister keeps the store memory-only.
func NewStore(ctx context.Context, businessType string, persister Persister, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}

	s := &Store{
		persister:    persister,
		businessType: businessType,
		logger:       logger,
		tracer:       otel.Tracer("omniassist.internal.knowledge"),
	}

	if persister != nil {
		doc, err := persister.Load(ctx)
		if err != nil {
			logger.Warn("failed to load knowledge base, using defaults", "error", err, "business_type", businessType)
		} else if doc != nil {
			s.doc = doc
		}
	}
	if s.doc == nil {
		s.doc = DefaultDocument(businessType)
	}
	return s
}

// BusinessType reports which business this store is configured for.
func (s *Store) BusinessType() string {
	return s.businessType
}

// Query returns the stored value for a topic key, or the topic's
// not-available answer when the document has no entry.
func (s *Store) Query(ctx context.Context, topic string) any {
	_, span := s.tracer.Start(ctx, "knowledge.query")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if value, ok := s.doc[topic]; ok {
		return value
	}
	if fallback, ok := notAvailable[topic]; ok {
		return fallback
	}
	return NotAvailableText
}

// Snapshot returns a shallow copy of the current document for admin reads.
func (s *Store) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Document, len(s.doc))
	for k, v := range s.doc {
		out[k] = v
	}
	return out
}

// Update merges a partial document into the knowledge base and persists the
// result. Merge policy per top-level key: map into map merges key-by-key
// with new keys winning, slice into slice concatenates, anything else
// replaces. The in-memory document is updated even when the durable write
// fails; that failure surfaces as ErrPersistence.
func (s *Store) Update(ctx context.Context, partial Document) error {
	ctx, span := s.tracer.Start(ctx, "knowledge.update")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, incoming := range partial {
		s.doc[key] = mergeValue(s.doc[key], incoming)
	}

	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(ctx, s.doc); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to persist knowledge base", "error", err, "business_type", s.businessType)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// mergeValue applies the update policy for one top-level key.
func mergeValue(existing, incoming any) any {
	existingMap, okExisting := existing.(map[string]any)
	incomingMap, okIncoming := incoming.(map[string]any)
	if okExisting && okIncoming {
		merged := make(map[string]any, len(existingMap)+len(incomingMap))
		for k, v := range existingMap {
			merged[k] = v
		}
		for k, v := range incomingMap {
			merged[k] = mergeValue(existingMap[k], v)
		}
		return merged
	}

	existingSlice, okExisting := existing.([]any)
	incomingSlice, okIncoming := incoming.([]any)
	if okExisting && okIncoming {
		merged := make([]any, 0, len(existingSlice)+len(incomingSlice))
		merged = append(merged, existingSlice...)
		merged = append(merged, incomingSlice...)
		return merged
	}

	return incoming
}
