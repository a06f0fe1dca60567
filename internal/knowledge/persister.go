package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/redis/go-redis/v9"
)

// FilePersister stores the knowledge document as a JSON file on disk.
type FilePersister struct {
	path string
}

// NewFilePersister creates a file-backed persister.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Load reads the document from disk. A missing file is not an error.
func (p *FilePersister) Load(_ context.Context) (Document, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("knowledge: failed to read %s: %w", p.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("knowledge: failed to decode %s: %w", p.path, err)
	}
	return doc, nil
}

// Save writes the full document to disk.
func (p *FilePersister) Save(_ context.Context, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("knowledge: failed to encode document: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o600); err != nil {
		return fmt.Errorf("knowledge: failed to write %s: %w", p.path, err)
	}
	return nil
}

const knowledgeKeyPrefix = "knowledge:"

// RedisPersister stores the knowledge document as a JSON blob in Redis,
// keyed by business type.
type RedisPersister struct {
	redis        *redis.Client
	businessType string
}

// NewRedisPersister creates a Redis-backed persister.
func NewRedisPersister(client *redis.Client, businessType string) *RedisPersister {
	if client == nil {
		panic("knowledge: redis client cannot be nil")
	}
	return &RedisPersister{redis: client, businessType: businessType}
}

func (p *RedisPersister) key() string {
	return knowledgeKeyPrefix + p.businessType
}

// Load reads the document from Redis. A missing key is not an error.
func (p *RedisPersister) Load(ctx context.Context) (Document, error) {
	data, err := p.redis.Get(ctx, p.key()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("knowledge: failed to load document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("knowledge: failed to decode document: %w", err)
	}
	return doc, nil
}

// Save writes the full document to Redis with no expiry.
func (p *RedisPersister) Save(ctx context.Context, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("knowledge: failed to encode document: %w", err)
	}
	if err := p.redis.Set(ctx, p.key(), data, 0).Err(); err != nil {
		return fmt.Errorf("knowledge: failed to persist document: %w", err)
	}
	return nil
}
