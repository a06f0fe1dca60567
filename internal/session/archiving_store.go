package session

import (
	"context"

	"github.com/bdafahim/OmniAssist/pkg/logging"
)

// ArchivingStore decorates a Store so that End snapshots the transcript into
// the archive before removal. Archive failures are logged and swallowed; the
// in-memory removal always proceeds.
type ArchivingStore struct {
	Store
	archive *Archive
	logger  *logging.Logger
}

// NewArchivingStore wraps inner with best-effort archiving on End. When
// archive is nil the inner store is returned unwrapped.
func NewArchivingStore(inner Store, archive *Archive, logger *logging.Logger) Store {
	if archive == nil {
		return inner
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ArchivingStore{Store: inner, archive: archive, logger: logger}
}

// End archives the session snapshot, then delegates removal.
func (s *ArchivingStore) End(ctx context.Context, key string) {
	if sess, ok := s.Store.Get(ctx, key); ok {
		if err := s.archive.Save(ctx, sess); err != nil {
			s.logger.Warn("failed to archive conversation", "error", err, "session_key", key)
		}
	}
	s.Store.End(ctx, key)
}
