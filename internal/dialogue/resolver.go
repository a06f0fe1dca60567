package dialogue

import (
	"context"

	"github.com/bdafahim/OmniAssist/internal/session"
)

// UnknownResolver is an optional strategy consulted when classification
// yields no topic, before the canned fallback phrase. Implementations may
// call external models; the engine treats any failure or empty result as
// "no answer" and falls back silently.
type UnknownResolver interface {
	Resolve(ctx context.Context, text string, history []session.Turn) (string, error)
}
