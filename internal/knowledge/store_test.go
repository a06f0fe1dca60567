package knowledge

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQueryDefaults(t *testing.T) {
	store := NewStore(context.Background(), "restaurant", nil, nil)
	ctx := context.Background()

	hours, ok := store.Query(ctx, "hours").(string)
	if !ok || hours != "Monday-Sunday: 11am-10pm" {
		t.Fatalf("unexpected hours: %v", store.Query(ctx, "hours"))
	}

	menu, ok := store.Query(ctx, "menu").(map[string]any)
	if !ok {
		t.Fatalf("expected menu map, got %T", store.Query(ctx, "menu"))
	}
	if len(menu["desserts"].([]any)) != 3 {
		t.Fatalf("expected 3 desserts, got %v", menu["desserts"])
	}

	// Restaurant document has no properties; the topic default applies.
	props, ok := store.Query(ctx, "properties").([]any)
	if !ok || len(props) != 0 {
		t.Fatalf("expected empty properties, got %v", store.Query(ctx, "properties"))
	}
}

func TestQueryRealEstateDefaults(t *testing.T) {
	store := NewStore(context.Background(), "real_estate", nil, nil)
	ctx := context.Background()

	props, ok := store.Query(ctx, "properties").([]any)
	if !ok || len(props) != 3 {
		t.Fatalf("expected 3 properties, got %v", store.Query(ctx, "properties"))
	}
	agents, ok := store.Query(ctx, "agents").([]any)
	if !ok || len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %v", store.Query(ctx, "agents"))
	}
	// The real estate document keys office hours separately, so the plain
	// hours topic answers not-available.
	if got := store.Query(ctx, "hours"); got != "Hours not available" {
		t.Fatalf("expected hours fallback, got %v", got)
	}
}

func TestUpdateConcatenatesNestedLists(t *testing.T) {
	store := NewStore(context.Background(), "restaurant", nil, nil)
	ctx := context.Background()

	err := store.Update(ctx, Document{
		"menu": map[string]any{
			"desserts": []any{
				map[string]any{"name": "Panna Cotta", "price": 7.49, "description": "Vanilla cream with berry coulis"},
			},
		},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	menu := store.Query(ctx, "menu").(map[string]any)
	desserts := menu["desserts"].([]any)
	if len(desserts) != 4 {
		t.Fatalf("expected old desserts plus new, got %d", len(desserts))
	}
	if desserts[3].(map[string]any)["name"] != "Panna Cotta" {
		t.Fatalf("expected appended dessert last, got %v", desserts[3])
	}
	if len(menu["appetizers"].([]any)) != 3 {
		t.Fatalf("appetizers must be untouched, got %v", menu["appetizers"])
	}
}

func TestUpdateScalarReplaces(t *testing.T) {
	store := NewStore(context.Background(), "restaurant", nil, nil)
	ctx := context.Background()

	if err := store.Update(ctx, Document{"hours": "Mon-Fri 9-5"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := store.Query(ctx, "hours"); got != "Mon-Fri 9-5" {
		t.Fatalf("expected scalar replace, got %v", got)
	}
}

func TestUpdateTypeMismatchReplaces(t *testing.T) {
	store := NewStore(context.Background(), "restaurant", nil, nil)
	ctx := context.Background()

	// Replacing a map with a string must not attempt a merge.
	if err := store.Update(ctx, Document{"menu": "ask our staff"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := store.Query(ctx, "menu"); got != "ask our staff" {
		t.Fatalf("expected replacement, got %v", got)
	}
}

type failingPersister struct{}

func (failingPersister) Load(context.Context) (Document, error) { return nil, nil }
func (failingPersister) Save(context.Context, Document) error {
	return errors.New("disk on fire")
}

func TestUpdatePersistFailureKeepsMemoryState(t *testing.T) {
	store := NewStore(context.Background(), "restaurant", failingPersister{}, nil)
	ctx := context.Background()

	err := store.Update(ctx, Document{"hours": "closed for repairs"})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if got := store.Query(ctx, "hours"); got != "closed for repairs" {
		t.Fatalf("in-memory state must still apply, got %v", got)
	}
}

func TestFilePersisterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.json")
	p := NewFilePersister(path)
	ctx := context.Background()

	doc, err := p.Load(ctx)
	if err != nil || doc != nil {
		t.Fatalf("expected nil document for missing file, got %v, %v", doc, err)
	}

	store := NewStore(ctx, "restaurant", p, nil)
	if err := store.Update(ctx, Document{"hours": "Mon-Fri 9-5"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reloaded := NewStore(ctx, "restaurant", NewFilePersister(path), nil)
	if got := reloaded.Query(ctx, "hours"); got != "Mon-Fri 9-5" {
		t.Fatalf("expected persisted hours, got %v", got)
	}
}

func TestRedisPersisterRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	store := NewStore(ctx, "restaurant", NewRedisPersister(client, "restaurant"), nil)
	if err := store.Update(ctx, Document{"contact": "555-000-1111"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reloaded := NewStore(ctx, "restaurant", NewRedisPersister(client, "restaurant"), nil)
	if got := reloaded.Query(ctx, "contact"); got != "555-000-1111" {
		t.Fatalf("expected persisted contact, got %v", got)
	}
}
