package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStoreCreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess, err := store.Create(ctx, "restaurant", "+15551234567")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.Key != "+15551234567" {
		t.Fatalf("expected explicit key, got %s", sess.Key)
	}

	got, ok := store.Get(ctx, "+15551234567")
	if !ok {
		t.Fatal("expected session to exist")
	}
	if got.Key != "+15551234567" || got.BusinessType != "restaurant" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	if _, ok := store.Get(ctx, "unknown"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestMemoryStoreGeneratedKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a, err := store.Create(ctx, "restaurant", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	b, err := store.Create(ctx, "restaurant", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.Key == "" || a.Key == b.Key {
		t.Fatalf("expected distinct generated keys, got %q and %q", a.Key, b.Key)
	}
}

func TestMemoryStoreDuplicateCreate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, "restaurant", "dup"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := store.Create(ctx, "restaurant", "dup")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestMemoryStoreAppendOrdering(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, "restaurant", "order"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		if err := store.AppendTurn(ctx, "order", role, fmt.Sprintf("turn-%d", i)); err != nil {
			t.Fatalf("AppendTurn failed: %v", err)
		}
	}

	history := store.History(ctx, "order")
	if len(history) != 10 {
		t.Fatalf("expected 10 turns, got %d", len(history))
	}
	for i, turn := range history {
		if turn.Text != fmt.Sprintf("turn-%d", i) {
			t.Fatalf("turn %d out of order: %s", i, turn.Text)
		}
	}
}

func TestMemoryStoreStrictOperationsOnMiss(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.AppendTurn(ctx, "ghost", RoleUser, "hi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on append, got %v", err)
	}
	if err := store.SetContext(ctx, "ghost", "sentiment", "neutral"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on context update, got %v", err)
	}
	if history := store.History(ctx, "ghost"); len(history) != 0 {
		t.Fatalf("expected empty history, got %d turns", len(history))
	}
	// End on a missing key is a no-op.
	store.End(ctx, "ghost")
}

func TestMemoryStoreContextLastWriteWins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, "restaurant", "ctx"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.SetContext(ctx, "ctx", "sentiment", "positive"); err != nil {
		t.Fatalf("SetContext failed: %v", err)
	}
	if err := store.SetContext(ctx, "ctx", "sentiment", "negative"); err != nil {
		t.Fatalf("SetContext failed: %v", err)
	}

	sess, _ := store.Get(ctx, "ctx")
	if sess.Context["sentiment"] != "negative" {
		t.Fatalf("expected last write to win, got %v", sess.Context["sentiment"])
	}
}

func TestMemoryStoreSnapshotIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, "restaurant", "snap"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	snap, _ := store.Get(ctx, "snap")
	snap.Context["sentiment"] = "tampered"
	snap.Turns = append(snap.Turns, Turn{Role: RoleUser, Text: "tampered"})

	fresh, _ := store.Get(ctx, "snap")
	if len(fresh.Turns) != 0 || len(fresh.Context) != 0 {
		t.Fatal("mutating a snapshot must not affect the stored session")
	}
}

func TestMemoryStoreConcurrentCreateSameKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	created := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Create(ctx, "restaurant", "race"); err == nil {
				created <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(created)

	count := 0
	for range created {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one successful create, got %d", count)
	}
}

func TestMemoryStoreConcurrentAppendsAcrossSessions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const sessions = 8
	const turnsPerSession = 50

	for i := 0; i < sessions; i++ {
		if _, err := store.Create(ctx, "restaurant", fmt.Sprintf("s-%d", i)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			for j := 0; j < turnsPerSession; j++ {
				if err := store.AppendTurn(ctx, key, RoleUser, fmt.Sprintf("%s-%d", key, j)); err != nil {
					t.Errorf("AppendTurn failed: %v", err)
					return
				}
			}
		}(fmt.Sprintf("s-%d", i))
	}
	wg.Wait()

	for i := 0; i < sessions; i++ {
		key := fmt.Sprintf("s-%d", i)
		history := store.History(ctx, key)
		if len(history) != turnsPerSession {
			t.Fatalf("session %s: expected %d turns, got %d", key, turnsPerSession, len(history))
		}
		for j, turn := range history {
			if turn.Text != fmt.Sprintf("%s-%d", key, j) {
				t.Fatalf("session %s: turn %d out of order: %s", key, j, turn.Text)
			}
		}
	}
}

func TestMemoryStoreEndIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, "restaurant", "bye"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	store.End(ctx, "bye")
	store.End(ctx, "bye")
	if _, ok := store.Get(ctx, "bye"); ok {
		t.Fatal("expected session to be removed")
	}
}
