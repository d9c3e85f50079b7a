package session

import (
	"errors"
	"sync"
	"testing"
)

func TestStoreCreateGeneratesID(t *testing.T) {
	store := NewStore()

	sess, err := store.Create("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sess.ID == "" {
		t.Fatalf("expected a generated session id")
	}
	if sess.State != StateSelecting {
		t.Fatalf("new sessions must start in selecting, got %s", sess.State)
	}
	if len(sess.History) != 0 {
		t.Fatalf("new sessions must have empty history")
	}
}

func TestStoreCreateRejectsDuplicateID(t *testing.T) {
	store := NewStore()

	if _, err := store.Create("abc", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.Create("abc", nil); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestStoreAcquireUnknownSession(t *testing.T) {
	store := NewStore()

	if _, _, err := store.Acquire("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreAcquireSerializesTransitions(t *testing.T) {
	store := NewStore()
	sess, err := store.Create("s1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, release, err := store.Acquire(sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := store.Acquire(sess.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict while held, got %v", err)
	}

	release()

	_, release2, err := store.Acquire(sess.ID)
	if err != nil {
		t.Fatalf("expected acquire to succeed after release: %v", err)
	}
	release2()
}

func TestStoreSnapshotWhileBusy(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("s1", nil)

	_, release, err := store.Acquire(sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.Snapshot(sess.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for a busy session, got %v", err)
	}

	release()

	if _, err := store.Snapshot(sess.ID); err != nil {
		t.Fatalf("expected snapshot after release: %v", err)
	}
}

func TestStoreSnapshotCopiesState(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("s1", nil)
	sess.MarkAsked("101")

	snap, err := store.Snapshot(sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap.MarkAsked("999")
	if sess.Asked("999") {
		t.Fatalf("mutating a snapshot must not leak into the live session")
	}
	if !snap.Asked("101") {
		t.Fatalf("snapshot lost the asked set")
	}
}

func TestStoreIndependentSessionsDoNotBlock(t *testing.T) {
	store := NewStore()
	a, _ := store.Create("a", nil)
	b, _ := store.Create("b", nil)

	_, releaseA, err := store.Acquire(a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer releaseA()

	_, releaseB, err := store.Acquire(b.ID)
	if err != nil {
		t.Fatalf("holding one session must not block another: %v", err)
	}
	releaseB()
}

func TestStoreConcurrentAcquire(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("s1", nil)

	const workers = 16

	var wg sync.WaitGroup
	var mu sync.Mutex
	held := 0
	maxHeld := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, release, err := store.Acquire(sess.ID)
			if err != nil {
				return
			}
			mu.Lock()
			held++
			if held > maxHeld {
				maxHeld = held
			}
			mu.Unlock()

			mu.Lock()
			held--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if maxHeld > 1 {
		t.Fatalf("at most one holder allowed, observed %d", maxHeld)
	}
}

func TestMarkAskedIdempotent(t *testing.T) {
	sess := &Session{}

	sess.MarkAsked("101")
	sess.MarkAsked("101")

	if len(sess.AskedQuestionIDs) != 1 {
		t.Fatalf("expected one asked id, got %d", len(sess.AskedQuestionIDs))
	}
	if !sess.Asked("101") {
		t.Fatalf("expected 101 to be marked asked")
	}
}
