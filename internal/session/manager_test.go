package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBeginCreatesAnonymousSession(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), WithTTL(time.Hour))
	ctx := context.Background()

	sess, err := mgr.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !sess.Anonymous() {
		t.Fatal("expected anonymous session")
	}
	if sess.ID == "" || sess.CSRFSecret == "" {
		t.Fatalf("expected id and csrf secret, got %+v", sess)
	}
	if !sess.ExpiresAt.After(sess.CreatedAt) {
		t.Fatalf("expiry not in the future: %+v", sess)
	}

	got, err := mgr.Resolve(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != sess.ID || got.CSRFSecret != sess.CSRFSecret {
		t.Fatalf("resolved session differs: %+v vs %+v", got, sess)
	}
}

func TestResolveUnknownAndExpired(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	store := NewMemoryStore()
	mgr := NewManager(store, WithTTL(time.Minute), WithClock(clock))
	ctx := context.Background()

	if _, err := mgr.Resolve(ctx, "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id: expected ErrNotFound, got %v", err)
	}

	sess, err := mgr.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := mgr.Resolve(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired id: expected ErrNotFound, got %v", err)
	}
	// The expired record must be gone from the store as well.
	if _, err := store.Find(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired record removed, got %v", err)
	}
}

func TestAttachRegeneratesSession(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), WithTTL(time.Hour))
	ctx := context.Background()

	anon, err := mgr.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	authed, err := mgr.Attach(ctx, anon, "principal-1")
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if authed.ID == anon.ID {
		t.Fatal("session id was not rotated on login")
	}
	if authed.CSRFSecret == anon.CSRFSecret {
		t.Fatal("csrf secret was not rotated on login")
	}
	if authed.PrincipalID != "principal-1" {
		t.Fatalf("principal not attached: %+v", authed)
	}

	// Old id must be invalid (fixation defense).
	if _, err := mgr.Resolve(ctx, anon.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old session still resolvable: %v", err)
	}
	if _, err := mgr.Resolve(ctx, authed.ID); err != nil {
		t.Fatalf("new session not resolvable: %v", err)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	mgr := NewManager(NewMemoryStore())
	ctx := context.Background()

	sess, err := mgr.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := mgr.Destroy(ctx, sess.ID); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := mgr.Destroy(ctx, sess.ID); err != nil {
		t.Fatalf("second Destroy: %v", err)
	}
	if _, err := mgr.Resolve(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("destroyed session still resolvable: %v", err)
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	mgr := NewManager(NewMemoryStore(), WithTTL(time.Minute), WithClock(clock))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := mgr.Begin(ctx); err != nil {
			t.Fatalf("Begin: %v", err)
		}
	}

	now = now.Add(2 * time.Minute)
	n, err := mgr.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 swept sessions, got %d", n)
	}
}

func TestVerifyCSRF(t *testing.T) {
	secret, err := NewCSRFSecret()
	if err != nil {
		t.Fatalf("NewCSRFSecret: %v", err)
	}
	if !VerifyCSRF(secret, secret) {
		t.Fatal("matching token rejected")
	}
	other, _ := NewCSRFSecret()
	if VerifyCSRF(secret, other) {
		t.Fatal("mismatched token accepted")
	}
	if VerifyCSRF(secret, "") || VerifyCSRF("", secret) {
		t.Fatal("empty token accepted")
	}
}
