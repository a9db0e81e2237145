package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/kidcreatives/kidcreatives/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRegistry_GetCreatesOnce(t *testing.T) {
	r := NewRegistry(time.Hour, log.NewNop())
	owner := uuid.New()

	a := r.Get(owner)
	b := r.Get(owner)
	if a != b {
		t.Error("Get() returned different sessions for the same owner")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	if r.Get(uuid.New()) == a {
		t.Error("Get() shared a session across owners")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestRegistry_SweepRemovesStale(t *testing.T) {
	r := NewRegistry(time.Minute, log.NewNop())
	stale, fresh := uuid.New(), uuid.New()

	r.Get(stale)
	r.mu.Lock()
	r.sessions[stale].lastSeen = time.Now().Add(-2 * time.Minute)
	r.mu.Unlock()
	r.Get(fresh)

	r.sweep(time.Now())

	if r.Len() != 1 {
		t.Fatalf("Len() after sweep = %d, want 1", r.Len())
	}
	r.mu.Lock()
	_, ok := r.sessions[fresh]
	r.mu.Unlock()
	if !ok {
		t.Error("sweep removed the fresh session")
	}
}

func TestRegistry_SweptSessionRestarts(t *testing.T) {
	r := NewRegistry(time.Minute, log.NewNop())
	owner := uuid.New()

	sess := r.Get(owner)
	sess.mu.Lock()
	sess.generatedImage = []byte("artwork")
	sess.mu.Unlock()

	r.mu.Lock()
	r.sessions[owner].lastSeen = time.Now().Add(-time.Hour)
	r.mu.Unlock()
	r.sweep(time.Now())

	replacement := r.Get(owner)
	replacement.mu.Lock()
	defer replacement.mu.Unlock()
	if len(replacement.generatedImage) != 0 {
		t.Error("swept session retained data")
	}
}

func TestRegistry_CleanupStopsOnCancel(t *testing.T) {
	r := NewRegistry(10*time.Millisecond, log.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	r.StartCleanup(ctx)
	cancel()
	// goleak in TestMain fails the run if the sweeper goroutine leaks.
	time.Sleep(20 * time.Millisecond)
}
